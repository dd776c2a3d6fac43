package router

import (
	"fmt"
	"strings"

	"github.com/fenxiao-next/internal/cache"
	"github.com/fenxiao-next/internal/config"
	adminhandlers "github.com/fenxiao-next/internal/http/handlers/admin"
	"github.com/fenxiao-next/internal/http/response"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "fx"
	}
	searchRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:catalog_search", redisPrefix),
		WindowSeconds: cfg.Security.SearchRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SearchRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{
			"status": "ok",
		})
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 管理端接口（控制台）
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey))
		{
			// 定价规则
			admin.GET("/pricing-rules", adminHandler.GetPricingRules)
			admin.GET("/pricing-rules/:id", adminHandler.GetPricingRule)
			admin.POST("/pricing-rules", adminHandler.CreatePricingRule)
			admin.PUT("/pricing-rules/:id", adminHandler.UpdatePricingRule)
			admin.DELETE("/pricing-rules/:id", adminHandler.DeletePricingRule)
			admin.PUT("/pricing-rules/:id/products", adminHandler.UpdatePricingRuleProducts)
			admin.POST("/pricing-rules/:id/resync", adminHandler.ResyncPricingRule)

			// 平台目录搜索（搜索类接口加频率限制）
			search := admin.Group("/catalog")
			search.Use(RateLimitMiddleware(cache.Client(), searchRule, KeyByAdmin))
			{
				search.GET("/products", adminHandler.SearchCatalogProducts)
				search.GET("/customers", adminHandler.SearchCatalogCustomers)
				search.GET("/collections", adminHandler.SearchCatalogCollections)
			}
			admin.GET("/catalog/customer-tags", adminHandler.GetCatalogCustomerTags)
			admin.GET("/catalog/product-tags", adminHandler.GetCatalogProductTags)

			// 客户分组绑定
			admin.GET("/pricing-rules/:id/segments/available", adminHandler.GetAvailableSegments)
			admin.GET("/pricing-rules/:id/segments", adminHandler.GetAssignedSegments)
			admin.POST("/pricing-rules/:id/segments", adminHandler.AssignSegment)
			admin.DELETE("/pricing-rules/:id/segments/:segment_id", adminHandler.RemoveSegment)
		}
	}

	return r
}
