package provider

import (
	"time"

	"github.com/fenxiao-next/internal/cache"
	"github.com/fenxiao-next/internal/config"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/platform"
	"github.com/fenxiao-next/internal/queue"
	"github.com/fenxiao-next/internal/repository"
	"github.com/fenxiao-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config         *config.Config
	QueueClient    *queue.Client
	PlatformClient *platform.Client

	// Repositories
	PricingRuleRepo    repository.PricingRuleRepository
	SegmentBindingRepo repository.SegmentBindingRepository

	// Services
	PricingRuleService *service.PricingRuleService
	CatalogService     *service.CatalogService
	SegmentService     *service.SegmentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	// 初始化平台客户端
	platformClient, err := platform.NewClient(platform.Config{
		APIBaseURL:  cfg.Platform.APIBaseURL,
		ShopDomain:  cfg.Platform.ShopDomain,
		AccessToken: cfg.Platform.AccessToken,
		TimeoutMS:   cfg.Platform.TimeoutMS,
		SearchLimit: cfg.Platform.SearchLimit,
	})
	if err != nil {
		logger.Errorw("provider_init_platform_client_failed", "error", err)
		panic(err)
	}

	c := &Container{
		Config:         cfg,
		QueueClient:    queueClient,
		PlatformClient: platformClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.PricingRuleRepo = repository.NewPricingRuleRepository(db)
	c.SegmentBindingRepo = repository.NewSegmentBindingRepository(db)
}

func (c *Container) initServices() {
	tagTTL := time.Duration(c.Config.Platform.TagCacheSeconds) * time.Second
	c.CatalogService = service.NewCatalogService(c.PlatformClient, tagTTL)
	c.PricingRuleService = service.NewPricingRuleService(
		c.PricingRuleRepo,
		c.SegmentBindingRepo,
		c.PlatformClient,
		c.CatalogService,
		c.QueueClient,
	)
	c.SegmentService = service.NewSegmentService(
		c.PricingRuleRepo,
		c.SegmentBindingRepo,
		c.PlatformClient,
	)
}
