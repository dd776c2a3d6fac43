package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言常量
const (
	LocaleZH = "zh-CN"
	LocaleTW = "zh-TW"
	LocaleEN = "en-US"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleZH

var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":             "请求参数错误",
		"error.unauthorized":            "未授权",
		"error.auth_header_missing":     "缺少认证信息",
		"error.auth_header_invalid":     "认证信息格式错误",
		"error.token_invalid":           "无效的 token",
		"error.jwt_secret_missing":      "服务端未配置 JWT 密钥",
		"error.rule_invalid":            "定价规则参数不合法",
		"error.rule_not_found":          "定价规则不存在",
		"error.rule_external_immutable": "定价规则已绑定的外部折扣不可更换",
		"error.rule_create_failed":      "定价规则创建失败",
		"error.rule_update_failed":      "定价规则更新失败",
		"error.rule_delete_failed":      "定价规则删除失败",
		"error.rule_fetch_failed":       "定价规则查询失败",
		"error.discount_create_failed":  "外部折扣创建失败",
		"error.rule_sync_failed":        "规则已保存，目标同步失败",
		"error.rule_needs_relink":       "外部折扣已不存在，需要重新关联",
		"error.catalog_unavailable":     "平台目录服务暂不可用",
		"error.segment_precondition":    "请先保存规则，生成外部折扣后再绑定客户分组",
		"error.segment_assign_failed":   "客户分组绑定失败",
		"error.segment_remove_failed":   "客户分组解绑失败",
		"error.segment_not_found":       "客户分组绑定不存在",
		"error.rate_limited":            "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":  "限流服务暂不可用",
		"error.forbidden":               "没有权限执行该操作",
		"error.internal":                "服务器内部错误",
	},
	LocaleEN: {
		"error.bad_request":             "invalid request",
		"error.unauthorized":            "unauthorized",
		"error.auth_header_missing":     "authorization header missing",
		"error.auth_header_invalid":     "authorization header invalid",
		"error.token_invalid":           "invalid token",
		"error.jwt_secret_missing":      "server jwt secret not configured",
		"error.rule_invalid":            "pricing rule invalid",
		"error.rule_not_found":          "pricing rule not found",
		"error.rule_external_immutable": "the linked external discount of a pricing rule cannot be changed",
		"error.rule_create_failed":      "failed to create pricing rule",
		"error.rule_update_failed":      "failed to update pricing rule",
		"error.rule_delete_failed":      "failed to delete pricing rule",
		"error.rule_fetch_failed":       "failed to fetch pricing rules",
		"error.discount_create_failed":  "failed to create external discount",
		"error.rule_sync_failed":        "rule saved, targeting sync failed",
		"error.rule_needs_relink":       "linked external discount no longer exists, relink required",
		"error.catalog_unavailable":     "platform catalog temporarily unavailable",
		"error.segment_precondition":    "save the rule first so an external discount exists, then bind segments",
		"error.segment_assign_failed":   "failed to assign customer segment",
		"error.segment_remove_failed":   "failed to remove customer segment",
		"error.segment_not_found":       "segment binding not found",
		"error.rate_limited":            "too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":  "rate limiter temporarily unavailable",
		"error.forbidden":               "permission denied",
		"error.internal":                "internal server error",
	},
}

// ResolveLocale 从请求解析语言（query 优先，其次 Accept-Language）
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if raw := strings.TrimSpace(c.Query("locale")); raw != "" {
		return normalizeLocale(raw)
	}
	if raw := strings.TrimSpace(c.GetHeader("Accept-Language")); raw != "" {
		first := strings.SplitN(raw, ",", 2)[0]
		return normalizeLocale(first)
	}
	return DefaultLocale
}

// T 按语言取文案，缺失时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	locale = normalizeLocale(locale)
	if msg, ok := messages[locale][key]; ok {
		return msg
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 按语言取文案并格式化参数
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(normalized, "zh-tw"), strings.HasPrefix(normalized, "zh-hant"):
		return LocaleTW
	case strings.HasPrefix(normalized, "zh"):
		return LocaleZH
	case strings.HasPrefix(normalized, "en"):
		return LocaleEN
	default:
		return DefaultLocale
	}
}
