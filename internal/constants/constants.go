package constants

// 定价规则状态常量
const (
	RuleStatusActive   = "active"
	RuleStatusInactive = "inactive"
)

// 客户适用条件常量
const (
	CustomerConditionAll          = "all"
	CustomerConditionLoggedIn     = "logged_in"
	CustomerConditionNonLoggedIn  = "non_logged_in"
	CustomerConditionSpecific     = "specific"
	CustomerConditionCustomerTags = "customer_tags"
)

// 商品适用条件常量
const (
	ProductConditionAll         = "all"
	ProductConditionSpecific    = "specific_products"
	ProductConditionCollections = "collections"
	ProductConditionProductTags = "product_tags"
)

// 价格类型常量
const (
	PriceTypePercentOff = "percent_off"
	PriceTypeAmountOff  = "amount_off"
	PriceTypeNewPrice   = "new_price"
)

// 同步状态常量
const (
	SyncStatusDraft       = "draft"
	SyncStatusSynced      = "synced"
	SyncStatusSyncFailed  = "sync_failed"
	SyncStatusNeedsRelink = "needs_relink"
)

// 最低门槛类型常量
const (
	MinimumTypeNone     = "none"
	MinimumTypeQuantity = "quantity"
	MinimumTypeSubtotal = "subtotal"
)

// 队列常量
const (
	QueueDefault      = "default"
	TaskTargetingSync = "pricing:targeting_sync"
)

// CustomerConditions 客户条件全集
var CustomerConditions = []string{
	CustomerConditionAll,
	CustomerConditionLoggedIn,
	CustomerConditionNonLoggedIn,
	CustomerConditionSpecific,
	CustomerConditionCustomerTags,
}

// ProductConditions 商品条件全集
var ProductConditions = []string{
	ProductConditionAll,
	ProductConditionSpecific,
	ProductConditionCollections,
	ProductConditionProductTags,
}

// PriceTypes 价格类型全集
var PriceTypes = []string{
	PriceTypePercentOff,
	PriceTypeAmountOff,
	PriceTypeNewPrice,
}

// IsValidCustomerCondition 判断客户条件是否合法
func IsValidCustomerCondition(condition string) bool {
	return contains(CustomerConditions, condition)
}

// IsValidProductCondition 判断商品条件是否合法
func IsValidProductCondition(condition string) bool {
	return contains(ProductConditions, condition)
}

// IsValidPriceType 判断价格类型是否合法
func IsValidPriceType(priceType string) bool {
	return contains(PriceTypes, priceType)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
