package cache

import (
	"context"
	"time"
)

const (
	customerTagsKey = "catalog:customer_tags"
	productTagsKey  = "catalog:product_tags"
)

// GetCustomerTags 获取客户标签缓存
func GetCustomerTags(ctx context.Context) ([]string, bool, error) {
	var tags []string
	hit, err := GetJSON(ctx, customerTagsKey, &tags)
	if err != nil || !hit {
		return nil, hit, err
	}
	return tags, true, nil
}

// SetCustomerTags 写入客户标签缓存
func SetCustomerTags(ctx context.Context, tags []string, ttl time.Duration) error {
	return SetJSON(ctx, customerTagsKey, tags, ttl)
}

// GetProductTags 获取商品标签缓存
func GetProductTags(ctx context.Context) ([]string, bool, error) {
	var tags []string
	hit, err := GetJSON(ctx, productTagsKey, &tags)
	if err != nil || !hit {
		return nil, hit, err
	}
	return tags, true, nil
}

// SetProductTags 写入商品标签缓存
func SetProductTags(ctx context.Context, tags []string, ttl time.Duration) error {
	return SetJSON(ctx, productTagsKey, tags, ttl)
}
