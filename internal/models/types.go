package models

import (
	"database/sql/driver"
	"encoding/json"
)

// StringArray 字符串数组类型，用于存储标签集合
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, strOK := value.(string); strOK {
			bytes = []byte(str)
		} else {
			return nil
		}
	}
	if len(bytes) == 0 {
		*s = StringArray{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// CustomerSelection 指定客户选择项
type CustomerSelection struct {
	ExternalID  string `json:"external_id"`  // 平台客户ID
	Email       string `json:"email"`        // 邮箱
	DisplayName string `json:"display_name"` // 展示名称
}

// CustomerSelectionList 指定客户集合（JSON 列）
type CustomerSelectionList []CustomerSelection

// Value 实现 driver.Valuer 接口
func (l CustomerSelectionList) Value() (driver.Value, error) {
	return marshalJSONColumn(l == nil, l)
}

// Scan 实现 sql.Scanner 接口
func (l *CustomerSelectionList) Scan(value interface{}) error {
	return scanJSONColumn(value, l)
}

// ProductSelection 指定商品选择项
type ProductSelection struct {
	ExternalID string `json:"external_id"` // 平台商品ID
	Title      string `json:"title"`       // 商品标题
	Handle     string `json:"handle"`      // 商品 handle
}

// ProductSelectionList 指定商品集合（JSON 列）
type ProductSelectionList []ProductSelection

// Value 实现 driver.Valuer 接口
func (l ProductSelectionList) Value() (driver.Value, error) {
	return marshalJSONColumn(l == nil, l)
}

// Scan 实现 sql.Scanner 接口
func (l *ProductSelectionList) Scan(value interface{}) error {
	return scanJSONColumn(value, l)
}

// CollectionSelection 商品集合（平台 collection）选择项
type CollectionSelection struct {
	ExternalID string `json:"external_id"` // 平台集合ID
	Title      string `json:"title"`       // 集合标题
}

// CollectionSelectionList 商品集合选择集合（JSON 列）
type CollectionSelectionList []CollectionSelection

// Value 实现 driver.Valuer 接口
func (l CollectionSelectionList) Value() (driver.Value, error) {
	return marshalJSONColumn(l == nil, l)
}

// Scan 实现 sql.Scanner 接口
func (l *CollectionSelectionList) Scan(value interface{}) error {
	return scanJSONColumn(value, l)
}

func marshalJSONColumn(isNil bool, value interface{}) (driver.Value, error) {
	if isNil {
		return "[]", nil
	}
	return json.Marshal(value)
}

func scanJSONColumn(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, strOK := value.(string)
		if !strOK {
			return nil
		}
		bytes = []byte(str)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dest)
}
