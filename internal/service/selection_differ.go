package service

import (
	"sort"

	"github.com/fenxiao-next/internal/models"
)

// SelectionDiff 商品选择差异（仅用于向用户展示变更摘要）
// 远端定向同步始终发送完整期望集合，绝不发送增量，差异结果不参与同步载荷。
type SelectionDiff struct {
	Added     []models.ProductSelection `json:"added"`
	Removed   []models.ProductSelection `json:"removed"`
	Unchanged []models.ProductSelection `json:"unchanged"`
}

// DiffProductSelections 计算商品选择差异
// 以外部商品ID为键，与输入顺序无关；输出按外部ID排序以保证确定性。
// 对任意集合 S，DiffProductSelections(S, S) 的 Added/Removed 均为空。
func DiffProductSelections(current, desired models.ProductSelectionList) SelectionDiff {
	currentByID := make(map[string]models.ProductSelection, len(current))
	for _, p := range current {
		currentByID[p.ExternalID] = p
	}
	desiredByID := make(map[string]models.ProductSelection, len(desired))
	for _, p := range desired {
		desiredByID[p.ExternalID] = p
	}

	var diff SelectionDiff
	for id, p := range desiredByID {
		if _, ok := currentByID[id]; ok {
			diff.Unchanged = append(diff.Unchanged, p)
		} else {
			diff.Added = append(diff.Added, p)
		}
	}
	for id, p := range currentByID {
		if _, ok := desiredByID[id]; !ok {
			diff.Removed = append(diff.Removed, p)
		}
	}

	sortSelections(diff.Added)
	sortSelections(diff.Removed)
	sortSelections(diff.Unchanged)
	return diff
}

func sortSelections(selections []models.ProductSelection) {
	sort.Slice(selections, func(i, j int) bool {
		return selections[i].ExternalID < selections[j].ExternalID
	})
}
