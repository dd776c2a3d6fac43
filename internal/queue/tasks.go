package queue

import (
	"encoding/json"

	"github.com/fenxiao-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskTargetingSync 定向集合重同步任务
	TaskTargetingSync = constants.TaskTargetingSync
)

// TargetingSyncPayload 定向重同步任务载荷
type TargetingSyncPayload struct {
	RuleID uint `json:"rule_id"`
}

// NewTargetingSyncTask 创建定向重同步任务
func NewTargetingSyncTask(payload TargetingSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTargetingSync, body), nil
}
