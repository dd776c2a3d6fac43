package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/platform"
	"github.com/fenxiao-next/internal/provider"
	"github.com/fenxiao-next/internal/queue"
	"github.com/fenxiao-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskTargetingSync, c.handleTargetingSync)
}

// handleTargetingSync 重放定向全量同步
// 全量替换幂等，网络类失败交给 asynq 按原载荷重试；
// 规则已删除、远端资源失联或载荷被拒属于终态，不再重试。
func (c *Consumer) handleTargetingSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_targeting_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.TargetingSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_targeting_sync_unmarshal_failed", "error", err)
		return err
	}
	if payload.RuleID == 0 {
		logger.Debugw("worker_targeting_sync_skip_invalid_payload", "rule_id", payload.RuleID)
		return nil
	}
	if c.PricingRuleService == nil {
		logger.Warnw("worker_targeting_sync_skip_service_nil", "rule_id", payload.RuleID)
		return nil
	}

	err := c.PricingRuleService.ResyncTargeting(ctx, payload.RuleID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRuleNotFound):
			logger.Debugw("worker_targeting_sync_skip_rule_not_found", "rule_id", payload.RuleID)
			return nil
		case errors.Is(err, service.ErrSegmentPrecondition):
			logger.Debugw("worker_targeting_sync_skip_no_external_id", "rule_id", payload.RuleID)
			return nil
		case errors.Is(err, service.ErrRuleNeedsRelink):
			logger.Warnw("worker_targeting_sync_needs_relink", "rule_id", payload.RuleID)
			return nil
		case errors.Is(err, platform.ErrRejected):
			logger.Warnw("worker_targeting_sync_rejected", "rule_id", payload.RuleID, "error", err)
			return nil
		default:
			logger.Warnw("worker_targeting_sync_failed", "rule_id", payload.RuleID, "error", err)
			return err
		}
	}
	return nil
}
