package service

import "fmt"

// 规则编辑会话状态常量
const (
	SessionStateDraft      = "draft"
	SessionStateValidating = "validating"
	SessionStateSaving     = "saving"
	SessionStateSynced     = "synced"
	SessionStateSyncFailed = "sync_failed"
)

// sessionTransitions 编辑会话状态迁移表，表外迁移一律拒绝
var sessionTransitions = map[string][]string{
	SessionStateDraft:      {SessionStateValidating},
	SessionStateValidating: {SessionStateDraft, SessionStateSaving},
	SessionStateSaving:     {SessionStateSynced, SessionStateSyncFailed},
	SessionStateSynced:     {SessionStateDraft},
	SessionStateSyncFailed: {SessionStateDraft, SessionStateSaving},
}

// EditSession 单条规则的编辑会话状态机
// draft → validating → saving → synced/sync_failed；
// sync_failed 允许直接回到 saving 以原载荷重试（全量替换可安全重放）。
type EditSession struct {
	state string
}

// NewEditSession 创建编辑会话，初始为 draft
func NewEditSession() *EditSession {
	return &EditSession{state: SessionStateDraft}
}

// State 返回当前状态
func (s *EditSession) State() string {
	return s.state
}

// Transition 迁移到目标状态，非法迁移返回 ErrSessionTransition
func (s *EditSession) Transition(to string) error {
	for _, allowed := range sessionTransitions[s.state] {
		if allowed == to {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrSessionTransition, s.state, to)
}
