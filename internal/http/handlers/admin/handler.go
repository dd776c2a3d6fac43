package admin

import "github.com/fenxiao-next/internal/provider"

// Handler 商家控制台接口处理器入口
// 说明：该处理器仅用于控制台管理端 API。
type Handler struct {
	*provider.Container
}

// New 创建控制台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
