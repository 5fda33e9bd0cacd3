package public

import "github.com/betteragri-next/internal/provider"

// Handler 用户侧接口处理器入口
// 说明：该处理器用于买家与农户侧 API。
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
