package server

import "context"

// Server 由 app.App 统一启停. Start 阻塞直到服务退出，ctx 取消属于正常退出；
// Stop 在 ctx 截止前等待在途请求结束.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
