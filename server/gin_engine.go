package server

import (
	"github.com/gin-gonic/gin"
)

// NewDefaultGinEngine 创建一个新的 Gin 引擎实例。
// 由调用方负责决定中间件顺序与集合，release 为 true 时关闭 gin 的调试输出。
func NewDefaultGinEngine(release bool, middlewares ...gin.HandlerFunc) *gin.Engine {
	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(middlewares...)

	return engine
}
