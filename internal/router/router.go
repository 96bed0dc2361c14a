package router

import (
	"github.com/ashwinyue/kitbot/internal/handler"
	"github.com/ashwinyue/kitbot/internal/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Session 会话
	r.POST("/session", h.Chat.CreateSession)

	// Chat 聊天
	r.GET("/chat/:session_id", h.Chat.GetHistory)
	r.POST("/chat/:session_id", h.Chat.StreamChat)

	// Upload 文件上传（始终拒绝）
	r.POST("/upload/:session_id", h.Chat.Upload)

	return r
}
