package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ashwinyue/kitbot/internal/service"
	"github.com/ashwinyue/kitbot/internal/service/agent"
	"github.com/ashwinyue/kitbot/internal/service/session"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	AuthToken   string `json:"auth_token" binding:"required"`
	UserID      int    `json:"user_id" binding:"required"`
	Email       string `json:"email" binding:"required"`
	FullName    string `json:"full_name"`
	CompanyID   int    `json:"company_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
}

// CreateSessionResponse 创建会话响应
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// MessageView 面向终端用户的消息视图
type MessageView struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateSession 创建会话
// 只登记身份记录，会话状态在首条聊天消息时才物化
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	sessionID := h.svc.SessionMgr.Create(&session.Identity{
		AuthToken:   req.AuthToken,
		UserID:      req.UserID,
		Email:       req.Email,
		FullName:    req.FullName,
		CompanyID:   req.CompanyID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
	})

	c.JSON(http.StatusOK, CreateSessionResponse{SessionID: sessionID})
}

// GetHistory 获取会话历史
// 工具消息和携带工具调用的助手消息不属于终端用户视图，过滤后返回
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	st, err := h.svc.SessionMgr.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			notFound(c, "Session not found")
			return
		}
		internalError(c, err)
		return
	}

	views := make([]MessageView, 0, len(st.Messages))
	for _, msg := range st.Messages {
		if msg.Role == schema.Tool {
			continue
		}
		if msg.Role == schema.Assistant && len(msg.ToolCalls) > 0 {
			continue
		}
		views = append(views, MessageView{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": views,
		"state":    st,
	})
}

// StreamChat 处理用户消息并流式返回回答
// NDJSON 事件流：零或多条 stream 事件，随后恰好一条 status=complete，
// 失败时一条 error 事件并回滚本轮追加的用户消息
func (h *ChatHandler) StreamChat(c *gin.Context) {
	sessionID := c.Param("session_id")

	userInput := c.Query("user_input")
	if userInput == "" {
		badRequest(c, "user_input is required")
		return
	}

	ctx := c.Request.Context()
	mgr := h.svc.SessionMgr

	if !mgr.Exists(ctx, sessionID) {
		notFound(c, "Session not found. Please create a new session.")
		return
	}

	// 同一会话的轮次串行执行，避免消息交错追加
	unlock := mgr.LockTurn(sessionID)
	defer unlock()

	base, err := mgr.StateForTurn(ctx, sessionID)
	if err != nil {
		notFound(c, "Session not found. Please create a new session.")
		return
	}

	work := base.Clone()
	work.AppendUser(userInput)

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)
	stream := agent.NewStream(c.Writer)

	if err := h.svc.Executor.Run(ctx, work, func(content string) {
		_ = stream.Content(content)
	}); err != nil {
		// 回滚：丢弃本轮的用户消息，改写为可见的助手错误消息，
		// 避免残留无应答的用户消息阻塞下一轮的提示连贯性
		errMsg := fmt.Sprintf("An error occurred during processing: %v", err)
		base.Messages = append(base.Messages, schema.AssistantMessage(errMsg, nil))
		base.LastError = errMsg
		mgr.Replace(ctx, sessionID, base)

		_ = stream.Error(errMsg)
		return
	}

	mgr.Replace(ctx, sessionID, work)
	_ = stream.Complete()
}

// Upload 文件上传
// 精简内核不包含文件处理能力，始终拒绝
func (h *ChatHandler) Upload(c *gin.Context) {
	badRequest(c, "File upload is not supported in this starter kit.")
}
