// Package agent 实现对话 Agent 的核心循环：
// 渲染系统提示 → 调用 LLM → 按需分发检索工具 → 合并状态 → 循环直到产生最终回答。
package agent

import (
	"github.com/cloudwego/eino/schema"
)

// State 会话状态
// 字段均为可缺省字段，缺省值的解析集中在 prompt 渲染层
type State struct {
	// 对话历史，只追加；仅错误回滚路径可截断末尾的用户消息
	Messages []*schema.Message `json:"messages"`

	// 最近一次暴露给会话的错误，空串表示无错误
	LastError string `json:"last_error"`

	// 会话身份与凭证，创建时写入后不再变更
	AuthToken string `json:"auth_token"`
	UserID    int    `json:"user_id"`
	CompanyID int    `json:"company_id"`

	// Init 会话是否已完成初始化
	Init bool `json:"init"`
	// WelcomeMessage 首条非工具调用的助手消息产生后置为 true，此后不再复位
	WelcomeMessage bool `json:"welcome_message"`

	// 用户画像，仅用于 prompt 渲染
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`

	// KnowledgeBaseSearchPerformed 本会话内检索工具首次成功后置为 true，不复位
	KnowledgeBaseSearchPerformed bool `json:"knowledge_base_search_performed"`
}

// Clone 深拷贝状态
// 轮次执行在副本上进行，成功后才写回会话存储，保证失败的轮次不污染历史
func (s *State) Clone() *State {
	dup := *s
	dup.Messages = make([]*schema.Message, len(s.Messages))
	copy(dup.Messages, s.Messages)
	return &dup
}

// AppendUser 追加一条用户消息
func (s *State) AppendUser(content string) {
	s.Messages = append(s.Messages, schema.UserMessage(content))
}

// LastMessage 返回最后一条消息，历史为空时返回 nil
func (s *State) LastMessage() *schema.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}
