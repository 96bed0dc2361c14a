package agent

import (
	"encoding/json"

	"github.com/cloudwego/eino/schema"
)

// StepOutput 一次状态机步骤的产出
type StepOutput struct {
	// Messages 本步骤新增的消息
	Messages []*schema.Message
	// StateUpdates 工具步骤带回的状态增量
	StateUpdates map[string]any
	// LastError 本步骤要写入的错误，nil 表示不变更
	LastError *string
}

// Merge 将步骤产出合并进会话状态
// 只追加消息，不重排不删除；工具状态增量逐键应用
func Merge(st *State, out *StepOutput) {
	if out == nil {
		return
	}

	st.Messages = append(st.Messages, out.Messages...)

	if out.LastError != nil {
		st.LastError = *out.LastError
	}

	ApplyStateUpdates(st, out.StateUpdates)

	// 首条非工具调用的助手消息落地后，晋升 welcome_message，且只晋升一次
	if !st.WelcomeMessage {
		if last := st.LastMessage(); last != nil &&
			last.Role == schema.Assistant && len(last.ToolCalls) == 0 {
			st.WelcomeMessage = true
		}
	}
}

// ApplyStateUpdates 将工具返回的 state_updates 映射应用到状态
// 只接受已知键，未知键忽略
func ApplyStateUpdates(st *State, updates map[string]any) {
	for key, val := range updates {
		switch key {
		case "last_error":
			if s, ok := val.(string); ok {
				st.LastError = s
			}
		case "knowledge_base_search_performed":
			if b, ok := val.(bool); ok && b {
				st.KnowledgeBaseSearchPerformed = true
			}
		case "welcome_message":
			if b, ok := val.(bool); ok && b {
				st.WelcomeMessage = true
			}
		}
	}
}

// ParseToolResult 解析工具消息内容中的 ToolResult
// 工具输出不是合法 JSON 时返回 nil，调用方按无状态增量处理
func ParseToolResult(content string) *ToolResult {
	var result ToolResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil
	}
	return &result
}
