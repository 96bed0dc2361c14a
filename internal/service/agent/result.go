package agent

import "fmt"

// ToolResult 工具调用结果
// 不直接持久化；StateUpdates 合并进会话状态，整体 JSON 作为工具消息内容供模型解读
type ToolResult struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	Data         map[string]any `json:"data,omitempty"`
	Error        string         `json:"error,omitempty"`
	StatusCode   int            `json:"status_code,omitempty"`
	StateUpdates map[string]any `json:"state_updates,omitempty"`
}

// NewSuccessResult 构造成功的工具结果
func NewSuccessResult(data map[string]any, stateUpdates map[string]any, message string) *ToolResult {
	return &ToolResult{
		Success:      true,
		Message:      message,
		Data:         data,
		StateUpdates: stateUpdates,
	}
}

// NewErrorResult 构造失败的工具结果
// last_error 随状态更新带回会话，模型在下一步能看到失败原因并做出对话式回应
func NewErrorResult(errorMessage string, statusCode int) *ToolResult {
	return &ToolResult{
		Success:      false,
		Message:      fmt.Sprintf("Operation failed: %s", errorMessage),
		Error:        errorMessage,
		StatusCode:   statusCode,
		StateUpdates: map[string]any{"last_error": errorMessage},
	}
}
