package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// phase 轮次状态机的阶段
type phase int

const (
	phaseAwaitingModel phase = iota
	phaseModelResponded
	phaseDispatchingTool
	phaseToolResponded
	phaseTerminated
)

// EmitFunc 流式回调
// 每当状态机落地一条内容非空的助手消息时触发一次
type EmitFunc func(content string)

// Executor 轮次执行器
// 一次 Run 对应一个完整轮次：从新的用户消息开始，在模型调用与工具分发之间
// 循环，直到模型给出不含工具调用的最终回答。步骤严格串行，互不并行。
type Executor struct {
	chatModel model.ToolCallingChatModel
	tool      tool.InvokableTool
	toolName  string
	maxSteps  int
}

// NewExecutor 创建轮次执行器
// chatModel 在此绑定检索工具的 schema；maxSteps 限制单轮内的模型调用次数，
// 防止模型无休止地请求工具
func NewExecutor(ctx context.Context, chatModel model.ToolCallingChatModel, knowledgeTool tool.InvokableTool, maxSteps int) (*Executor, error) {
	info, err := knowledgeTool.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool info: %w", err)
	}

	bound, err := chatModel.WithTools([]*schema.ToolInfo{info})
	if err != nil {
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}

	if maxSteps <= 0 {
		maxSteps = 10
	}

	return &Executor{
		chatModel: bound,
		tool:      knowledgeTool,
		toolName:  info.Name,
		maxSteps:  maxSteps,
	}, nil
}

// Run 执行一个轮次
// st 为工作副本，调用方在成功后写回会话存储。返回非 nil 错误表示轮次级
// 失败（如模型请求了未注册的工具），调用方走回滚路径；模型调用失败与
// 工具后端失败都降级为数据，不作为错误返回。
func (e *Executor) Run(ctx context.Context, st *State, emit EmitFunc) error {
	var pending *schema.Message
	modelCalls := 0
	ph := phaseAwaitingModel

	for ph != phaseTerminated {
		switch ph {
		case phaseAwaitingModel:
			if modelCalls >= e.maxSteps {
				e.terminateWithError(st, emit, fmt.Sprintf("Agent stopped after reaching the step limit of %d model calls.", e.maxSteps))
				ph = phaseTerminated
				continue
			}
			modelCalls++

			msg, err := e.invokeModel(ctx, st)
			if err != nil {
				// 模型调用失败对本轮是终态：合成可见的错误消息，不自动重试
				e.terminateWithError(st, emit, fmt.Sprintf("LLM generation failed: %v", err))
				ph = phaseTerminated
				continue
			}

			cleared := ""
			Merge(st, &StepOutput{
				Messages:  []*schema.Message{msg},
				LastError: &cleared,
			})
			pending = msg
			ph = phaseModelResponded

		case phaseModelResponded:
			emitAssistant(pending, emit)
			if len(pending.ToolCalls) == 0 {
				ph = phaseTerminated
				continue
			}
			ph = phaseDispatchingTool

		case phaseDispatchingTool:
			if err := e.dispatchTools(ctx, st, pending); err != nil {
				return err
			}
			ph = phaseToolResponded

		case phaseToolResponded:
			// 工具结果永远交回模型解读，绝不在工具响应后直接终止
			ph = phaseAwaitingModel
		}
	}

	return nil
}

// invokeModel 渲染系统提示并调用模型
func (e *Executor) invokeModel(ctx context.Context, st *State) (*schema.Message, error) {
	messages := make([]*schema.Message, 0, len(st.Messages)+1)
	messages = append(messages, schema.SystemMessage(RenderSystemPrompt(st)))
	messages = append(messages, st.Messages...)

	return e.chatModel.Generate(ctx, messages)
}

// dispatchTools 执行助手消息携带的工具调用
// 每个工具调用恰好产生一条回链 tool_call_id 的工具消息；状态增量立即合并
func (e *Executor) dispatchTools(ctx context.Context, st *State, assistant *schema.Message) error {
	for _, tc := range assistant.ToolCalls {
		if tc.Function.Name != e.toolName {
			return fmt.Errorf("model requested unknown tool %q", tc.Function.Name)
		}

		args := e.injectCredentials(st, tc.Function.Arguments)

		content, err := e.tool.InvokableRun(ctx, args)
		if err != nil {
			// 工具执行异常降级为错误结果，轮次继续
			raw, _ := json.Marshal(NewErrorResult(err.Error(), 0))
			content = string(raw)
		}

		out := &StepOutput{
			Messages: []*schema.Message{
				schema.ToolMessage(content, tc.ID, schema.WithToolName(tc.Function.Name)),
			},
		}
		if result := ParseToolResult(content); result != nil {
			out.StateUpdates = result.StateUpdates
		}
		Merge(st, out)
	}

	return nil
}

// injectCredentials 向工具参数注入会话凭证
// 模型生成的参数不可信，auth_token / company_id 缺失时由会话状态补齐
func (e *Executor) injectCredentials(st *State, rawArgs string) string {
	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			args = map[string]any{}
		}
	}

	if v, ok := args["auth_token"].(string); !ok || v == "" {
		args["auth_token"] = st.AuthToken
	}
	if v, ok := args["company_id"].(float64); !ok || v == 0 {
		args["company_id"] = st.CompanyID
	}

	merged, err := json.Marshal(args)
	if err != nil {
		return rawArgs
	}
	return string(merged)
}

// terminateWithError 以合成的助手错误消息终止本轮
func (e *Executor) terminateWithError(st *State, emit EmitFunc, errMsg string) {
	Merge(st, &StepOutput{
		Messages:  []*schema.Message{schema.AssistantMessage(errMsg, nil)},
		LastError: &errMsg,
	})
	emitAssistant(st.LastMessage(), emit)
}

// emitAssistant 推送内容非空的助手消息
func emitAssistant(msg *schema.Message, emit EmitFunc) {
	if emit == nil || msg == nil {
		return
	}
	if msg.Role == schema.Assistant && msg.Content != "" {
		emit(msg.Content)
	}
}
