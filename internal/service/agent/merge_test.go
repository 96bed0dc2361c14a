package agent

import (
	"testing"

	"github.com/cloudwego/eino/schema"
)

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestMergeAppendsMessagesInOrder(t *testing.T) {
	st := &State{}
	st.AppendUser("hello")

	Merge(st, &StepOutput{Messages: []*schema.Message{
		schema.AssistantMessage("hi there", nil),
	}})

	if len(st.Messages) != 2 {
		t.Fatalf("Messages count = %d, want 2", len(st.Messages))
	}
	if st.Messages[0].Role != schema.User || st.Messages[1].Role != schema.Assistant {
		t.Errorf("message order corrupted: %v, %v", st.Messages[0].Role, st.Messages[1].Role)
	}
}

func TestMergePromotesWelcomeMessage(t *testing.T) {
	st := &State{}

	Merge(st, &StepOutput{Messages: []*schema.Message{
		schema.AssistantMessage("welcome!", nil),
	}})

	if !st.WelcomeMessage {
		t.Error("WelcomeMessage = false, want true after first plain assistant message")
	}
}

func TestMergeDoesNotPromoteOnToolCallingAssistant(t *testing.T) {
	st := &State{}

	Merge(st, &StepOutput{Messages: []*schema.Message{
		schema.AssistantMessage("", []schema.ToolCall{
			toolCall("call-1", "document_knowledge", `{"query":"q"}`),
		}),
	}})

	if st.WelcomeMessage {
		t.Error("WelcomeMessage promoted on a tool-calling assistant message")
	}
}

func TestMergeWelcomeMessageIdempotent(t *testing.T) {
	st := &State{WelcomeMessage: true}

	Merge(st, &StepOutput{Messages: []*schema.Message{
		schema.AssistantMessage("again", nil),
	}})

	if !st.WelcomeMessage {
		t.Error("WelcomeMessage reset, must never transition back to false")
	}
}

func TestMergeAppliesLastError(t *testing.T) {
	st := &State{LastError: "old"}

	cleared := ""
	Merge(st, &StepOutput{LastError: &cleared})
	if st.LastError != "" {
		t.Errorf("LastError = %q, want cleared", st.LastError)
	}

	Merge(st, &StepOutput{StateUpdates: map[string]any{"last_error": "boom"}})
	if st.LastError != "boom" {
		t.Errorf("LastError = %q, want %q", st.LastError, "boom")
	}
}

func TestApplyStateUpdates(t *testing.T) {
	tests := []struct {
		name    string
		updates map[string]any
		check   func(t *testing.T, st *State)
	}{
		{
			name:    "knowledge flag set",
			updates: map[string]any{"knowledge_base_search_performed": true},
			check: func(t *testing.T, st *State) {
				if !st.KnowledgeBaseSearchPerformed {
					t.Error("KnowledgeBaseSearchPerformed = false, want true")
				}
			},
		},
		{
			name:    "knowledge flag never resets",
			updates: map[string]any{"knowledge_base_search_performed": false},
			check: func(t *testing.T, st *State) {
				if !st.KnowledgeBaseSearchPerformed {
					t.Error("KnowledgeBaseSearchPerformed reset by false update")
				}
			},
		},
		{
			name:    "unknown keys ignored",
			updates: map[string]any{"bogus_key": "value"},
			check:   func(t *testing.T, st *State) {},
		},
		{
			name:    "wrong types ignored",
			updates: map[string]any{"last_error": 42},
			check: func(t *testing.T, st *State) {
				if st.LastError != "" {
					t.Errorf("LastError = %q, want empty", st.LastError)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &State{}
			if tt.name == "knowledge flag never resets" {
				st.KnowledgeBaseSearchPerformed = true
			}
			ApplyStateUpdates(st, tt.updates)
			tt.check(t, st)
		})
	}
}

func TestParseToolResult(t *testing.T) {
	result := ParseToolResult(`{"success":true,"message":"ok","state_updates":{"knowledge_base_search_performed":true}}`)
	if result == nil {
		t.Fatal("ParseToolResult() = nil for valid JSON")
	}
	if !result.Success {
		t.Error("Success = false, want true")
	}
	if v, ok := result.StateUpdates["knowledge_base_search_performed"].(bool); !ok || !v {
		t.Error("state_updates not parsed")
	}

	if got := ParseToolResult("not json"); got != nil {
		t.Errorf("ParseToolResult() = %+v for invalid JSON, want nil", got)
	}
}

func TestCloneIsolatesMessages(t *testing.T) {
	st := &State{}
	st.AppendUser("one")

	dup := st.Clone()
	dup.AppendUser("two")

	if len(st.Messages) != 1 {
		t.Errorf("original Messages count = %d after mutating clone, want 1", len(st.Messages))
	}
	if len(dup.Messages) != 2 {
		t.Errorf("clone Messages count = %d, want 2", len(dup.Messages))
	}
}
