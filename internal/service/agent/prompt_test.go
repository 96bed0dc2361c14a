package agent

import (
	"strings"
	"testing"
)

func TestRenderSystemPromptEmptyState(t *testing.T) {
	// 状态天然是部分填充的，空状态也必须能渲染
	prompt := RenderSystemPrompt(&State{})

	if prompt == "" {
		t.Fatal("RenderSystemPrompt() returned empty prompt")
	}
	if !strings.Contains(prompt, `personalized_name="valued user"`) {
		t.Errorf("prompt missing personalized_name fallback:\n%s", prompt)
	}
	if !strings.Contains(prompt, "user_id=0") {
		t.Error("prompt missing user_id default")
	}
	if !strings.Contains(prompt, "welcome_message=false") {
		t.Error("prompt missing welcome_message default")
	}
	if !strings.Contains(prompt, `last_error=""`) {
		t.Error("prompt missing last_error default")
	}
}

func TestRenderSystemPromptNilState(t *testing.T) {
	prompt := RenderSystemPrompt(nil)
	if prompt == "" {
		t.Fatal("RenderSystemPrompt(nil) returned empty prompt")
	}
}

func TestRenderSystemPromptLeavesNoPlaceholders(t *testing.T) {
	placeholders := []string{
		"{init}", "{welcome_message}", "{personalized_name}", "{last_error}",
		"{knowledge_base_search_performed}", "{auth_token}", "{user_id}",
		"{company_id}", "{full_name}", "{first_name}", "{last_name}",
		"{email}", "{company_name}",
	}

	prompt := RenderSystemPrompt(&State{})
	for _, ph := range placeholders {
		if strings.Contains(prompt, ph) {
			t.Errorf("placeholder %s left unsubstituted", ph)
		}
	}
}

func TestRenderSystemPromptSubstitution(t *testing.T) {
	st := &State{
		Init:                         true,
		WelcomeMessage:               true,
		LastError:                    "previous failure",
		AuthToken:                    "tok-123",
		UserID:                       7,
		CompanyID:                    42,
		Email:                        "jo@example.com",
		FirstName:                    "Jo",
		LastName:                     "Doe",
		FullName:                     "Jo Doe",
		CompanyName:                  "Acme",
		KnowledgeBaseSearchPerformed: true,
	}

	prompt := RenderSystemPrompt(st)

	for _, want := range []string{
		"init=true",
		"welcome_message=true",
		`personalized_name="Acme"`,
		`last_error="previous failure"`,
		`auth_token="tok-123"`,
		"user_id=7",
		"company_id=42",
		`email="jo@example.com"`,
		`company_name="Acme"`,
		"knowledge_base_search_performed=true",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRenderSystemPromptPersonalizedNameFallback(t *testing.T) {
	tests := []struct {
		name string
		st   *State
		want string
	}{
		{
			name: "company name preferred",
			st:   &State{CompanyName: "Acme", FullName: "Jo Doe"},
			want: `personalized_name="Acme"`,
		},
		{
			name: "full name when company missing",
			st:   &State{FullName: "Jo Doe"},
			want: `personalized_name="Jo Doe"`,
		},
		{
			name: "valued user when both missing",
			st:   &State{Email: "jo@example.com"},
			want: `personalized_name="valued user"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := RenderSystemPrompt(tt.st)
			if !strings.Contains(prompt, tt.want) {
				t.Errorf("prompt missing %q", tt.want)
			}
		})
	}
}
