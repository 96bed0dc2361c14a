package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashwinyue/kitbot/internal/service/agent"
)

func TestSearchToolInfo(t *testing.T) {
	st := NewSearchTool(NewClient("", 0))

	info, err := st.Info(context.Background())
	if err != nil {
		t.Fatalf("Info() error: %v", err)
	}
	if info.Name != "document_knowledge" {
		t.Errorf("Name = %q, want document_knowledge", info.Name)
	}
	if info.Desc == "" {
		t.Error("Desc is empty")
	}
	if info.ParamsOneOf == nil {
		t.Fatal("ParamsOneOf is nil")
	}
}

func TestSearchToolRunProducesToolResultJSON(t *testing.T) {
	var gotCompanyID, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCompanyID = r.URL.Query().Get("companyId")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":[{"content":"the answer"}]}`))
	}))
	defer ts.Close()

	st := NewSearchTool(NewClient(ts.URL, 5*time.Second))
	out, err := st.InvokableRun(context.Background(), `{"query":"q","auth_token":"tok-abc","company_id":42}`)
	if err != nil {
		t.Fatalf("InvokableRun() error: %v", err)
	}

	var result agent.ToolResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not a ToolResult: %v", err)
	}
	if !result.Success {
		t.Fatalf("result failed: %s", result.Error)
	}
	if result.Data["knowledge_context"] != "the answer" {
		t.Errorf("knowledge_context = %v", result.Data["knowledge_context"])
	}

	if gotCompanyID != "42" {
		t.Errorf("companyId param = %q, want 42", gotCompanyID)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestSearchToolRunInvalidArguments(t *testing.T) {
	st := NewSearchTool(NewClient("http://example.invalid", 0))

	out, err := st.InvokableRun(context.Background(), `{not json`)
	if err != nil {
		t.Fatalf("InvokableRun() error: %v, want degraded result", err)
	}

	var result agent.ToolResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not a ToolResult: %v", err)
	}
	if result.Success {
		t.Error("result succeeded on invalid arguments")
	}
	if result.StatusCode != 400 {
		t.Errorf("StatusCode = %d, want 400", result.StatusCode)
	}
}

func TestSearchToolRunBackendErrorStaysInResult(t *testing.T) {
	// 后端失败一律编码进结果 JSON，不作为 Go error 抛出
	st := NewSearchTool(NewClient("", 0))

	out, err := st.InvokableRun(context.Background(), `{"query":"q"}`)
	if err != nil {
		t.Fatalf("InvokableRun() error: %v", err)
	}

	var result agent.ToolResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not a ToolResult: %v", err)
	}
	if result.Success {
		t.Error("result succeeded without a configured backend")
	}
	if result.Error != "Knowledge base URL is not configured. Check environment variables." {
		t.Errorf("Error = %q", result.Error)
	}
}
