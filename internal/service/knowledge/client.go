// Package knowledge 封装外部知识库检索后端
// 统一产出 agent.ToolResult：后端失败降级为带错误的结果，而不是抛给调用方
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ashwinyue/kitbot/internal/service/agent"
)

// snippetSeparator 文档片段拼接分隔符
const snippetSeparator = "\n---\n"

// Client 知识库检索客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建检索客户端
// baseURL 为空表示后端未配置，Search 将直接失败闭合
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTPClient 使用自定义 http.Client 创建检索客户端
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// searchResponse 检索后端响应体
type searchResponse struct {
	Data []searchDocument `json:"data"`
}

// searchDocument 检索返回的单个文档
type searchDocument struct {
	Content string `json:"content"`
}

// Search 对私有知识库执行语义检索
// 成功时把非空片段用分隔符拼接为 knowledge_context，并在状态增量中标记
// knowledge_base_search_performed；所有失败路径都返回错误结果而非 error
func (c *Client) Search(ctx context.Context, query, authToken string, companyID int) *agent.ToolResult {
	if c.baseURL == "" {
		return agent.NewErrorResult("Knowledge base URL is not configured. Check environment variables.", 400)
	}

	endpoint := fmt.Sprintf("%s/knowledge/search?companyId=%d&query=%s",
		c.baseURL, companyID, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return agent.NewErrorResult(fmt.Sprintf("Request Error: failed to build request: %v", err), 0)
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 超时、连接失败等网络级错误，状态码置 0
		return agent.NewErrorResult(fmt.Sprintf("Request Error: Could not connect to API or request timed out: %T", err), 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return agent.NewErrorResult(fmt.Sprintf("Request Error: failed to read response body: %v", err), 0)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return agent.NewErrorResult(extractErrorMessage(resp.StatusCode, body), resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return agent.NewErrorResult(
			fmt.Sprintf("API call successful but response is not valid JSON. Status: %d", resp.StatusCode),
			resp.StatusCode)
	}

	context := concatSnippets(parsed.Data)

	return agent.NewSuccessResult(
		map[string]any{"knowledge_context": context},
		map[string]any{"knowledge_base_search_performed": true},
		"Knowledge search complete.",
	)
}

// extractErrorMessage 从错误响应体提取人类可读的消息
// 优先取 JSON 的 message / error 字段，否则回落到状态行描述
func extractErrorMessage(statusCode int, body []byte) string {
	var errBody struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil {
		if errBody.Message != "" {
			return errBody.Message
		}
		if errBody.Error != "" {
			return errBody.Error
		}
		return fmt.Sprintf("HTTP Error: %d", statusCode)
	}

	text := string(body)
	if len(text) > 100 {
		text = text[:100]
	}
	return fmt.Sprintf("HTTP Error: %d - %s", statusCode, text)
}

// concatSnippets 拼接非空文档内容
func concatSnippets(docs []searchDocument) string {
	joined := ""
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		if joined != "" {
			joined += snippetSeparator
		}
		joined += doc.Content
	}
	return joined
}
