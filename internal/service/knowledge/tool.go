package knowledge

import (
	"context"
	"encoding/json"

	"github.com/ashwinyue/kitbot/internal/service/agent"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// ToolName 检索工具名，模型请求的工具调用必须命中它
const ToolName = "document_knowledge"

// SearchTool document_knowledge 工具
// 把检索客户端包装成 eino InvokableTool，输出为 ToolResult 的 JSON，
// 工具层的失败一律编码为错误结果，不向执行器抛 error
type SearchTool struct {
	client *Client
}

// NewSearchTool 创建检索工具
func NewSearchTool(client *Client) *SearchTool {
	return &SearchTool{client: client}
}

// searchArgs 工具调用参数
// auth_token / company_id 由执行器从会话状态注入，不信任模型生成的取值
type searchArgs struct {
	Query     string `json:"query"`
	AuthToken string `json:"auth_token"`
	CompanyID int    `json:"company_id"`
}

// Info 返回工具 schema
func (t *SearchTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolName,
		Desc: "Performs a semantic search on the private knowledge base to answer user questions. " +
			"Only use this tool when the answer is not available in the current state.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "A concise, high-quality search query to retrieve relevant documents",
				Required: true,
			},
			"auth_token": {
				Type: schema.String,
				Desc: "The user's authentication token",
			},
			"company_id": {
				Type: schema.Integer,
				Desc: "The user's company ID",
			},
		}),
	}, nil
}

// InvokableRun 执行检索
func (t *SearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args searchArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return marshalResult(agent.NewErrorResult("invalid tool arguments: "+err.Error(), 400)), nil
	}

	result := t.client.Search(ctx, args.Query, args.AuthToken, args.CompanyID)
	return marshalResult(result), nil
}

func marshalResult(result *agent.ToolResult) string {
	raw, err := json.Marshal(result)
	if err != nil {
		return `{"success":false,"message":"Operation failed: could not encode tool result","error":"could not encode tool result"}`
	}
	return string(raw)
}
