package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ashwinyue/kitbot/internal/config"
	"github.com/ashwinyue/kitbot/internal/service/agent"
	"github.com/ashwinyue/kitbot/internal/service/knowledge"
	"github.com/ashwinyue/kitbot/internal/service/session"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"
)

// Services 服务集合
type Services struct {
	Config     *config.Config
	SessionMgr *session.Manager
	Knowledge  *knowledge.Client
	Executor   *agent.Executor
}

// NewServices 创建所有服务
func NewServices(cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewServicesWithModel(cfg, redisClient, chatModel)
}

// NewServicesWithModel 使用注入的 ChatModel 创建服务集合
// 测试通过脚本化的 ChatModel 驱动完整的轮次执行
func NewServicesWithModel(cfg *config.Config, redisClient *redis.Client, chatModel model.ToolCallingChatModel) (*Services, error) {
	ctx := context.Background()

	sessionMgr := session.NewManager(redisClient)

	knowledgeClient := knowledge.NewClient(
		cfg.Knowledge.BaseURL,
		time.Duration(cfg.Knowledge.Timeout)*time.Second,
	)
	searchTool := knowledge.NewSearchTool(knowledgeClient)

	executor, err := agent.NewExecutor(ctx, chatModel, searchTool, cfg.Agent.MaxSteps)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	return &Services{
		Config:     cfg,
		SessionMgr: sessionMgr,
		Knowledge:  knowledgeClient,
		Executor:   executor,
	}, nil
}

// newChatModel 创建支持工具调用的 ChatModel
func newChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai api_key is required")
	}

	maxTokens := cfg.Agent.MaxTokens

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:    cfg.OpenAI.APIKey,
		BaseURL:   cfg.OpenAI.BaseURL,
		Model:     cfg.Agent.Model,
		MaxTokens: &maxTokens,
		Timeout:   time.Duration(cfg.Agent.Timeout) * time.Second,
	})
}
