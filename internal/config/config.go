package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Agent     AgentConfig
	OpenAI    OpenAIConfig
	Knowledge KnowledgeConfig
	Redis     RedisConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// AgentConfig Agent 配置
// model / max_tokens / timeout 在 Load 时校验，配置错误必须在任何网络调用前暴露
type AgentConfig struct {
	Model     string
	MaxTokens int
	Timeout   int // LLM 调用超时（秒）
	MaxSteps  int // 单轮对话内 模型↔工具 循环上限
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// KnowledgeConfig 知识库检索后端配置
// BaseURL 为空时检索工具直接失败闭合，不发起网络调用
type KnowledgeConfig struct {
	BaseURL string
	Timeout int // HTTP 请求超时（秒）
}

// RedisConfig Redis 配置（可选的会话镜像）
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// supportedModels 支持的模型白名单
var supportedModels = []string{"gpt-4o", "gpt-4", "gpt-3.5-turbo"}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		setDefaults(v)
	}

	// 环境变量
	v.SetEnvPrefix("KITBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyFallbacks(&cfg)

	if err := cfg.Agent.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// Validate 校验 Agent 配置
func (c *AgentConfig) Validate() error {
	supported := false
	for _, m := range supportedModels {
		if c.Model == m {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("model must be one of %v, got %q", supportedModels, c.Model)
	}

	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be at least 1")
	}
	if c.MaxTokens > 4000 {
		return fmt.Errorf("max_tokens cannot exceed 4000")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive")
	}
	return nil
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// applyFallbacks 为缺失字段补默认值
// 配置文件可能只覆盖部分 section，零值字段回落到与 setDefaults 一致的默认
func applyFallbacks(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "kitbot"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8300
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = "gpt-4o"
	}
	if cfg.Agent.MaxTokens == 0 {
		cfg.Agent.MaxTokens = 1500
	}
	if cfg.Agent.Timeout == 0 {
		cfg.Agent.Timeout = 45
	}
	if cfg.Agent.MaxSteps == 0 {
		cfg.Agent.MaxSteps = 10
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Knowledge.Timeout == 0 {
		cfg.Knowledge.Timeout = 60
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "kitbot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", false)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8300)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 120)

	// Agent
	v.SetDefault("agent.model", "gpt-4o")
	v.SetDefault("agent.maxTokens", 1500)
	v.SetDefault("agent.timeout", 45)
	v.SetDefault("agent.maxSteps", 10)

	// OpenAI
	v.SetDefault("openai.baseUrl", "https://api.openai.com/v1")

	// Knowledge
	v.SetDefault("knowledge.baseUrl", "")
	v.SetDefault("knowledge.timeout", 60)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
}
