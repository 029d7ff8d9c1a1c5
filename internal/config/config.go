package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// KnownModels 是远端推理服务支持的模型白名单。
var KnownModels = []string{
	"qwen-3-32b",
	"qwen-3-235b-a22b-instruct-2507",
	"qwen-3-coder-480b",
	"llama-4-scout-17b-16e-instruct",
	"qwen-3-235b-a22b-thinking-2507",
	"llama-3.3-70b",
	"llama3.1-8b",
	"gpt-oss-120b",
}

const (
	DefaultModel   = "gpt-oss-120b"
	DefaultBaseURL = "https://api.cerebras.ai/v1"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	CORS      CORSConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	telemetry, err := loadTelemetryConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Log:       logCfg,
		Telemetry: telemetry,
		CORS:      loadCORSConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述远端对话补全服务的配置。
type AIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// HasCredential 表示是否提供了密钥。缺失时不做本地拦截，请求会在远端鉴权失败。
func (c AIConfig) HasCredential() bool {
	return c.APIKey != ""
}

// NewChatModel 使用配置创建一个 OpenAI 兼容协议的模型实例。
// 密钥为空时照常发出不带 Authorization 的请求，由远端返回鉴权错误。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Model == "" {
		return nil, fmt.Errorf("model name is not configured")
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   c.Model,
		Timeout: c.Timeout,
	})
}

func loadAIConfig() (AIConfig, error) {
	modelName := getEnvOrDefault("LLM_MODEL", DefaultModel)
	if !slices.Contains(KnownModels, modelName) {
		return AIConfig{}, fmt.Errorf("invalid LLM_MODEL value %q: must be one of %s", modelName, strings.Join(KnownModels, ", "))
	}

	timeout, err := parseOptionalIntEnv("LLM_TIMEOUT_SECONDS")
	if err != nil {
		return AIConfig{}, err
	}
	timeoutSeconds := 120
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	apiKey := strings.TrimSpace(os.Getenv("CEREBRAS_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	return AIConfig{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: getEnvOrDefault("LLM_BASE_URL", DefaultBaseURL),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// LogConfig 控制结构化日志的级别与落盘轮转。
type LogConfig struct {
	Level      slog.Level
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func loadLogConfig() (LogConfig, error) {
	var level slog.Level
	if raw := getEnvOrDefault("LOG_LEVEL", "info"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
		}
	}

	maxSize, err := parseIntEnvOrDefault("LOG_MAX_SIZE_MB", 10)
	if err != nil {
		return LogConfig{}, err
	}
	maxBackups, err := parseIntEnvOrDefault("LOG_MAX_BACKUPS", 3)
	if err != nil {
		return LogConfig{}, err
	}
	maxAge, err := parseIntEnvOrDefault("LOG_MAX_AGE_DAYS", 28)
	if err != nil {
		return LogConfig{}, err
	}
	compress, err := parseBoolEnv("LOG_COMPRESS", true)
	if err != nil {
		return LogConfig{}, err
	}

	return LogConfig{
		Level:      level,
		File:       strings.TrimSpace(os.Getenv("LOG_FILE")),
		MaxSizeMB:  maxSize,
		MaxBackups: maxBackups,
		MaxAgeDays: maxAge,
		Compress:   compress,
	}, nil
}

// TelemetryConfig 控制 OpenTelemetry 链路与指标导出。
type TelemetryConfig struct {
	Enabled        bool
	Dir            string
	ServiceName    string
	MetricInterval time.Duration
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	enabled, err := parseBoolEnv("TELEMETRY_ENABLED", false)
	if err != nil {
		return TelemetryConfig{}, err
	}

	interval, err := parseIntEnvOrDefault("TELEMETRY_METRIC_INTERVAL_SECONDS", 10)
	if err != nil {
		return TelemetryConfig{}, err
	}
	if interval < 1 {
		interval = 1
	}

	return TelemetryConfig{
		Enabled:        enabled,
		Dir:            getEnvOrDefault("TELEMETRY_DIR", "logs"),
		ServiceName:    getEnvOrDefault("TELEMETRY_SERVICE_NAME", "polyglot-coach"),
		MetricInterval: time.Duration(interval) * time.Second,
	}, nil
}

// CORSConfig 列出允许跨域访问的来源。
type CORSConfig struct {
	AllowedOrigins []string
}

func loadCORSConfig() CORSConfig {
	raw := getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")

	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return CORSConfig{AllowedOrigins: origins}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseIntEnvOrDefault(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}
