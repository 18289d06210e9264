package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Call    CallConfig
	Alert   AlertConfig
	History HistoryConfig
	AI      AIConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	call, err := loadCallConfig()
	if err != nil {
		return nil, err
	}

	alert, err := loadAlertConfig()
	if err != nil {
		return nil, err
	}

	history, err := loadHistoryConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Log:     loadLogConfig(),
		Call:    call,
		Alert:   alert,
		History: history,
		AI:      ai,
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

// LogConfig 描述日志输出。
type LogConfig struct {
	Env   string
	Level string
}

// IsDevelopment 表示是否输出便于阅读的控制台日志。
func (c LogConfig) IsDevelopment() bool {
	return c.Env == "development"
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Env:   getEnvOrDefault("ENV", "development"),
		Level: getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// CallConfig 描述通话引擎的默认值与时间参数。
type CallConfig struct {
	AIName          string
	CodeWord        string
	TickInterval    time.Duration
	DistressDelay   time.Duration
	ThinkingMin     time.Duration
	ThinkingMax     time.Duration
	MinSpeaking     time.Duration
	SpeakingPerChar time.Duration
}

func loadCallConfig() (CallConfig, error) {
	cfg := CallConfig{
		AIName:   getEnvOrDefault("CALL_AI_NAME", "Alex"),
		CodeWord: getEnvOrDefault("CALL_CODE_WORD", "pineapple"),
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"CALL_TICK_INTERVAL", time.Second, &cfg.TickInterval},
		{"CALL_DISTRESS_DELAY", 1500 * time.Millisecond, &cfg.DistressDelay},
		{"CALL_THINKING_MIN", 800 * time.Millisecond, &cfg.ThinkingMin},
		{"CALL_THINKING_MAX", 1500 * time.Millisecond, &cfg.ThinkingMax},
		{"CALL_MIN_SPEAKING", 2 * time.Second, &cfg.MinSpeaking},
		{"CALL_SPEAKING_PER_CHAR", 50 * time.Millisecond, &cfg.SpeakingPerChar},
	}
	for _, d := range durations {
		val, err := parseDurationEnv(d.key, d.def)
		if err != nil {
			return CallConfig{}, err
		}
		*d.dest = val
	}

	if cfg.ThinkingMax <= cfg.ThinkingMin {
		return CallConfig{}, fmt.Errorf("CALL_THINKING_MAX (%s) must be greater than CALL_THINKING_MIN (%s)", cfg.ThinkingMax, cfg.ThinkingMin)
	}
	if cfg.TickInterval <= 0 {
		return CallConfig{}, fmt.Errorf("CALL_TICK_INTERVAL must be positive")
	}
	return cfg, nil
}

// AlertConfig 描述告警通知的投递目标。
type AlertConfig struct {
	MockLocation string
	AMQPURL      string
	AMQPQueue    string
	AMQPBuffer   int
}

// AMQPEnabled 表示是否把通知发布到 RabbitMQ。
func (c AlertConfig) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func loadAlertConfig() (AlertConfig, error) {
	buffer := 64
	if override, err := parseOptionalIntEnv("ALERT_AMQP_BUFFER"); err != nil {
		return AlertConfig{}, err
	} else if override != nil && *override > 0 {
		buffer = *override
	}

	return AlertConfig{
		MockLocation: getEnvOrDefault("ALERT_MOCK_LOCATION", "123 Main St, New York, NY 10001"),
		AMQPURL:      strings.TrimSpace(os.Getenv("ALERT_AMQP_URL")),
		AMQPQueue:    getEnvOrDefault("ALERT_AMQP_QUEUE", "guardian.alerts"),
		AMQPBuffer:   buffer,
	}, nil
}

// HistoryConfig 选择通话历史的存储后端。
type HistoryConfig struct {
	Backend    string
	SQLitePath string
	RedisURL   string
	RedisKey   string
	MaxEntries int
}

func loadHistoryConfig() (HistoryConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("HISTORY_BACKEND", "memory"))
	switch backend {
	case "memory", "sqlite", "redis":
	default:
		return HistoryConfig{}, fmt.Errorf("invalid HISTORY_BACKEND value %q", backend)
	}

	maxEntries := 500
	if override, err := parseOptionalIntEnv("HISTORY_MAX_ENTRIES"); err != nil {
		return HistoryConfig{}, err
	} else if override != nil && *override > 0 {
		maxEntries = *override
	}

	cfg := HistoryConfig{
		Backend:    backend,
		SQLitePath: getEnvOrDefault("HISTORY_SQLITE_PATH", "data/history.db"),
		RedisURL:   strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisKey:   getEnvOrDefault("HISTORY_REDIS_KEY", "guardian:history"),
		MaxEntries: maxEntries,
	}
	if cfg.Backend == "redis" && cfg.RedisURL == "" {
		return HistoryConfig{}, fmt.Errorf("REDIS_URL is required when HISTORY_BACKEND=redis")
	}
	return cfg, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey          string
	AccessKey       string
	SecretKey       string
	Model           string
	BaseURL         string
	Region          string
	Temperature     *float64
	TopP            *float64
	MaxTokens       *int
	RephraseEnabled bool
	Timeout         time.Duration
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.RephraseEnabled && c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	rephrase, err := parseBoolEnv("AI_REPHRASE_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	// 单次改写的上限；超过思考延迟时会话直接使用短语库回复。
	timeout, err := parseDurationEnv("AI_REPHRASE_TIMEOUT", 1200*time.Millisecond)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:          strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:       strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:       strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:           strings.TrimSpace(os.Getenv("Model")),
		BaseURL:         getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:          getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:     temperature,
		TopP:            topP,
		MaxTokens:       maxTokens,
		RephraseEnabled: rephrase,
		Timeout:         timeout,
	}, nil
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

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
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
