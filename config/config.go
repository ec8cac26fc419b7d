// Package config 提供了统一的配置加载与管理能力（TOML 文件 + APP_ 环境变量覆盖 + 热更新）.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/wyfcoding/lsmpricer/logging"
)

// Config 全局顶级配置结构.
type Config struct {
	Version   string          `mapstructure:"version"   toml:"version"`
	Server    ServerConfig    `mapstructure:"server"    toml:"server"`
	Log       LogConfig       `mapstructure:"log"       toml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   toml:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"   toml:"tracing"`
	Cache     CacheConfig     `mapstructure:"cache"     toml:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" toml:"ratelimit"`
	Pricing   PricingConfig   `mapstructure:"pricing"   toml:"pricing"`
	IDGen     IDGenConfig     `mapstructure:"idgen"     toml:"idgen"`
}

// ServerConfig 定义服务器运行时的基础网络与环境参数.
type ServerConfig struct {
	Name        string `mapstructure:"name"        toml:"name"        validate:"required"`
	Environment string `mapstructure:"environment" toml:"environment" validate:"oneof=dev test prod"`
	HTTP        struct {
		Addr           string        `mapstructure:"addr"             toml:"addr"`
		Port           int           `mapstructure:"port"             toml:"port"             validate:"required,min=1,max=65535"`
		ReadTimeout    time.Duration `mapstructure:"read_timeout"     toml:"read_timeout"`
		WriteTimeout   time.Duration `mapstructure:"write_timeout"    toml:"write_timeout"`
		IdleTimeout    time.Duration `mapstructure:"idle_timeout"     toml:"idle_timeout"`
		MaxHeaderBytes int           `mapstructure:"max_header_bytes" toml:"max_header_bytes"`
		MaxBodyBytes   int64         `mapstructure:"max_body_bytes"   toml:"max_body_bytes"`
	} `mapstructure:"http" toml:"http"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level         string        `mapstructure:"level"          toml:"level"          validate:"oneof=debug info warn error"` // 日志级别。
	File          string        `mapstructure:"file"           toml:"file"`                                                  // 日志文件路径。
	Console       bool          `mapstructure:"console"        toml:"console"`                                               // 写文件时是否同时输出到 stdout。
	MaxSize       int           `mapstructure:"max_size"       toml:"max_size"`                                              // 单个文件最大大小 (MB)。
	MaxBackups    int           `mapstructure:"max_backups"    toml:"max_backups"`                                           // 最大备份数。
	MaxAge        int           `mapstructure:"max_age"        toml:"max_age"`                                               // 最大保留天数。
	Compress      bool          `mapstructure:"compress"       toml:"compress"`                                              // 是否启用压缩。
	SlowThreshold time.Duration `mapstructure:"slow_threshold" toml:"slow_threshold"`                                        // HTTP 慢请求阈值。
}

// Logging 转换为 logging 包的配置.
func (c LogConfig) Logging(service, module string) logging.Config {
	return logging.Config{
		Service:    service,
		Module:     module,
		Level:      c.Level,
		File:       c.File,
		Console:    c.Console,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
	}
}

// TracingConfig 分布式链路追踪（OpenTelemetry）配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint" validate:"required_if=Enabled true"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" validate:"min=0,max=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Path    string `mapstructure:"path"    toml:"path"`
	Addr    string `mapstructure:"addr"    toml:"addr"` // 非空时在独立端口暴露，否则挂在业务路由上
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// RateLimitConfig 定义令牌桶限流参数.
type RateLimitConfig struct {
	Rate    int  `mapstructure:"rate"    toml:"rate"    validate:"min=0"`
	Burst   int  `mapstructure:"burst"   toml:"burst"   validate:"min=0"`
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
}

// CacheConfig 定价结果本地缓存（BigCache）参数.
type CacheConfig struct {
	TTL       time.Duration `mapstructure:"ttl"         toml:"ttl"`
	MaxSizeMB int           `mapstructure:"max_size_mb" toml:"max_size_mb" validate:"min=0"`
	Enabled   bool          `mapstructure:"enabled"     toml:"enabled"`
}

// PricingConfig 定价引擎默认参数与请求上限.
type PricingConfig struct {
	Solver     string        `mapstructure:"solver"      toml:"solver"      validate:"omitempty,oneof=qr cholesky normal"`
	Paths      int           `mapstructure:"paths"       toml:"paths"       validate:"min=1"`
	Steps      int           `mapstructure:"steps"       toml:"steps"       validate:"min=1"`
	Degree     int           `mapstructure:"degree"      toml:"degree"      validate:"min=0,max=8"`
	Seed       uint64        `mapstructure:"seed"        toml:"seed"`
	Workers    int           `mapstructure:"workers"     toml:"workers"     validate:"min=0"` // 0 表示单线程顺序模拟
	BatchLimit int           `mapstructure:"batch_limit" toml:"batch_limit" validate:"min=1"`
	MaxPaths   int           `mapstructure:"max_paths"   toml:"max_paths"   validate:"gtefield=Paths"`
	MaxSteps   int           `mapstructure:"max_steps"   toml:"max_steps"   validate:"gtefield=Steps"`
	MaxBatch   int           `mapstructure:"max_batch"   toml:"max_batch"   validate:"min=1"`
	Precision  int32         `mapstructure:"precision"   toml:"precision"   validate:"min=0,max=12"` // 金额字段保留的小数位
	Timeout    time.Duration `mapstructure:"timeout"     toml:"timeout"`
	Strict     bool          `mapstructure:"strict"      toml:"strict"`
}

// IDGenConfig 请求 ID 生成器配置.
type IDGenConfig struct {
	Type      string `mapstructure:"type"       toml:"type"       validate:"omitempty,oneof=snowflake sonyflake"`
	StartTime string `mapstructure:"start_time" toml:"start_time"` // 纪元起点，格式 2006-01-02
	MachineID int64  `mapstructure:"machine_id" toml:"machine_id" validate:"min=0,max=65535"`
}

var (
	mu        sync.RWMutex
	vInstance = viper.New()
	onReload  []func(*Config)
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	onReload = append(onReload, hook)
}

// setDefaults 为未出现在配置文件中的键提供默认值.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "lsmpricer")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", 10*time.Second)
	v.SetDefault("server.http.write_timeout", 60*time.Second)
	v.SetDefault("server.http.idle_timeout", 120*time.Second)
	v.SetDefault("server.http.max_body_bytes", 1<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.slow_threshold", 2*time.Second)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("tracing.sampler_ratio", 1.0)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.max_size_mb", 64)
	v.SetDefault("ratelimit.rate", 50)
	v.SetDefault("ratelimit.burst", 100)
	v.SetDefault("pricing.solver", "qr")
	v.SetDefault("pricing.paths", 10000)
	v.SetDefault("pricing.steps", 50)
	v.SetDefault("pricing.degree", 2)
	v.SetDefault("pricing.batch_limit", 4)
	v.SetDefault("pricing.max_paths", 200000)
	v.SetDefault("pricing.max_steps", 1000)
	v.SetDefault("pricing.max_batch", 32)
	v.SetDefault("pricing.precision", 6)
	v.SetDefault("pricing.timeout", 30*time.Second)
	v.SetDefault("idgen.type", "snowflake")
	v.SetDefault("idgen.machine_id", 1)
}

// Load 读取配置文件，应用环境变量覆盖并完成校验；path 为空时只使用默认值与环境变量.
// 加载成功后监听文件变化，热更新时同步全局日志级别并回调已注册的钩子.
func Load(path string, conf *Config) error {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config error: %w", err)
		}
	}

	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	mu.Lock()
	vInstance = v
	mu.Unlock()

	if path == "" {
		return nil
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)

		var next Config
		if err := v.Unmarshal(&next); err != nil {
			slog.Error("reload config unmarshal failed", "error", err)
			return
		}
		if err := validate.Struct(&next); err != nil {
			slog.Error("reload config validation failed", "error", err)
			return
		}

		logging.SetLevel(next.Log.Level)
		slog.Info("config hot-reloaded and validated successfully")

		mu.RLock()
		hooks := slices.Clone(onReload)
		mu.RUnlock()
		for _, hook := range hooks {
			hook(&next)
		}
	})
	v.WatchConfig()

	return nil
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)
		return
	}

	var configMap map[string]any
	if unmarshalErr := json.Unmarshal(data, &configMap); unmarshalErr != nil {
		slog.Error("failed to unmarshal config for masking", "error", unmarshalErr)
		return
	}

	mask(configMap)

	maskedJSON, marshalErr := json.MarshalIndent(configMap, "  ", "  ")
	if marshalErr != nil {
		slog.Error("failed to marshal masked config", "error", marshalErr)
		return
	}

	slog.Info("Current effective configuration", "config", string(maskedJSON))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}

// GetViper 返回最近一次加载所用的 Viper 实例.
func GetViper() *viper.Viper {
	mu.RLock()
	defer mu.RUnlock()
	return vInstance
}
