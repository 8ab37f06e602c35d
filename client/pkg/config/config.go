// Package config provides configuration management for SDK clients.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/holiman/uint256"

	logconfig "github.com/weisyn/shardsdk/internal/config/log"
	"github.com/weisyn/shardsdk/pkg/types"
)

// Config SDK 客户端配置
type Config struct {
	// 节点配置
	NodeEndpoint      string   `json:"node_endpoint"`                // http(s):// 或 ws(s)://
	FallbackEndpoints []string `json:"fallback_endpoints,omitempty"` // 备用端点，按优先级排列
	ShardID           uint16   `json:"shard_id"`                     // 客户端绑定的分片

	// 网络配置
	Timeout       Duration `json:"timeout"`        // 请求超时
	RetryAttempts int      `json:"retry_attempts"` // 只读方法重试次数
	RetryBackoff  Duration `json:"retry_backoff"`  // 退避时间
	RateLimit     float64  `json:"rate_limit"`     // 每秒请求数，0 表示不限流
	Burst         int      `json:"burst"`
	ReadyTimeout  Duration `json:"ready_timeout"` // 启动时等待节点就绪，0 表示不等待

	// 确认轮询
	Poll PollOptions `json:"poll"`

	// 客户端行为
	CodeCacheSize int    `json:"code_cache_size"`
	FeeCredit     string `json:"fee_credit"` // 默认手续费额度（十进制或 0x 十六进制）
	Metrics       bool   `json:"metrics"`    // 是否注册 prometheus 指标

	// 日志配置
	Log *logconfig.LogOptions `json:"log,omitempty"`
}

// PollOptions 轮询配置
type PollOptions struct {
	Interval    Duration `json:"interval"`
	MaxInterval Duration `json:"max_interval"`
	Multiplier  float64  `json:"multiplier"`
	MaxAttempts int      `json:"max_attempts"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		NodeEndpoint:  "http://localhost:8529",
		ShardID:       1,
		Timeout:       Duration(30 * time.Second),
		RetryAttempts: 3,
		RetryBackoff:  Duration(500 * time.Millisecond),
		Burst:         1,
		Poll: PollOptions{
			Interval:    Duration(200 * time.Millisecond),
			MaxInterval: Duration(5 * time.Second),
			Multiplier:  2.0,
			MaxAttempts: 30,
		},
		CodeCacheSize: 256,
		FeeCredit:     "50000000",
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.NodeEndpoint == "" {
		return types.NewValidationError("node_endpoint", "must be set")
	}
	if err := types.ShardID(c.ShardID).Validate(); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return types.NewValidationError("rate_limit", "must not be negative")
	}
	if _, err := c.FeeCreditValue(); err != nil {
		return err
	}
	return nil
}

// FeeCreditValue 解析默认手续费额度；未设置时返回 nil
func (c *Config) FeeCreditValue() (*uint256.Int, error) {
	if c.FeeCredit == "" {
		return nil, nil
	}
	v, err := types.ParseQuantity(c.FeeCredit)
	if err != nil {
		return nil, types.NewValidationError("fee_credit", err.Error())
	}
	return v, nil
}

// Endpoints 主端点在前的全部端点
func (c *Config) Endpoints() []string {
	return append([]string{c.NodeEndpoint}, c.FallbackEndpoints...)
}

// Load 从 path 加载配置；文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	//nolint:gosec // G304: path 由调用方提供
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// 缺省字段保留默认值
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save 保存配置到 path
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	//nolint:gosec // G301: 配置目录需要用户可读权限
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	//nolint:gosec // G306: 配置文件不含密钥
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// DefaultPath 默认配置文件路径 ~/.shardsdk/config.json
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".shardsdk", "config.json")
}

// Duration 时间duration(支持JSON序列化)
type Duration time.Duration

// MarshalJSON 序列化为 "1m30s" 形式
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON 反序列化
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(dur)
	return nil
}

// Std 转换为 time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }
