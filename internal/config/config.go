// Package config loads, validates and saves the axtext YAML configuration.
// Package config 负责加载、验证和保存 axtext 的 YAML 配置。
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/livp123/axtext/internal/capture"
	"github.com/livp123/axtext/internal/runtime"
	"github.com/livp123/axtext/internal/utils/fileutil"
	"github.com/livp123/axtext/internal/utils/logger"
	apperrors "github.com/livp123/axtext/pkg/errors"
)

// DefaultConfigPath is the standard location for the configuration file.
// DefaultConfigPath 是配置文件的标准位置。
const DefaultConfigPath = "/etc/axtext/config.yaml"

// Config is the root of the configuration file.
// Config 是配置文件的根结构。
type Config struct {
	Log       LogConfig            `yaml:"log"`
	Walker    WalkerConfig         `yaml:"walker"`
	Capture   CaptureConfig        `yaml:"capture"`
	Source    SourceConfig         `yaml:"source"`
	Selection SelectionConfig      `yaml:"selection"`
	API       APIConfig            `yaml:"api"`
	Logging   logger.LoggingConfig `yaml:"logging"`
}

// LogConfig sizes the event log.
// LogConfig 设置事件日志的容量与交付方式。
type LogConfig struct {
	Capacity int `yaml:"capacity"`
	// Delivery: sync | async
	Delivery    string `yaml:"delivery"`
	AsyncBuffer int    `yaml:"async_buffer"`
}

// WalkerConfig controls how node trees become records.
// WalkerConfig 控制节点树如何转换为记录。
type WalkerConfig struct {
	// SelfApp: 观察进程自身的应用标识，其界面永不捕获
	SelfApp           string   `yaml:"self_app"`
	HintPrefix        string   `yaml:"hint_prefix"`
	DescriptionSuffix string   `yaml:"description_suffix"`
	HintSuffix        string   `yaml:"hint_suffix"`
	EditClasses       []string `yaml:"edit_classes"`
	MaxDepth          int      `yaml:"max_depth"`
}

// CaptureConfig holds exclusion rules and redaction settings.
// CaptureConfig 保存排除规则和脱敏设置。
type CaptureConfig struct {
	Exclude      []capture.Rule `yaml:"exclude,omitempty"`
	Redact       []string       `yaml:"redact,omitempty"`
	RedactEmails bool           `yaml:"redact_emails"`
}

// SourceConfig points at the observation feed.
// SourceConfig 指定观察数据源。
type SourceConfig struct {
	Path string `yaml:"path"`
	// TailPosition: start | end
	TailPosition string `yaml:"tail_position"`
	Poll         bool   `yaml:"poll"`
	Workers      int    `yaml:"workers"`
}

// SelectionConfig sets merge defaults.
// SelectionConfig 设置合并默认值。
type SelectionConfig struct {
	Separator        string `yaml:"separator"`
	TimeLayout       string `yaml:"time_layout"`
	RemoveDuplicates bool   `yaml:"remove_duplicates"`
	// ClearOnLogClear: 清空日志时同时清空选择
	ClearOnLogClear bool `yaml:"clear_on_log_clear"`
}

// APIConfig controls the HTTP server.
// APIConfig 控制 HTTP 服务。
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	// Token: 非空时 /api/ 请求必须携带该令牌
	Token string `yaml:"token"`
}

// GetConfigPath returns the configuration file path.
// If runtime.ConfigPath is set (e.g., via CLI flag or test), it takes precedence.
// GetConfigPath 返回配置文件路径；runtime.ConfigPath 已设置时优先使用。
func GetConfigPath() string {
	if runtime.ConfigPath != "" {
		return runtime.ConfigPath
	}
	return DefaultConfigPath
}

// LoadConfig reads path over the defaults and validates the result.
// A missing file yields ErrConfigNotFound.
// LoadConfig 在默认值之上读取 path 并验证结果；文件缺失时返回 ErrConfigNotFound。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConfigNotFound, path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path atomically.
// SaveConfig 以原子方式将 cfg 写入 path。
func SaveConfig(path string, cfg *Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(filepath.Clean(path), buf.Bytes(), 0600)
}

// WriteDefault writes the commented default template to path. It refuses to
// overwrite an existing file unless force is set.
// WriteDefault 将带注释的默认模板写入 path；除非 force，否则不覆盖已有文件。
func WriteDefault(path string, force bool) error {
	if !force && fileutil.Exists(path) {
		return os.ErrExist
	}
	return fileutil.AtomicWriteFile(filepath.Clean(path), []byte(DefaultConfigTemplate), 0644)
}
