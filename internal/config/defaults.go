package config

import (
	"fmt"

	"github.com/livp123/axtext/internal/eventlog"
	"github.com/livp123/axtext/internal/selection"
	"github.com/livp123/axtext/internal/source"
	"github.com/livp123/axtext/internal/utils/logger"
	"github.com/livp123/axtext/internal/walker"
	apperrors "github.com/livp123/axtext/pkg/errors"
)

const (
	DefaultAPIPort    = 11815
	DefaultSourcePath = "/var/lib/axtext/observations.jsonl"
	DefaultLogPath    = "/var/log/axtext/axtext.log"
)

// Default returns the configuration used when a key is absent from the file.
// Default 返回文件中缺少键时使用的配置。
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Capacity:    eventlog.DefaultCapacity,
			Delivery:    string(eventlog.DeliverySync),
			AsyncBuffer: 1024,
		},
		Walker: WalkerConfig{
			SelfApp:           "axtext",
			HintPrefix:        walker.DefaultHintPrefix,
			DescriptionSuffix: walker.DefaultDescriptionSuffix,
			HintSuffix:        walker.DefaultHintSuffix,
			EditClasses:       append([]string(nil), walker.DefaultEditClasses...),
			MaxDepth:          walker.DefaultMaxDepth,
		},
		Source: SourceConfig{
			Path:         DefaultSourcePath,
			TailPosition: source.PositionEnd,
			Workers:      4,
		},
		Selection: SelectionConfig{
			Separator:       selection.DefaultSeparator,
			TimeLayout:      selection.DefaultTimeLayout,
			ClearOnLogClear: true,
		},
		API: APIConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    DefaultAPIPort,
		},
		Logging: logger.LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Path:       DefaultLogPath,
			MaxSize:    10, // 10MB
			MaxBackups: 3,
			MaxAge:     30, // 30 days
			Compress:   true,
		},
	}
}

// Validate checks ranges and enumerations, and compiles capture rules and
// redaction patterns so a broken file is rejected at load time.
// Validate 检查取值范围与枚举，并编译捕获规则和脱敏模式。
func (c *Config) Validate() error {
	if c.Log.Capacity <= 0 {
		return apperrors.NewConfigError("log.capacity", c.Log.Capacity)
	}
	switch eventlog.Delivery(c.Log.Delivery) {
	case eventlog.DeliverySync, eventlog.DeliveryAsync:
	default:
		return apperrors.NewConfigError("log.delivery", c.Log.Delivery)
	}
	if c.Log.AsyncBuffer < 0 {
		return apperrors.NewConfigError("log.async_buffer", c.Log.AsyncBuffer)
	}
	if c.Walker.MaxDepth <= 0 {
		return apperrors.NewConfigError("walker.max_depth", c.Walker.MaxDepth)
	}
	switch c.Source.TailPosition {
	case source.PositionStart, source.PositionEnd:
	default:
		return apperrors.NewConfigError("source.tail_position", c.Source.TailPosition)
	}
	if c.Source.Workers <= 0 {
		return apperrors.NewConfigError("source.workers", c.Source.Workers)
	}
	if c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535) {
		return apperrors.NewConfigError("api.port", c.API.Port)
	}
	if _, _, err := c.BuildCapture(); err != nil {
		return fmt.Errorf("%w: capture: %w", apperrors.ErrConfigInvalid, err)
	}
	return nil
}

// DefaultConfigTemplate is written by `axtext init`. Loading it yields Default().
const DefaultConfigTemplate = `# axtext configuration file / axtext 配置文件
#

# Event log / 事件日志
log:
  # Maximum number of records kept; the oldest is evicted when full.
  # 保留的最大记录数；满时淘汰最旧的记录。
  capacity: 1000

  # Subscriber delivery: sync (on the appending goroutine) or async (FIFO dispatcher).
  # 订阅者交付方式：sync（在追加的 goroutine 上）或 async（FIFO 分发）。
  delivery: sync
  async_buffer: 1024

# Tree walker / 节点树遍历
walker:
  # Own application identifier; its UI is never captured.
  # 自身应用标识；其界面永不捕获。
  self_app: "axtext"
  hint_prefix: "HINT: "
  description_suffix: "_description"
  hint_suffix: "_hint"
  # Class suffixes treated as editable fields. 视为可编辑字段的类名后缀。
  edit_classes:
    - EditText
    - AXTextField
    - AXTextArea
    - AXSearchField
    - TextBox
  max_depth: 64

# Capture filtering and redaction / 捕获过滤与脱敏
capture:
  # Records matching any rule are dropped. 匹配任一规则的记录将被丢弃。
  # exclude:
  #   - id: no-password-fields
  #     expression: 'Editable() && Has("password")'
  #   - id: mute-banking
  #     apps: ["com.example.bank"]
  # Regular expressions, or the shortcuts email, cc16, jwt.
  # 正则表达式，或快捷名 email、cc16、jwt。
  # redact: ["cc16", "jwt"]
  redact_emails: false

# Observation feed / 观察数据源
source:
  path: "/var/lib/axtext/observations.jsonl"
  # start | end
  tail_position: end
  poll: false
  workers: 4

# Selection merge defaults / 选择合并默认值
selection:
  separator: "\n"
  time_layout: "15:04:05"
  remove_duplicates: false
  # Clear the selection whenever the event log is cleared.
  # 清空事件日志时同时清空选择。
  clear_on_log_clear: true

# HTTP API / HTTP 接口
api:
  enabled: false
  host: "127.0.0.1"
  port: 11815
  # When set, /api/ requests must send "Authorization: Bearer <token>".
  # 设置后，/api/ 请求必须携带 "Authorization: Bearer <token>"。
  token: ""

# Logging / 日志
logging:
  enabled: false
  level: info
  path: "/var/log/axtext/axtext.log"
  max_size: 10
  max_backups: 3
  max_age: 30
  compress: true
`
