package runtime

// ConfigPath stores the path to the configuration file provided via CLI flags.
// ConfigPath 存储通过 CLI 标志提供的配置文件路径。
var ConfigPath string

// SelfApp overrides the observing process identifier used for self-exclusion.
// SelfApp 覆盖用于自我排除的观察进程标识符。
var SelfApp string
