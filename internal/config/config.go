package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`    // 服务器配置
	Database DatabaseConfig `mapstructure:"database"`  // PostgreSQL配置
	Log      LogConfig      `mapstructure:"log"`       // 日志配置
	Sync     SyncConfig     `mapstructure:"sync"`      // 同步调度配置
	Places   PlacesConfig   `mapstructure:"places"`    // Google Places API 配置
	MapsList MapsListConfig `mapstructure:"maps_list"` // Google Maps 收藏列表配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN（URL形式）
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogSQL          bool          `mapstructure:"log_sql"`           // 是否打印SQL
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// SyncConfig 同步调度配置
type SyncConfig struct {
	Interval     time.Duration `mapstructure:"interval"`      // 定时同步间隔，0 表示不启用定时任务
	RunOnStart   bool          `mapstructure:"run_on_start"`  // 启动后立即同步一次
	Workers      int           `mapstructure:"workers"`       // 并发处理的餐厅数
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"` // 单个餐厅详情拉取超时
	PruneRemoved bool          `mapstructure:"prune_removed"` // 是否删除已从列表移除的餐厅
	EnforceQuota bool          `mapstructure:"enforce_quota"` // 月度配额用尽后停止拉取
	MaxItems     int           `mapstructure:"max_items"`     // 单次最多处理的新餐厅数，0 为不限
}

// PlacesConfig Google Places API 配置
type PlacesConfig struct {
	BaseURL    string `mapstructure:"base_url"`    // API基础地址
	APIKey     string `mapstructure:"api_key"`     // API Key（建议放 .env）
	Language   string `mapstructure:"language"`    // Accept-Language
	RegionHint string `mapstructure:"region_hint"` // 文本搜索附加的地区后缀，如 "in Brazil"
	Timeout    int    `mapstructure:"timeout"`     // 请求超时（秒）
	RetryCount int    `mapstructure:"retry_count"` // 重试次数
	Proxy      string `mapstructure:"proxy"`       // 代理地址
}

// MapsListConfig Google Maps 收藏列表配置
type MapsListConfig struct {
	BaseURL string `mapstructure:"base_url"` // 默认 https://google.com
	ListID  string `mapstructure:"list_id"`  // 列表的 data= 后缀
	Timeout int    `mapstructure:"timeout"`  // 请求超时（秒）
	Proxy   string `mapstructure:"proxy"`    // 代理地址
}

// HTTPClientConfig 构建HTTP客户端所需的公共参数
type HTTPClientConfig struct {
	Timeout int
	Proxy   string
}

// ClientConfig 返回 Places 客户端的HTTP参数
func (p PlacesConfig) ClientConfig() HTTPClientConfig {
	return HTTPClientConfig{Timeout: p.Timeout, Proxy: p.Proxy}
}

// ClientConfig 返回 Maps 列表抓取的HTTP参数
func (m MapsListConfig) ClientConfig() HTTPClientConfig {
	return HTTPClientConfig{Timeout: m.Timeout, Proxy: m.Proxy}
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录加载 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	cfg.applyDefaults()
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Places.APIKey = v
	}
	if v := os.Getenv("GOOGLE_LIST_ID"); v != "" {
		cfg.MapsList.ListID = v
	}
	if v := os.Getenv("PLACES_PROXY"); v != "" {
		cfg.Places.Proxy = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
}

// applyDefaults 兜底默认值
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Sync.Workers < 1 {
		c.Sync.Workers = 1
	}
	if c.Sync.FetchTimeout <= 0 {
		c.Sync.FetchTimeout = 30 * time.Second
	}
	if c.Places.BaseURL == "" {
		c.Places.BaseURL = "https://places.googleapis.com"
	}
	if c.Places.Language == "" {
		c.Places.Language = "pt-BR"
	}
	if c.Places.Timeout <= 0 {
		c.Places.Timeout = 15
	}
	if c.Places.RetryCount < 0 {
		c.Places.RetryCount = 0
	}
	if c.MapsList.BaseURL == "" {
		c.MapsList.BaseURL = "https://google.com"
	}
	if c.MapsList.Timeout <= 0 {
		c.MapsList.Timeout = 30
	}
}
