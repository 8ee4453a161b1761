// Package config 提供应用程序配置加载功能
// 基于viper实现，支持config.toml配置文件和FIELDTAX_前缀的环境变量覆盖
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用程序总配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // HTTP服务配置
	Database DatabaseConfig `mapstructure:"database"` // 本地数据库配置
	Log      LogConfig      `mapstructure:"log"`      // 日志配置
	Remote   RemoteConfig   `mapstructure:"remote"`   // 远程后端配置
	Export   ExportConfig   `mapstructure:"export"`   // 导出同步配置
}

// ServerConfig HTTP服务配置
// 采集端UI通过本地HTTP接口触发同步操作
type ServerConfig struct {
	Port         int `mapstructure:"port"`          // 监听端口
	ReadTimeout  int `mapstructure:"read_timeout"`  // 读取超时（秒）
	WriteTimeout int `mapstructure:"write_timeout"` // 写入超时（秒）
}

// DatabaseConfig 本地数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // 数据库驱动，目前仅支持sqlite
	DSN             string `mapstructure:"dsn"`               // 数据库文件路径
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // 最大打开连接数
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 连接最大存活时间（秒）
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`     // 日志级别 (debug, info, warn, error)
	Format   string `mapstructure:"format"`    // 日志格式 (json, text)
	Output   string `mapstructure:"output"`    // 输出方式 (console, file, both)
	FilePath string `mapstructure:"file_path"` // 日志文件路径
}

// RemoteConfig 远程后端配置
// 包含登录凭证与各接口的基础地址
type RemoteConfig struct {
	BaseURL        string `mapstructure:"base_url"`        // 后端基础地址
	Username       string `mapstructure:"username"`        // 登录用户名
	Password       string `mapstructure:"password"`        // 登录密码
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // 单次请求超时（秒）
}

// ExportConfig 导出同步配置
type ExportConfig struct {
	ChunkSize          int  `mapstructure:"chunk_size"`            // 默认分块大小
	MaxChunks          int  `mapstructure:"max_chunks"`            // 单次会话最大分块数，0表示不限制
	RetainAfterExport  bool `mapstructure:"retain_after_export"`   // 导出成功后保留本地记录（仅标记为已同步）
	StopOnChunkFailure bool `mapstructure:"stop_on_chunk_failure"` // 分块失败后是否终止本次会话
}

// Load 加载应用程序配置
// 查找顺序: ./config.toml -> ./config/config.toml，环境变量FIELDTAX_*可覆盖任意配置项
// 返回值:
//   - *Config: 配置实例
//   - error: 加载错误
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("FIELDTAX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时使用默认值，其他错误直接返回
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults 设置各配置项的默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/fieldtax.db")
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 3600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file_path", "logs/fieldtax.log")

	v.SetDefault("remote.base_url", "http://localhost:9090")
	v.SetDefault("remote.timeout_seconds", 60)

	v.SetDefault("export.chunk_size", 20)
	v.SetDefault("export.max_chunks", 0)
	v.SetDefault("export.retain_after_export", false)
	v.SetDefault("export.stop_on_chunk_failure", false)
}
