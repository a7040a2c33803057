package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LDAP     LDAPConfig     `mapstructure:"ldap"`
	Log      LogConfig      `mapstructure:"log"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Feature  FeatureConfig  `mapstructure:"feature"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port      int        `mapstructure:"port"`
	BaseURL   string     `mapstructure:"base_url"`
	BodyLimit int64      `mapstructure:"body_limit"` // 请求体上限（字节）
	CORS      CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig 数据库配置
// Driver: postgres | mysql | sqlite
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	Path            string `mapstructure:"path"` // 仅 sqlite 使用
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 按驱动生成连接字符串
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
			c.User, c.Password, c.Host, c.Port, c.Name,
		)
	case "sqlite":
		// 外键约束在 sqlite 中默认关闭，级联删除依赖它
		return c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
		)
	}
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证与目录服务配置
type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	AccessTokenTTL          time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTLDefault  time.Duration `mapstructure:"refresh_token_ttl_default"`
	RefreshTokenTTLRemember time.Duration `mapstructure:"refresh_token_ttl_remember_me"`
	Directory               string        `mapstructure:"directory"` // ldap | static
	StaticUsers             []StaticUser  `mapstructure:"static_users"`
	LoginRateLimit          int           `mapstructure:"login_rate_limit"`
	LoginRateWindow         time.Duration `mapstructure:"login_rate_window"`
}

// StaticUser 本地开发用的静态目录账号（密码为 bcrypt 哈希）
type StaticUser struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
	DisplayName  string `mapstructure:"display_name"`
	Email        string `mapstructure:"email"`
	Department   string `mapstructure:"department"`
	Role         string `mapstructure:"role"`
}

// LDAPConfig LDAP / Active Directory 配置
type LDAPConfig struct {
	URL          string        `mapstructure:"url"`
	StartTLS     bool          `mapstructure:"start_tls"`
	BindDN       string        `mapstructure:"bind_dn"`
	BindPassword string        `mapstructure:"bind_password"`
	UserDN       string        `mapstructure:"user_dn"`
	LoginAttr    string        `mapstructure:"login_attr"`
	AdminGroup   string        `mapstructure:"admin_group"`
	EditorGroup  string        `mapstructure:"editor_group"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuditConfig 5S 评分相关参数
type AuditConfig struct {
	MinYear       int           `mapstructure:"min_year"`
	MaxYear       int           `mapstructure:"max_year"`
	HistoryWeeks  int           `mapstructure:"history_weeks"`
	RecentLimit   int           `mapstructure:"recent_limit"`
	ChartLimit    int           `mapstructure:"chart_limit"`
	RollingWindow time.Duration `mapstructure:"rolling_window"`
}

// FeatureConfig 功能开关配置
type FeatureConfig struct {
	SeedOnStart    bool `mapstructure:"seed_on_start"`
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

// Load 从 .env、配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("DASH5S")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "dash5s")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.path", "dash5s.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// 无默认值的键也需注册，AutomaticEnv 才能在 Unmarshal 时生效
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl_default", "24h")
	v.SetDefault("auth.refresh_token_ttl_remember_me", "168h")
	v.SetDefault("auth.directory", "ldap")
	v.SetDefault("auth.login_rate_limit", 10)
	v.SetDefault("auth.login_rate_window", "1m")

	v.SetDefault("ldap.url", "ldap://localhost:389")
	v.SetDefault("ldap.start_tls", false)
	v.SetDefault("ldap.bind_dn", "")
	v.SetDefault("ldap.bind_password", "")
	v.SetDefault("ldap.user_dn", "ou=users,dc=test,dc=local")
	v.SetDefault("ldap.login_attr", "mail")
	v.SetDefault("ldap.admin_group", "cn=Dash5S_Admins,ou=groups,dc=test,dc=local")
	v.SetDefault("ldap.editor_group", "cn=Dash5S_Editors,ou=groups,dc=test,dc=local")
	v.SetDefault("ldap.timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("audit.min_year", 2023)
	v.SetDefault("audit.max_year", 2030)
	v.SetDefault("audit.history_weeks", 12)
	v.SetDefault("audit.recent_limit", 5)
	v.SetDefault("audit.chart_limit", 8)
	v.SetDefault("audit.rolling_window", "336h") // 14 天

	v.SetDefault("feature.seed_on_start", true)
	v.SetDefault("feature.metrics_enabled", true)
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("配置校验失败: 不支持的 db.driver %q", c.Database.Driver)
	}
	switch c.Auth.Directory {
	case "ldap", "static":
	default:
		return fmt.Errorf("配置校验失败: 不支持的 auth.directory %q", c.Auth.Directory)
	}
	if c.Audit.MinYear > c.Audit.MaxYear {
		return fmt.Errorf("配置校验失败: audit.min_year 不能大于 audit.max_year")
	}
	if c.Audit.HistoryWeeks < 1 || c.Audit.HistoryWeeks > 52 {
		return fmt.Errorf("配置校验失败: audit.history_weeks 必须在 1-52 之间")
	}
	if c.Audit.RollingWindow <= 0 {
		return fmt.Errorf("配置校验失败: audit.rolling_window 必须大于 0")
	}
	return nil
}
