package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
db:
  driver: sqlite
  path: /tmp/dash5s.db
auth:
  jwt_secret: file-secret-0123456789
  directory: static
audit:
  history_weeks: 6
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望端口 9090，实际 %d", cfg.Server.Port)
	}
	if cfg.Audit.HistoryWeeks != 6 {
		t.Errorf("期望 history_weeks 6，实际 %d", cfg.Audit.HistoryWeeks)
	}
	// 未出现在文件中的键取默认值
	if cfg.Audit.MinYear != 2023 || cfg.Audit.MaxYear != 2030 {
		t.Errorf("年份范围默认值错误: %d-%d", cfg.Audit.MinYear, cfg.Audit.MaxYear)
	}
	if cfg.Audit.RollingWindow != 14*24*time.Hour {
		t.Errorf("期望滚动窗口 14 天，实际 %v", cfg.Audit.RollingWindow)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("期望 access_token_ttl 15m，实际 %v", cfg.Auth.AccessTokenTTL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
db:
  driver: sqlite
auth:
  jwt_secret: file-secret-0123456789
  directory: static
`)
	t.Setenv("DASH5S_SERVER_PORT", "7000")
	t.Setenv("DASH5S_AUTH_JWT_SECRET", "env-secret-0123456789")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("环境变量应覆盖端口，实际 %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "env-secret-0123456789" {
		t.Errorf("环境变量应覆盖 jwt_secret，实际 %q", cfg.Auth.JWTSecret)
	}
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: short
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("短密钥应被拒绝，实际: %v", err)
	}
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "postgres"},
		Auth:     AuthConfig{JWTSecret: "0123456789abcdef", Directory: "ldap"},
		Audit:    AuditConfig{MinYear: 2023, MaxYear: 2030, HistoryWeeks: 12, RollingWindow: time.Hour},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"合法配置", func(c *Config) {}, ""},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"未知驱动", func(c *Config) { c.Database.Driver = "oracle" }, "db.driver"},
		{"未知目录", func(c *Config) { c.Auth.Directory = "kerberos" }, "auth.directory"},
		{"年份倒置", func(c *Config) { c.Audit.MinYear = 2031 }, "min_year"},
		{"历史周数为 0", func(c *Config) { c.Audit.HistoryWeeks = 0 }, "history_weeks"},
		{"历史周数超过一年", func(c *Config) { c.Audit.HistoryWeeks = 53 }, "history_weeks"},
		{"滚动窗口为 0", func(c *Config) { c.Audit.RollingWindow = 0 }, "rolling_window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("期望通过，实际: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("期望错误包含 %q，实际: %v", tt.want, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	base := DatabaseConfig{Host: "db", Port: 5432, Name: "dash5s", User: "u", Password: "p", SSLMode: "disable", Timezone: "UTC"}

	pg := base
	pg.Driver = "postgres"
	if got := pg.DSN(); !strings.Contains(got, "host=db port=5432") || !strings.Contains(got, "dbname=dash5s") {
		t.Errorf("postgres DSN 错误: %s", got)
	}

	my := base
	my.Driver, my.Port = "mysql", 3306
	if got := my.DSN(); !strings.HasPrefix(got, "u:p@tcp(db:3306)/dash5s?") || !strings.Contains(got, "clientFoundRows=true") {
		t.Errorf("mysql DSN 错误: %s", got)
	}

	lite := DatabaseConfig{Driver: "sqlite", Path: "dash5s.db"}
	if got := lite.DSN(); !strings.HasPrefix(got, "dash5s.db?") || !strings.Contains(got, "foreign_keys(1)") {
		t.Errorf("sqlite DSN 错误: %s", got)
	}
}
