package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"dash5s/backend/config"
)

// Conn 目录连接的最小操作集
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close()
}

// DialFunc 建立目录连接
type DialFunc func(ctx context.Context) (Conn, error)

var searchAttributes = []string{"cn", "mail", "department", "memberOf"}

// LDAP 基于服务账号检索 + 用户绑定的认证器
type LDAP struct {
	cfg    config.LDAPConfig
	dial   DialFunc
	logger *zap.Logger
}

// NewLDAP 创建 LDAP 认证器
func NewLDAP(cfg config.LDAPConfig, logger *zap.Logger) *LDAP {
	l := &LDAP{cfg: cfg, logger: logger}
	l.dial = l.defaultDial
	return l
}

// NewLDAPWithDialer 使用自定义连接工厂创建认证器（测试用）
func NewLDAPWithDialer(cfg config.LDAPConfig, dial DialFunc, logger *zap.Logger) *LDAP {
	return &LDAP{cfg: cfg, dial: dial, logger: logger}
}

// Authenticate 服务账号绑定 → 按登录属性检索用户 → 以用户 DN 绑定校验密码
func (l *LDAP) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	if username == "" || password == "" {
		return nil, nil
	}

	conn, err := l.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("连接目录服务失败: %w", err)
	}
	defer conn.Close()

	if l.cfg.BindDN != "" {
		if err := conn.Bind(l.cfg.BindDN, l.cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("目录服务账号绑定失败: %w", err)
		}
	}

	filter := fmt.Sprintf("(%s=%s)", l.loginAttr(), ldap.EscapeFilter(username))
	req := ldap.NewSearchRequest(
		l.cfg.UserDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		2, int(l.cfg.Timeout/time.Second), false,
		filter, searchAttributes, nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, nil
		}
		return nil, fmt.Errorf("检索目录用户失败: %w", err)
	}
	if len(res.Entries) != 1 {
		l.logger.Debug("目录用户未找到或不唯一",
			zap.String("username", username), zap.Int("entries", len(res.Entries)))
		return nil, nil
	}

	entry := res.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, nil
		}
		return nil, fmt.Errorf("目录用户绑定失败: %w", err)
	}

	p := &Principal{
		Username:    username,
		DisplayName: entry.GetAttributeValue("cn"),
		Email:       entry.GetAttributeValue("mail"),
		Department:  entry.GetAttributeValue("department"),
		Role:        RoleFromGroups(entry.GetAttributeValues("memberOf"), l.cfg.AdminGroup, l.cfg.EditorGroup),
	}
	if p.Email == "" {
		p.Email = username
	}
	if p.DisplayName == "" {
		p.DisplayName = username
	}
	return p, nil
}

func (l *LDAP) loginAttr() string {
	if l.cfg.LoginAttr == "" {
		return "mail"
	}
	return l.cfg.LoginAttr
}

// ── 默认连接 ──

type ldapConn struct {
	c *ldap.Conn
}

func (lc ldapConn) Bind(username, password string) error { return lc.c.Bind(username, password) }

func (lc ldapConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	return lc.c.Search(req)
}

func (lc ldapConn) Close() { lc.c.Close() }

func (l *LDAP) defaultDial(ctx context.Context) (Conn, error) {
	timeout := l.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := &net.Dialer{Timeout: timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	c, err := ldap.DialURL(l.cfg.URL, ldap.DialWithDialer(dialer))
	if err != nil {
		return nil, err
	}
	c.SetTimeout(timeout)

	if l.cfg.StartTLS {
		u, err := url.Parse(l.cfg.URL)
		if err != nil {
			c.Close()
			return nil, err
		}
		if err := c.StartTLS(&tls.Config{ServerName: u.Hostname()}); err != nil {
			c.Close()
			return nil, fmt.Errorf("StartTLS 失败: %w", err)
		}
	}
	return ldapConn{c: c}, nil
}
