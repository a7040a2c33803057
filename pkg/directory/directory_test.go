package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"dash5s/backend/config"
	"dash5s/backend/internal/model"
)

// ── RoleFromGroups ──

func TestRoleFromGroups(t *testing.T) {
	const admin = "cn=admins,dc=test"
	const editor = "cn=editors,dc=test"

	tests := []struct {
		name   string
		groups []string
		want   string
	}{
		{"无组", nil, model.RoleViewer},
		{"编辑组", []string{editor}, model.RoleEditor},
		{"管理员组", []string{admin}, model.RoleAdmin},
		{"两组都在时管理员优先", []string{editor, admin}, model.RoleAdmin},
		{"大小写不敏感", []string{"CN=Editors,DC=test"}, model.RoleEditor},
		{"无关组", []string{"cn=others,dc=test"}, model.RoleViewer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleFromGroups(tt.groups, admin, editor); got != tt.want {
				t.Errorf("期望 %s，实际 %s", tt.want, got)
			}
		})
	}
}

// ── LDAP ──

type fakeConn struct {
	binds    map[string]string // dn → password
	entries  []*ldap.Entry
	filter   string
	closed   bool
	searchEr error
}

func (f *fakeConn) Bind(dn, password string) error {
	if pw, ok := f.binds[dn]; ok && pw == password {
		return nil
	}
	return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.filter = req.Filter
	if f.searchEr != nil {
		return nil, f.searchEr
	}
	return &ldap.SearchResult{Entries: f.entries}, nil
}

func (f *fakeConn) Close() { f.closed = true }

func testLDAPConfig() config.LDAPConfig {
	return config.LDAPConfig{
		BindDN:       "cn=svc,dc=test",
		BindPassword: "svc-pass",
		UserDN:       "ou=users,dc=test",
		LoginAttr:    "mail",
		AdminGroup:   "cn=admins,dc=test",
		EditorGroup:  "cn=editors,dc=test",
	}
}

func newFakeLDAP(conn *fakeConn) *LDAP {
	return NewLDAPWithDialer(testLDAPConfig(), func(context.Context) (Conn, error) {
		return conn, nil
	}, zap.NewNop())
}

func TestLDAP_Authenticate_Success(t *testing.T) {
	conn := &fakeConn{
		binds: map[string]string{
			"cn=svc,dc=test":           "svc-pass",
			"cn=Ivan,ou=users,dc=test": "secret",
		},
		entries: []*ldap.Entry{
			ldap.NewEntry("cn=Ivan,ou=users,dc=test", map[string][]string{
				"cn":         {"Ivan Petrov"},
				"mail":       {"ivan@test.local"},
				"department": {"Склад"},
				"memberOf":   {"cn=editors,dc=test"},
			}),
		},
	}

	p, err := newFakeLDAP(conn).Authenticate(context.Background(), "ivan@test.local", "secret")
	if err != nil {
		t.Fatalf("Authenticate 不应返回错误: %v", err)
	}
	if p == nil {
		t.Fatal("期望返回 Principal")
	}
	if p.DisplayName != "Ivan Petrov" || p.Email != "ivan@test.local" || p.Department != "Склад" {
		t.Errorf("属性映射错误: %+v", p)
	}
	if p.Role != model.RoleEditor {
		t.Errorf("期望角色 Editor，实际 %s", p.Role)
	}
	if conn.filter != "(mail=ivan@test.local)" {
		t.Errorf("检索过滤器错误: %s", conn.filter)
	}
	if !conn.closed {
		t.Error("连接应被关闭")
	}
}

func TestLDAP_Authenticate_WrongPassword(t *testing.T) {
	conn := &fakeConn{
		binds: map[string]string{
			"cn=svc,dc=test":           "svc-pass",
			"cn=Ivan,ou=users,dc=test": "secret",
		},
		entries: []*ldap.Entry{ldap.NewEntry("cn=Ivan,ou=users,dc=test", nil)},
	}

	p, err := newFakeLDAP(conn).Authenticate(context.Background(), "ivan@test.local", "wrong")
	if err != nil {
		t.Fatalf("密码错误不应返回 error: %v", err)
	}
	if p != nil {
		t.Error("密码错误应返回 nil Principal")
	}
}

func TestLDAP_Authenticate_UserNotFound(t *testing.T) {
	conn := &fakeConn{binds: map[string]string{"cn=svc,dc=test": "svc-pass"}}

	p, err := newFakeLDAP(conn).Authenticate(context.Background(), "nobody", "x")
	if err != nil || p != nil {
		t.Errorf("未找到用户应返回 (nil, nil)，实际 (%v, %v)", p, err)
	}
}

func TestLDAP_Authenticate_EscapesFilter(t *testing.T) {
	conn := &fakeConn{binds: map[string]string{"cn=svc,dc=test": "svc-pass"}}

	_, _ = newFakeLDAP(conn).Authenticate(context.Background(), "a*)(uid=*", "x")
	if conn.filter != `(mail=a\2a\29\28uid=\2a)` {
		t.Errorf("过滤器未转义: %s", conn.filter)
	}
}

func TestLDAP_Authenticate_EmptyCredentials(t *testing.T) {
	dialed := false
	l := NewLDAPWithDialer(testLDAPConfig(), func(context.Context) (Conn, error) {
		dialed = true
		return &fakeConn{}, nil
	}, zap.NewNop())

	p, err := l.Authenticate(context.Background(), "", "")
	if err != nil || p != nil {
		t.Errorf("空凭据应返回 (nil, nil)")
	}
	if dialed {
		t.Error("空凭据不应连接目录服务")
	}
}

func TestLDAP_Authenticate_MissingAttributes(t *testing.T) {
	conn := &fakeConn{
		binds: map[string]string{
			"cn=svc,dc=test":          "svc-pass",
			"uid=u1,ou=users,dc=test": "pw",
		},
		entries: []*ldap.Entry{ldap.NewEntry("uid=u1,ou=users,dc=test", map[string][]string{})},
	}

	p, err := newFakeLDAP(conn).Authenticate(context.Background(), "u1", "pw")
	if err != nil || p == nil {
		t.Fatalf("应认证成功: %v", err)
	}
	if p.Email != "u1" {
		t.Errorf("缺失 mail 时应回退为用户名，实际 %q", p.Email)
	}
	if p.Department != "" {
		t.Errorf("缺失 department 时应为空，实际 %q", p.Department)
	}
	if p.Role != model.RoleViewer {
		t.Errorf("无组时应为 Viewer，实际 %s", p.Role)
	}
}

func TestLDAP_Authenticate_ServiceBindFails(t *testing.T) {
	conn := &fakeConn{binds: map[string]string{}}

	_, err := newFakeLDAP(conn).Authenticate(context.Background(), "u1", "pw")
	if err == nil {
		t.Error("服务账号绑定失败应返回 error")
	}
}

// ── Static ──

func TestStatic_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成哈希失败: %v", err)
	}
	s := NewStatic([]config.StaticUser{
		{Username: "admin", PasswordHash: string(hash), Role: model.RoleAdmin, Department: "IT"},
		{Username: "odd", PasswordHash: string(hash), Role: "superuser"},
	})

	p, err := s.Authenticate(context.Background(), "ADMIN", "admin-pass")
	if err != nil || p == nil {
		t.Fatalf("正确密码应认证成功: %v", err)
	}
	if p.Role != model.RoleAdmin || p.Email != "admin" || p.DisplayName != "admin" {
		t.Errorf("Principal 字段错误: %+v", p)
	}

	if p, _ := s.Authenticate(context.Background(), "admin", "wrong"); p != nil {
		t.Error("错误密码应返回 nil")
	}
	if p, _ := s.Authenticate(context.Background(), "ghost", "admin-pass"); p != nil {
		t.Error("不存在的用户应返回 nil")
	}
	if p, _ := s.Authenticate(context.Background(), "odd", "admin-pass"); p == nil || p.Role != model.RoleViewer {
		t.Error("未知角色应降级为 Viewer")
	}
}
