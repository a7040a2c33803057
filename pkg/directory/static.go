package directory

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"dash5s/backend/config"
	"dash5s/backend/internal/model"
)

// Static 配置文件中的静态账号目录（无目录服务的开发环境）
type Static struct {
	users map[string]config.StaticUser
}

// NewStatic 创建静态目录；用户名不区分大小写
func NewStatic(users []config.StaticUser) *Static {
	m := make(map[string]config.StaticUser, len(users))
	for _, u := range users {
		m[strings.ToLower(u.Username)] = u
	}
	return &Static{users: m}
}

// Authenticate 校验 bcrypt 密码哈希
func (s *Static) Authenticate(_ context.Context, username, password string) (*Principal, error) {
	if username == "" || password == "" {
		return nil, nil
	}

	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}

	role := u.Role
	switch role {
	case model.RoleAdmin, model.RoleEditor, model.RoleViewer:
	default:
		role = model.RoleViewer
	}

	p := &Principal{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Department:  u.Department,
		Role:        role,
	}
	if p.DisplayName == "" {
		p.DisplayName = u.Username
	}
	if p.Email == "" {
		p.Email = u.Username
	}
	return p, nil
}
