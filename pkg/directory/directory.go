// Package directory 目录服务认证：LDAP / Active Directory 与本地静态账号
package directory

import (
	"context"
	"strings"

	"dash5s/backend/internal/model"
)

// Principal 目录服务认证通过后返回的主体信息
type Principal struct {
	Username    string
	DisplayName string
	Email       string
	Department  string
	Role        string
}

// Authenticator 目录认证接口
// 凭据错误返回 (nil, nil)；仅目录服务不可用等异常返回 error
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Principal, error)
}

// RoleFromGroups 根据组成员关系推导角色：管理员组优先，其次编辑组，否则只读
func RoleFromGroups(groups []string, adminGroup, editorGroup string) string {
	isEditor := false
	for _, g := range groups {
		if adminGroup != "" && strings.EqualFold(g, adminGroup) {
			return model.RoleAdmin
		}
		if editorGroup != "" && strings.EqualFold(g, editorGroup) {
			isEditor = true
		}
	}
	if isEditor {
		return model.RoleEditor
	}
	return model.RoleViewer
}
