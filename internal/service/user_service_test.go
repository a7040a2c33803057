package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
)

func setupTestUserService(t *testing.T, n int) (UserService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	for i := 0; i < n; i++ {
		u := &model.User{Username: string(rune('a'+i)) + "@test.local", Role: model.RoleViewer}
		if err := users.Upsert(context.Background(), u); err != nil {
			t.Fatalf("准备用户失败: %v", err)
		}
	}
	return NewUserService(&repository.Repository{User: users}, zap.NewNop()), users
}

func TestUserList_Paged(t *testing.T) {
	svc, _ := setupTestUserService(t, 5)

	req := &dto.UserListRequest{PaginationRequest: dto.PaginationRequest{Page: 2, PageSize: 2}}
	list, total, err := svc.List(context.Background(), req, adminCaller)
	if err != nil {
		t.Fatalf("列出用户失败: %v", err)
	}
	if total != 5 {
		t.Errorf("期望总数 5，实际 %d", total)
	}
	if len(list) != 2 || list[0].ID != 3 {
		t.Errorf("第 2 页应从 id=3 开始，实际 %+v", list)
	}

	if _, _, err := svc.List(context.Background(), req, Caller{Role: model.RoleEditor}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("非管理员应返回 ErrPermissionDenied，实际: %v", err)
	}
}

func TestUserSetActive(t *testing.T) {
	svc, users := setupTestUserService(t, 2)
	ctx := context.Background()
	admin := Caller{UserID: 1, Role: model.RoleAdmin}

	resp, err := svc.SetActive(ctx, 2, &dto.SetUserActiveRequest{IsActive: boolPtr(false)}, admin)
	if err != nil {
		t.Fatalf("禁用用户失败: %v", err)
	}
	if resp.IsActive || users.users[2].IsActive {
		t.Errorf("用户 2 应被禁用")
	}

	if _, err := svc.SetActive(ctx, 1, &dto.SetUserActiveRequest{IsActive: boolPtr(false)}, admin); !errors.Is(err, ErrUserSelfDisable) {
		t.Errorf("禁用自己应返回 ErrUserSelfDisable，实际: %v", err)
	}
	if _, err := svc.SetActive(ctx, 99, &dto.SetUserActiveRequest{IsActive: boolPtr(true)}, admin); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
	if _, err := svc.SetActive(ctx, 2, &dto.SetUserActiveRequest{IsActive: boolPtr(true)}, Caller{UserID: 2, Role: model.RoleEditor}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("非管理员应返回 ErrPermissionDenied，实际: %v", err)
	}
}
