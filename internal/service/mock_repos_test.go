package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"dash5s/backend/internal/model"
	pkgerrors "dash5s/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// Upsert 与真实实现一致：冲突时只更新目录属性，保留 is_active
func (m *mockUserRepo) Upsert(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleViewer
	}
	if existing, err := m.GetByUsername(ctx, user.Username); err == nil {
		stored := m.users[existing.ID]
		stored.DisplayName = user.DisplayName
		stored.Email = user.Email
		stored.Department = user.Department
		stored.Role = user.Role
		stored.LastLogin = user.LastLogin
		*user = *stored
		return nil
	}
	m.nextID++
	user.ID = m.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) SetActive(_ context.Context, id uint, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = active
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	all := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *mockUserRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

// ── Mock ModuleRepository ──

type mockModuleRepo struct {
	modules map[uint]*model.CoreModule
	nextID  uint
}

func newMockModuleRepo() *mockModuleRepo {
	return &mockModuleRepo{modules: make(map[uint]*model.CoreModule)}
}

func (m *mockModuleRepo) Create(_ context.Context, mod *model.CoreModule) error {
	for _, existing := range m.modules {
		if existing.Name == mod.Name {
			return pkgerrors.ErrUniqueViolation
		}
	}
	m.nextID++
	mod.ID = m.nextID
	cp := *mod
	m.modules[mod.ID] = &cp
	return nil
}

func (m *mockModuleRepo) GetByID(_ context.Context, id uint) (*model.CoreModule, error) {
	if mod, ok := m.modules[id]; ok {
		cp := *mod
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockModuleRepo) GetByName(_ context.Context, name string) (*model.CoreModule, error) {
	for _, mod := range m.modules {
		if mod.Name == name {
			cp := *mod
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockModuleRepo) List(_ context.Context, activeOnly bool) ([]model.CoreModule, error) {
	var result []model.CoreModule
	for _, mod := range m.modules {
		if activeOnly && !mod.IsActive {
			continue
		}
		result = append(result, *mod)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MenuOrder < result[j].MenuOrder })
	return result, nil
}

func (m *mockModuleRepo) SetActive(_ context.Context, id uint, active bool) error {
	mod, ok := m.modules[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	mod.IsActive = active
	return nil
}

func (m *mockModuleRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.modules)), nil
}

// ── Mock FeedbackRepository ──

type mockFeedbackRepo struct {
	messages map[uint]*model.FeedbackMessage
	nextID   uint
}

func newMockFeedbackRepo() *mockFeedbackRepo {
	return &mockFeedbackRepo{messages: make(map[uint]*model.FeedbackMessage)}
}

func (m *mockFeedbackRepo) Create(_ context.Context, msg *model.FeedbackMessage) error {
	m.nextID++
	msg.ID = m.nextID
	// 递增时间保证排序稳定
	msg.CreatedAt = time.Date(2024, 1, 1, 0, 0, int(msg.ID), 0, time.UTC)
	msg.UpdatedAt = msg.CreatedAt
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *mockFeedbackRepo) GetByID(_ context.Context, id uint) (*model.FeedbackMessage, error) {
	if msg, ok := m.messages[id]; ok {
		cp := *msg
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFeedbackRepo) sorted(match func(*model.FeedbackMessage) bool) []model.FeedbackMessage {
	var result []model.FeedbackMessage
	for _, msg := range m.messages {
		if match(msg) {
			result = append(result, *msg)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (m *mockFeedbackRepo) ListByUser(_ context.Context, userID uint) ([]model.FeedbackMessage, error) {
	return m.sorted(func(msg *model.FeedbackMessage) bool { return msg.UserID == userID }), nil
}

func (m *mockFeedbackRepo) List(_ context.Context, status string, offset, limit int) ([]model.FeedbackMessage, int64, error) {
	all := m.sorted(func(msg *model.FeedbackMessage) bool { return status == "" || msg.Status == status })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.FeedbackMessage{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockFeedbackRepo) Update(_ context.Context, msg *model.FeedbackMessage) error {
	if _, ok := m.messages[msg.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

// ── Mock VisitLogRepository ──

type mockVisitLogRepo struct {
	logs []model.VisitLog
}

func (m *mockVisitLogRepo) Create(_ context.Context, log *model.VisitLog) error {
	log.ID = uint(len(m.logs) + 1)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockVisitLogRepo) ListRecent(_ context.Context, limit int) ([]model.VisitLog, error) {
	var result []model.VisitLog
	for i := len(m.logs) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.logs[i])
	}
	return result, nil
}

// ── Mock TokenStore ──

type mockTokenStore struct {
	blacklist map[string]time.Duration
	attempts  map[string]int
	failWith  error
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{blacklist: make(map[string]time.Duration), attempts: make(map[string]int)}
}

func (m *mockTokenStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.blacklist[jti] = ttl
	return nil
}

func (m *mockTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.blacklist[jti]
	return ok, nil
}

func (m *mockTokenStore) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	m.attempts[key]++
	return limit <= 0 || m.attempts[key] <= limit, nil
}
