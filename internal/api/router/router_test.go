package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dash5s/backend/config"
	"dash5s/backend/internal/api/handler"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/database"
	"dash5s/backend/pkg/directory"
	"dash5s/backend/pkg/jwt"
	"dash5s/backend/pkg/metrics"
)

const testPassword = "s3cret-pass"

// setupEngine 组装完整路由：内存 SQLite + 静态目录，无 Redis
func setupEngine(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := zap.NewNop()
	if err := database.Migrate(db, "sqlite", log, model.All()...); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{BodyLimit: 1 << 20},
		Auth: config.AuthConfig{
			JWTSecret:               "router-test-secret-key",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  time.Hour,
			RefreshTokenTTLRemember: 24 * time.Hour,
			LoginRateLimit:          100,
			LoginRateWindow:         time.Minute,
			StaticUsers: []config.StaticUser{
				{Username: "admin", PasswordHash: string(hash), DisplayName: "Администратор", Role: model.RoleAdmin},
				{Username: "viewer", PasswordHash: string(hash), DisplayName: "Наблюдатель", Role: model.RoleViewer},
			},
		},
		Audit: config.AuditConfig{
			MinYear:       2020,
			MaxYear:       2100,
			HistoryWeeks:  12,
			RecentLimit:   5,
			ChartLimit:    8,
			RollingWindow: 14 * 24 * time.Hour,
		},
		Feature: config.FeatureConfig{MetricsEnabled: true},
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)
	m := metrics.New()
	svc := service.NewService(service.Deps{
		Config:    cfg,
		Repo:      repository.NewRepository(db),
		JWT:       jwtMgr,
		Directory: directory.NewStatic(cfg.Auth.StaticUsers),
		Metrics:   m,
		Logger:    log,
	})
	if _, err := svc.Module.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("初始化模块失败: %v", err)
	}

	return Setup(Deps{
		Config:  cfg,
		Handler: handler.NewHandler(svc),
		Service: svc,
		JWT:     jwtMgr,
		Metrics: m,
		Logger:  log,
	})
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func login(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()

	code, env := call(t, r, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	if code != http.StatusOK {
		t.Fatalf("登录 %s 失败: %d", username, code)
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	_ = json.Unmarshal(env.Data, &tok)
	if tok.AccessToken == "" {
		t.Fatal("登录响应缺少 access_token")
	}
	return tok.AccessToken
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := setupEngine(t)

	if code, _ := call(t, r, "GET", "/health", "", nil); code != http.StatusOK {
		t.Errorf("/health 期望 200，实际 %d", code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("dash5s_http_requests_total")) {
		t.Errorf("/metrics 应输出请求计数，状态 %d", w.Code)
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	r := setupEngine(t)

	if code, _ := call(t, r, "GET", "/api/v1/areas", "", nil); code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", code)
	}
	if code, _ := call(t, r, "POST", "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "wrong"}); code != http.StatusUnauthorized {
		t.Errorf("错误密码期望 401，实际 %d", code)
	}
}

func TestRouter_AuditFlow(t *testing.T) {
	r := setupEngine(t)
	adminToken := login(t, r, "admin")
	viewerToken := login(t, r, "viewer")

	// 创建区域
	code, env := call(t, r, "POST", "/api/v1/areas", adminToken, map[string]string{"name": "Склад", "code": "SKL"})
	if code != http.StatusCreated {
		t.Fatalf("创建区域期望 201，实际 %d", code)
	}
	var area struct {
		ID uint `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &area)

	// Viewer 无权创建区域
	if code, _ := call(t, r, "POST", "/api/v1/areas", viewerToken, map[string]string{"name": "X", "code": "X"}); code != http.StatusForbidden {
		t.Errorf("Viewer 创建区域期望 403，实际 %d", code)
	}

	audit := map[string]any{
		"area_id": area.ID, "week_number": 2, "year": 2024,
		"score_1s": 2, "score_2s": 1, "score_3s": 1, "score_4s": 1, "score_5s": 1,
	}

	// Viewer 无权评分
	if code, _ := call(t, r, "POST", "/api/v1/audits", viewerToken, audit); code != http.StatusForbidden {
		t.Errorf("Viewer 评分期望 403，实际 %d", code)
	}

	code, env = call(t, r, "POST", "/api/v1/audits", adminToken, audit)
	if code != http.StatusCreated {
		t.Fatalf("评分期望 201，实际 %d", code)
	}
	var created struct {
		ID           uint    `json:"id"`
		OverallScore float64 `json:"overall_score"`
	}
	_ = json.Unmarshal(env.Data, &created)
	if created.OverallScore != 1.2 {
		t.Errorf("期望 overall 1.2，实际 %v", created.OverallScore)
	}

	// 同一周重复评分：409 并返回已存在记录
	code, env = call(t, r, "POST", "/api/v1/audits", adminToken, audit)
	if code != http.StatusConflict {
		t.Fatalf("重复评分期望 409，实际 %d", code)
	}
	var dup struct {
		AuditID  uint   `json:"audit_id"`
		Redirect string `json:"redirect"`
	}
	_ = json.Unmarshal(env.Data, &dup)
	if dup.AuditID != created.ID {
		t.Errorf("应返回已存在记录 %d，实际 %d", created.ID, dup.AuditID)
	}
	if dup.Redirect != fmt.Sprintf("/api/v1/areas/%d", area.ID) {
		t.Errorf("跳转地址错误: %s", dup.Redirect)
	}

	// 周次越界
	bad := map[string]any{"area_id": area.ID, "week_number": 54, "year": 2024}
	if code, _ := call(t, r, "POST", "/api/v1/audits", adminToken, bad); code != http.StatusBadRequest {
		t.Errorf("周次越界期望 400，实际 %d", code)
	}

	// Viewer 可查看详情
	if code, _ := call(t, r, "GET", fmt.Sprintf("/api/v1/areas/%d", area.ID), viewerToken, nil); code != http.StatusOK {
		t.Errorf("区域详情期望 200，实际 %d", code)
	}
	if code, _ := call(t, r, "GET", "/api/v1/dashboard", viewerToken, nil); code != http.StatusOK {
		t.Errorf("看板期望 200，实际 %d", code)
	}
}

func TestRouter_ModuleToggle(t *testing.T) {
	r := setupEngine(t)
	adminToken := login(t, r, "admin")

	code, env := call(t, r, "GET", "/api/v1/admin/modules", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("模块列表期望 200，实际 %d", code)
	}
	var modules struct {
		List []struct {
			ID   uint   `json:"id"`
			Name string `json:"name"`
		} `json:"list"`
	}
	_ = json.Unmarshal(env.Data, &modules)

	var feedbackID uint
	for _, m := range modules.List {
		if m.Name == service.ModuleFeedback {
			feedbackID = m.ID
		}
	}
	if feedbackID == 0 {
		t.Fatal("缺少 feedback 模块")
	}

	msg := map[string]string{"message": "Не хватает контейнеров для мусора"}
	if code, _ := call(t, r, "POST", "/api/v1/feedback", adminToken, msg); code != http.StatusCreated {
		t.Fatalf("提交反馈期望 201，实际 %d", code)
	}

	path := fmt.Sprintf("/api/v1/admin/modules/%d", feedbackID)
	if code, _ := call(t, r, "PUT", path, adminToken, map[string]bool{"is_active": false}); code != http.StatusOK {
		t.Fatalf("停用模块期望 200，实际 %d", code)
	}
	if code, _ := call(t, r, "POST", "/api/v1/feedback", adminToken, msg); code != http.StatusNotFound {
		t.Errorf("模块停用后期望 404，实际 %d", code)
	}
}
