//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	"dash5s/backend/pkg/database"
	pkgerrors "dash5s/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

// startPostgres 启动一次性 PostgreSQL 容器并返回 DSN 与终止函数
func startPostgres(ctx context.Context) (string, func(), error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "dash5s",
			"POSTGRES_PASSWORD": "dash5s",
			"POSTGRES_DB":       "dash5s_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", nil, err
	}
	terminate := func() { _ = container.Terminate(context.Background()) }

	host, err := container.Host(ctx)
	if err != nil {
		terminate()
		return "", nil, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		terminate()
		return "", nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%s user=dash5s password=dash5s dbname=dash5s_test sslmode=disable TimeZone=UTC",
		host, port.Port())
	return dsn, terminate, nil
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	terminate := func() {}
	if dsn == "" {
		var err error
		dsn, terminate, err = startPostgres(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "启动测试容器失败: %v\n", err)
			os.Exit(1)
		}
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		terminate()
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取连接池失败: %v\n", err)
		terminate()
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		terminate()
		os.Exit(1)
	}

	code := m.Run()
	_ = sqlDB.Close()
	terminate()
	os.Exit(code)
}

// suffix 生成唯一后缀，避免复用外部数据库时互相冲突
func suffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// setupArea 创建编辑人与区域，返回清理函数
func setupArea(t *testing.T) (*repository.Repository, *model.User, *model.Area, func()) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	user := &model.User{Username: "editor-" + suffix(), DisplayName: "Редактор", Role: model.RoleEditor}
	if err := repo.User.Upsert(ctx, user); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	code := suffix()
	area := &model.Area{Name: "Склад", Code: code[len(code)-12:], IsActive: true}
	if err := repo.Area.Create(ctx, area); err != nil {
		t.Fatalf("创建区域失败: %v", err)
	}

	cleanup := func() {
		testDB.Where("id = ?", area.ID).Delete(&model.Area{})
		testDB.Where("id = ?", user.ID).Delete(&model.User{})
	}
	return repo, user, area, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: 约束
// ═══════════════════════════════════════════════════════════

func TestAudit_UniquePerAreaWeek(t *testing.T) {
	repo, user, area, cleanup := setupArea(t)
	defer cleanup()
	ctx := context.Background()

	first := &model.AuditRecord{
		AreaID: area.ID, WeekNumber: 10, Year: 2024,
		Score1S: 2, Score2S: 1, Score3S: 1, Score4S: 1, Score5S: 1, OverallScore: 1.2,
		EditorID: user.ID, Timestamp: time.Now(),
	}
	if err := repo.Audit.Create(ctx, first); err != nil {
		t.Fatalf("创建评分失败: %v", err)
	}

	dup := *first
	dup.ID = 0
	err := repo.Audit.Create(ctx, &dup)
	if !pkgerrors.IsUniqueViolation(err) {
		t.Fatalf("同一区域同一周应违反唯一约束，实际: %v", err)
	}

	// 同周不同年允许
	other := *first
	other.ID = 0
	other.Year = 2025
	if err := repo.Audit.Create(ctx, &other); err != nil {
		t.Errorf("不同年份应允许写入，实际: %v", err)
	}

	got, err := repo.Audit.GetByKey(ctx, area.ID, 10, 2024)
	if err != nil {
		t.Fatalf("GetByKey 失败: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("期望记录 %d，实际 %d", first.ID, got.ID)
	}
}

func TestAudit_ForeignKeyToArea(t *testing.T) {
	repo, user, _, cleanup := setupArea(t)
	defer cleanup()

	err := repo.Audit.Create(context.Background(), &model.AuditRecord{
		AreaID: 999999999, WeekNumber: 1, Year: 2024, EditorID: user.ID, Timestamp: time.Now(),
	})
	if !pkgerrors.IsForeignKeyViolation(err) {
		t.Errorf("不存在的区域应违反外键约束，实际: %v", err)
	}
}

func TestAudit_ListByAreaYears(t *testing.T) {
	repo, user, area, cleanup := setupArea(t)
	defer cleanup()
	ctx := context.Background()

	for _, k := range []struct{ week, year int }{{50, 2023}, {52, 2023}, {1, 2024}, {3, 2024}, {5, 2022}} {
		if err := repo.Audit.Create(ctx, &model.AuditRecord{
			AreaID: area.ID, WeekNumber: k.week, Year: k.year, EditorID: user.ID, Timestamp: time.Now(),
		}); err != nil {
			t.Fatalf("创建评分失败: %v", err)
		}
	}

	list, err := repo.Audit.ListByAreaYears(ctx, area.ID, []int{2023, 2024})
	if err != nil {
		t.Fatalf("ListByAreaYears 失败: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("期望 4 条，实际 %d", len(list))
	}
	for _, a := range list {
		if a.Year == 2022 {
			t.Errorf("不应包含 2022 年记录")
		}
	}
}

func TestAssignment_UniquePerEntity(t *testing.T) {
	repo, user, area, cleanup := setupArea(t)
	defer cleanup()
	ctx := context.Background()

	cl := &model.Checklist{Name: "Цех " + suffix(), Module: "dashboard", IsActive: true, CreatedBy: &user.ID}
	if err := repo.Checklist.Create(ctx, cl); err != nil {
		t.Fatalf("创建检查表失败: %v", err)
	}
	defer testDB.Where("id = ?", cl.ID).Delete(&model.Checklist{})

	a := &model.ChecklistAssignment{ChecklistID: cl.ID, EntityType: "area", EntityID: area.ID}
	if err := repo.Assignment.Create(ctx, a); err != nil {
		t.Fatalf("创建分配失败: %v", err)
	}

	err := repo.Assignment.Create(ctx, &model.ChecklistAssignment{ChecklistID: cl.ID, EntityType: "area", EntityID: area.ID})
	if !errors.Is(err, pkgerrors.ErrUniqueViolation) {
		t.Errorf("同一实体重复分配应违反唯一约束，实际: %v", err)
	}

	got, err := repo.Assignment.GetByEntity(ctx, "area", area.ID)
	if err != nil || got.ChecklistID != cl.ID {
		t.Errorf("GetByEntity 期望检查表 %d，实际 %+v / %v", cl.ID, got, err)
	}
}

func TestResponse_QuestionDeleteRestricted(t *testing.T) {
	repo, user, area, cleanup := setupArea(t)
	defer cleanup()
	ctx := context.Background()

	cl := &model.Checklist{Name: "Цех " + suffix(), Module: "dashboard", IsActive: true}
	if err := repo.Checklist.Create(ctx, cl); err != nil {
		t.Fatalf("创建检查表失败: %v", err)
	}
	sec := &model.ChecklistSection{ChecklistID: cl.ID, Title: "Сортировка"}
	if err := repo.Section.Create(ctx, sec); err != nil {
		t.Fatalf("创建分节失败: %v", err)
	}
	q := &model.ChecklistQuestion{SectionID: sec.ID, QuestionText: "Вопрос", Weight: 1, MaxScore: 2}
	if err := repo.Question.Create(ctx, q); err != nil {
		t.Fatalf("创建问题失败: %v", err)
	}
	audit := &model.AuditRecord{AreaID: area.ID, WeekNumber: 30, Year: 2024, EditorID: user.ID, Timestamp: time.Now()}
	if err := repo.Audit.Create(ctx, audit); err != nil {
		t.Fatalf("创建评分失败: %v", err)
	}
	if err := repo.AuditResponse.Create(ctx, &model.AuditResponse{AuditID: audit.ID, QuestionID: q.ID, Score: 1}); err != nil {
		t.Fatalf("写入作答失败: %v", err)
	}

	err := testDB.WithContext(ctx).Delete(&model.ChecklistQuestion{}, q.ID).Error
	if !pkgerrors.IsForeignKeyViolation(pkgerrors.Translate(err)) {
		t.Errorf("已被作答的问题删除应被外键拒绝，实际: %v", err)
	}
	if n, _ := repo.AuditResponse.CountByQuestions(ctx, []uint{q.ID}); n != 1 {
		t.Errorf("作答应保留，实际 %d 条", n)
	}

	// 区域删除时作答随评分记录级联删除，之后检查表可清理
	testDB.Where("id = ?", area.ID).Delete(&model.Area{})
	if err := testDB.Where("id = ?", cl.ID).Delete(&model.Checklist{}).Error; err != nil {
		t.Errorf("作答清除后检查表应可删除，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Upsert / SetActive
// ═══════════════════════════════════════════════════════════

func TestUser_UpsertKeepsActiveFlag(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	user := &model.User{Username: "upsert-" + suffix(), DisplayName: "Иванов", Role: model.RoleViewer}
	if err := repo.User.Upsert(ctx, user); err != nil {
		t.Fatalf("Upsert 失败: %v", err)
	}
	defer testDB.Where("id = ?", user.ID).Delete(&model.User{})

	if err := repo.User.SetActive(ctx, user.ID, false); err != nil {
		t.Fatalf("SetActive 失败: %v", err)
	}

	again := &model.User{Username: user.Username, DisplayName: "Иванов И.", Role: model.RoleEditor}
	if err := repo.User.Upsert(ctx, again); err != nil {
		t.Fatalf("二次 Upsert 失败: %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("期望同一用户 %d，实际 %d", user.ID, again.ID)
	}
	if again.IsActive {
		t.Error("目录同步不应重新启用被停用的用户")
	}
	if again.Role != model.RoleEditor || again.DisplayName != "Иванов И." {
		t.Errorf("目录属性应被更新，实际 %+v", again)
	}
}

func TestModule_SetActiveNotFound(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	m := &model.CoreModule{Name: "mod-" + suffix(), DisplayName: "Тест", IsActive: true, MenuOrder: 50}
	if err := repo.Module.Create(ctx, m); err != nil {
		t.Fatalf("创建模块失败: %v", err)
	}
	defer testDB.Where("id = ?", m.ID).Delete(&model.CoreModule{})

	if err := repo.Module.SetActive(ctx, m.ID, false); err != nil {
		t.Fatalf("SetActive 失败: %v", err)
	}
	got, err := repo.Module.GetByName(ctx, m.Name)
	if err != nil || got.IsActive {
		t.Errorf("模块应已停用，实际 %+v / %v", got, err)
	}

	// 重复设置同一值不应误报不存在
	if err := repo.Module.SetActive(ctx, m.ID, false); err != nil {
		t.Errorf("重复停用不应报错，实际: %v", err)
	}
	if err := repo.Module.SetActive(ctx, 999999999, true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("不存在的模块应返回 ErrRecordNotFound，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction Rollback
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	repo, user, area, cleanup := setupArea(t)
	defer cleanup()
	ctx := context.Background()

	sentinel := errors.New("回滚")
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Audit.Create(ctx, &model.AuditRecord{
			AreaID: area.ID, WeekNumber: 20, Year: 2024, EditorID: user.ID, Timestamp: time.Now(),
		}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("期望返回回调错误，实际: %v", err)
	}

	if _, err := repo.Audit.GetByKey(ctx, area.ID, 20, 2024); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("事务回滚后不应存在记录，实际: %v", err)
	}
}

func TestTransaction_Commit(t *testing.T) {
	repo, user, area, cleanup := setupArea(t)
	defer cleanup()
	ctx := context.Background()

	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return txRepo.Audit.Create(ctx, &model.AuditRecord{
			AreaID: area.ID, WeekNumber: 21, Year: 2024, EditorID: user.ID, Timestamp: time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("事务提交失败: %v", err)
	}

	n, err := repo.Audit.CountByWeek(ctx, 21, 2024)
	if err != nil || n < 1 {
		t.Errorf("提交后期望至少 1 条，实际 %d / %v", n, err)
	}
}
