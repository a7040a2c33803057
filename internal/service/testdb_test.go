package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dash5s/backend/config"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
)

// fixedNow 测试统一的"当前时间"：2024-01-10（ISO 第 2 周）
var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func testAuditConfig() *config.AuditConfig {
	return &config.AuditConfig{
		MinYear:       2023,
		MaxYear:       2030,
		HistoryWeeks:  12,
		RecentLimit:   5,
		ChartLimit:    8,
		RollingWindow: 14 * 24 * time.Hour,
	}
}

// newTestRepo 基于内存 SQLite 的真实 Repository，约束与事务行为与生产一致
func newTestRepo(t *testing.T) *repository.Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取 sql.DB 失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return repository.NewRepository(db)
}

func createUser(t *testing.T, repo *repository.Repository, username, role string) *model.User {
	t.Helper()
	u := &model.User{Username: username, DisplayName: username, Role: role}
	if err := repo.User.Upsert(context.Background(), u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u
}

func createArea(t *testing.T, repo *repository.Repository, name, code string) *model.Area {
	t.Helper()
	a := &model.Area{Name: name, Code: code, IsActive: true}
	if err := repo.Area.Create(context.Background(), a); err != nil {
		t.Fatalf("创建区域失败: %v", err)
	}
	return a
}

// insertAudit 直接写入评分记录（跳过业务校验，用于准备历史数据）
func insertAudit(t *testing.T, repo *repository.Repository, areaID, editorID uint, week, year int, overall float64, ts time.Time) *model.AuditRecord {
	t.Helper()
	a := &model.AuditRecord{
		AreaID:       areaID,
		WeekNumber:   week,
		Year:         year,
		Score1S:      overall,
		Score2S:      overall,
		Score3S:      overall,
		Score4S:      overall,
		Score5S:      overall,
		OverallScore: overall,
		EditorID:     editorID,
		Timestamp:    ts.UTC(),
	}
	if err := repo.Audit.Create(context.Background(), a); err != nil {
		t.Fatalf("写入评分记录失败: %v", err)
	}
	return a
}

type checklistFixture struct {
	checklist *model.Checklist
	section   *model.ChecklistSection
	questions []*model.ChecklistQuestion
}

// createChecklist 一个检查表 + 一个分节 + n 个问题（max_score=2）
func createChecklist(t *testing.T, repo *repository.Repository, name string, n int) *checklistFixture {
	t.Helper()
	ctx := context.Background()

	cl := &model.Checklist{Name: name, Module: "dashboard", Version: "1.0", IsActive: true}
	if err := repo.Checklist.Create(ctx, cl); err != nil {
		t.Fatalf("创建检查表失败: %v", err)
	}
	sec := &model.ChecklistSection{ChecklistID: cl.ID, Title: "Сортировка", OrderNum: 1}
	if err := repo.Section.Create(ctx, sec); err != nil {
		t.Fatalf("创建分节失败: %v", err)
	}

	fx := &checklistFixture{checklist: cl, section: sec}
	for i := 0; i < n; i++ {
		q := &model.ChecklistQuestion{
			SectionID:    sec.ID,
			OrderNum:     i + 1,
			QuestionText: "Вопрос",
			Weight:       1,
			IsRequired:   true,
			MaxScore:     2,
		}
		if err := repo.Question.Create(ctx, q); err != nil {
			t.Fatalf("创建问题失败: %v", err)
		}
		fx.questions = append(fx.questions, q)
	}
	return fx
}

func f64(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func uintPtr(v uint) *uint { return &v }

func boolPtr(v bool) *bool { return &v }
