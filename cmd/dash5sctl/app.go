package main

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dash5s/backend/config"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/database"
	applogger "dash5s/backend/pkg/logger"
)

// operator 命令行以管理员身份调用 Service
var operator = service.Caller{Role: model.RoleAdmin}

// app 按需建立配置、日志与数据库连接
type app struct {
	configPath string

	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func (a *app) open() error {
	if a.db != nil {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}

	a.cfg, a.logger, a.db = cfg, logger, db
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = database.Close(a.db)
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) migrate() error {
	return database.Migrate(a.db, a.cfg.Database.Driver, a.logger, model.All()...)
}

// services 构造命令行需要的 Service（不含认证与目录服务）
func (a *app) services() (service.ModuleService, service.AreaService) {
	repo := repository.NewRepository(a.db)
	return service.NewModuleService(repo, a.logger), service.NewAreaService(&a.cfg.Audit, repo, a.logger)
}
