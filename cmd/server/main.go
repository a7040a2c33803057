package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dash5s/backend/config"
	"dash5s/backend/internal/api/handler"
	"dash5s/backend/internal/api/router"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/database"
	"dash5s/backend/pkg/directory"
	"dash5s/backend/pkg/jwt"
	applogger "dash5s/backend/pkg/logger"
	"dash5s/backend/pkg/metrics"
	"dash5s/backend/pkg/redis"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "5S 看板 HTTP 服务",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			run(configPath)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) {
	// 1. 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("directory", cfg.Auth.Directory),
	)

	// 3. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	if err := database.Migrate(db, cfg.Database.Driver, logger, model.All()...); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流将降级放行", zap.Error(err))
	}

	// 5. 目录服务
	var dir directory.Authenticator
	switch cfg.Auth.Directory {
	case "static":
		logger.Warn("使用静态目录账号，仅限开发环境", zap.Int("users", len(cfg.Auth.StaticUsers)))
		dir = directory.NewStatic(cfg.Auth.StaticUsers)
	default:
		dir = directory.NewLDAP(cfg.LDAP, logger)
	}

	// 6. 依赖注入: Repository → Service → Handler
	m := metrics.New()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(service.Deps{
		Config:    cfg,
		Repo:      repo,
		JWT:       jwtMgr,
		Directory: dir,
		Redis:     rdb,
		Metrics:   m,
		Logger:    logger,
	})
	h := handler.NewHandler(svc)

	// 6.1 初始数据
	if cfg.Feature.SeedOnStart {
		seed(svc, logger)
	}

	// 7. 初始化路由
	engine := router.Setup(router.Deps{
		Config:  cfg,
		Handler: h,
		Service: svc,
		JWT:     jwtMgr,
		Redis:   rdb,
		Metrics: m,
		Logger:  logger,
	})

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if err := database.Close(db); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Error("关闭 Redis 连接失败", zap.Error(err))
	}

	logger.Info("服务器已关闭")
}

// seed 写入默认模块与示例区域；两者均幂等
func seed(svc *service.Service, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	modules, err := svc.Module.SeedDefaults(ctx)
	if err != nil {
		logger.Fatal("初始化模块失败", zap.Error(err))
	}
	areas, err := svc.Area.SeedSamples(ctx)
	if err != nil {
		logger.Fatal("初始化示例区域失败", zap.Error(err))
	}
	logger.Info("初始数据就绪", zap.Int("modules", modules), zap.Int("areas", areas))
}
