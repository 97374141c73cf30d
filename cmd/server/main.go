package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/config"
	"github.com/inw2st/SchoolLife/internal/api/handler"
	"github.com/inw2st/SchoolLife/internal/api/router"
	"github.com/inw2st/SchoolLife/internal/neis"
	"github.com/inw2st/SchoolLife/internal/override"
	"github.com/inw2st/SchoolLife/internal/service"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
	applogger "github.com/inw2st/SchoolLife/pkg/logger"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
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

	logger.Info("主应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接共享键值存储
	// 两个进程唯一的共享资源，连接失败直接退出
	kv, err := kvstore.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("共享存储连接失败", zap.Error(err))
	}
	defer kv.Close()
	logger.Info("共享存储连接成功", zap.String("addr", cfg.Redis.Addr))

	// 4. 初始化 NEIS 客户端
	fetcher := neis.NewClient(&cfg.NEIS, logger)

	// 5. 依赖注入: 覆盖存储 → Service → Handler
	overrides := override.NewStore(kv, logger)
	svc := service.NewService(kv, overrides, fetcher, logger)
	h := handler.NewHandler(svc, kv)

	// 6. 初始化路由
	engine := router.Setup(cfg, h, logger)

	// 7. 启动 HTTP 服务器（优雅关闭）
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

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
}
