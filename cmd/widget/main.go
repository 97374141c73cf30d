package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/config"
	"github.com/inw2st/SchoolLife/internal/neis"
	"github.com/inw2st/SchoolLife/internal/override"
	"github.com/inw2st/SchoolLife/internal/widget"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
	applogger "github.com/inw2st/SchoolLife/pkg/logger"
)

// 小组件进程入口。与主应用 (cmd/server) 完全独立运行，
// 二者只通过共享键值存储与变更信号通信。

func main() {
	// 1. 加载配置（与主应用共用同一份）
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

	logger.Info("小组件进程启动中...",
		zap.Duration("refresh_interval", cfg.Widget.RefreshInterval),
	)

	// 3. 连接共享键值存储
	kv, err := kvstore.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("共享存储连接失败", zap.Error(err))
	}
	defer kv.Close()
	logger.Info("共享存储连接成功", zap.String("addr", cfg.Redis.Addr))

	// 4. 初始化 NEIS 客户端与覆盖存储（小组件侧独立实例）
	fetcher := neis.NewClient(&cfg.NEIS, logger)
	overrides := override.NewStore(kv, logger)

	// 5. 运行刷新循环，收到信号后退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refresher := widget.NewRefresher(kv, overrides, fetcher, cfg.Widget.RefreshInterval, logger)
	if err := refresher.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("刷新循环异常退出", zap.Error(err))
	}

	logger.Info("小组件进程已退出")
}
