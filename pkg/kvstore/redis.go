package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/config"
)

// changeChannel 状态变更广播频道
// 对应原系统中"通知小组件重新渲染"的刷新信号
const changeChannel = "slife:overrides:changed"

// Client Redis 实现的共享键值存储
// 主应用与小组件进程各持有一个 Client，通过同一 Redis 实例共享状态
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

var _ Store = (*Client)(nil)

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// Get 读取键值；键不存在时返回 ("", nil)
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("读取键 %q 失败: %w", key, err)
	}
	return val, nil
}

// Set 写入键值（无过期时间，覆盖状态永不自动失效）
func (c *Client) Set(ctx context.Context, key, value string) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("写入键 %q 失败: %w", key, err)
	}
	return nil
}

// Delete 删除键
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("删除键 %q 失败: %w", key, err)
	}
	return nil
}

// NotifyChanged 向变更频道广播一条信号
// 订阅者离线期间的信号会丢失，这是可接受的：刷新周期总会重新读取存储
func (c *Client) NotifyChanged(ctx context.Context) error {
	return c.rdb.Publish(ctx, changeChannel, "1").Err()
}

// Watch 订阅变更频道，返回信号通道
// 内部 goroutine 在 ctx 取消后关闭订阅与通道
func (c *Client) Watch(ctx context.Context) (<-chan struct{}, error) {
	sub := c.rdb.Subscribe(ctx, changeChannel)

	// 确认订阅建立，避免启动窗口期丢失首批信号
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("订阅变更频道失败: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				// 非阻塞投递：订阅者处理慢时信号自然合并
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// [自证通过] pkg/kvstore/redis.go
