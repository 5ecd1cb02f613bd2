package app

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/dashboard/internal/bookmarks"
	"github.com/MrSnakeDoc/dashboard/internal/config"
	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
	"github.com/MrSnakeDoc/dashboard/internal/mongo"
	"github.com/MrSnakeDoc/dashboard/internal/redis"
	"github.com/MrSnakeDoc/dashboard/internal/store/memory"
	mongostore "github.com/MrSnakeDoc/dashboard/internal/store/mongo"
	redisstore "github.com/MrSnakeDoc/dashboard/internal/store/redis"
)

// Backend is an opened bookmark repository plus its shutdown hook.
type Backend struct {
	Name  string
	Repo  domain.Repository
	Close func(ctx context.Context) error
}

// OpenBackend connects the repository selected by cfg.Store.
// Connection failures wrap domain.ErrConnection and are fatal for the caller.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	switch cfg.Store {
	case config.StoreMongo:
		gw := mongo.NewGateway(mongo.ConnectOptions{
			URI:                    cfg.MongoURI,
			Database:               cfg.MongoDB,
			ConnectTimeout:         cfg.MongoConnectTimeout,
			ServerSelectionTimeout: cfg.MongoServerSelectionTimeout,
			MaxPoolSize:            uint64(max(cfg.MongoMaxPoolSize, 0)),
		}, log)
		// Dial now so a bad URI or an unreachable server stops startup.
		if _, err := gw.Connect(ctx); err != nil {
			return nil, err
		}
		return &Backend{
			Name:  config.StoreMongo,
			Repo:  mongostore.NewStore(gw),
			Close: gw.Close,
		}, nil

	case config.StoreRedis:
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Name:  config.StoreRedis,
			Repo:  redisstore.NewStore(client, log),
			Close: func(context.Context) error { return client.Close() },
		}, nil

	case config.StoreMemory:
		log.Warn("using in-memory store, bookmarks are lost on restart")
		return &Backend{
			Name:  config.StoreMemory,
			Repo:  memory.NewStore(),
			Close: func(context.Context) error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown store %q", domain.ErrConnection, cfg.Store)
	}
}

// NewService wraps the backend repository in the bookmark service.
func (b *Backend) NewService(log logger.Logger) *bookmarks.Service {
	return bookmarks.NewService(b.Repo, log.With(logger.String("store", b.Name)))
}
