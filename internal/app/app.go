// Package app 组装两个入口共用的依赖：数据库、缓存、令牌、菜单目录与账号服务。
package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"yolo-backend/internal/core/auth"
	"yolo-backend/internal/core/cache"
	"yolo-backend/internal/core/config"
	"yolo-backend/internal/core/database"
	"yolo-backend/internal/feature/menu"
	"yolo-backend/internal/feature/user"
	"yolo-backend/internal/transport/http/router"
)

type App struct {
	DB      *gorm.DB
	Cache   *cache.Cache // redis 未配置时为 nil
	JWT     *auth.JWTer
	Catalog *menu.Catalog
	Users   *user.Service
	log     *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.NewGorm(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		log.Info("automigrate done")
	}

	a := &App{DB: db, log: log}
	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := c.Ping(pctx); err != nil {
			// 缓存不可用不阻止启动，目录直接读库
			log.Warn("redis unavailable, menu cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
		} else {
			a.Cache = c
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	prev := make([][]byte, 0, len(cfg.JWT.PreviousSecrets))
	for _, s := range cfg.JWT.PreviousSecrets {
		if s != "" {
			prev = append(prev, []byte(s))
		}
	}
	a.JWT = &auth.JWTer{
		Secret:          []byte(cfg.JWT.Secret),
		PreviousSecrets: prev,
		Issuer:          cfg.JWT.Issuer,
		TTL:             cfg.JWT.TTL(),
	}

	a.Catalog = menu.NewCatalog(db, a.Cache, time.Duration(cfg.Menu.CacheTTLSec)*time.Second, log)
	n, err := a.Catalog.Seed(ctx, cfg.Menu.Seed)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		log.Info("menu catalog seeded", zap.Int("count", n))
	}
	a.Users = user.NewService(db, a.Catalog, a.JWT, log)

	return a, nil
}

func (a *App) Deps(lim config.Limits) router.Deps {
	return router.Deps{
		Users:    a.Users,
		Catalog:  a.Catalog,
		Verifier: a.JWT,
		Limits:   lim,
		Ready:    a.ready,
	}
}

func (a *App) ready() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.New("database unreachable")
	}
	if err := a.Cache.Ping(ctx); err != nil {
		return errors.New("redis unreachable")
	}
	return nil
}

func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		a.log.Warn("close redis", zap.Error(err))
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
