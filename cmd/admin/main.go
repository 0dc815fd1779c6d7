package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"yolo-backend/internal/app"
	"yolo-backend/internal/core/config"
	"yolo-backend/internal/core/logger"
	"yolo-backend/internal/core/server"
	"yolo-backend/internal/domain"
	"yolo-backend/internal/feature/user"
	"yolo-backend/internal/transport/http/router"
)

func main() {
	cfgPath := pflag.String("config", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")
	pflag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(*cfgPath)
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zap.InfoLevel)()
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.ToWriter(log, zap.DebugLevel)

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()

	// 首个管理员：APP_ADMIN_USERNAME / APP_ADMIN_PASSWORD，已存在则跳过
	if name, pass := os.Getenv("APP_ADMIN_USERNAME"), os.Getenv("APP_ADMIN_PASSWORD"); name != "" && pass != "" {
		ensureAdmin(a, log, name, pass)
	}

	r := router.NewAdminEngine(log, a.Deps(cfg.Limits))

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	rt, wt, it := cfg.App.Admin.Timeouts()
	srv := server.BuildServer(addr, r, rt, wt, it, log)

	host4human := cfg.App.Admin.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.Admin.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("admin api shutdown", zap.Error(err))
	}
	log.Info("admin api stopped gracefully")
}

func ensureAdmin(a *app.App, log *zap.Logger, name, pass string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	codes, err := a.Catalog.AllCodes(ctx)
	if err != nil {
		log.Fatal("bootstrap admin", zap.Error(err))
	}
	in := user.CreateInput{
		RegisterInput: user.RegisterInput{Username: name, Password: pass},
		MenuCodes:     codes.Sorted(),
		IsAdmin:       true,
	}
	_, err = a.Users.CreateUser(ctx, in, "SYSTEM")
	switch {
	case err == nil:
		log.Info("bootstrap admin created", zap.String("username", name))
	case errors.Is(err, domain.ErrConflict):
		log.Debug("bootstrap admin exists", zap.String("username", name))
	default:
		log.Fatal("bootstrap admin", zap.Error(err))
	}
}
