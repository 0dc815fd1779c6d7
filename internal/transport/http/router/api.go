package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"yolo-backend/internal/core/config"
	"yolo-backend/internal/core/server"
	"yolo-backend/internal/feature/menu"
	"yolo-backend/internal/feature/user"
	"yolo-backend/internal/transport/http/ez"
	mdw "yolo-backend/internal/transport/http/middleware"
)

// Deps 两个引擎共用的依赖
type Deps struct {
	Users    *user.Service
	Catalog  *menu.Catalog
	Verifier mdw.Verifier
	Limits   config.Limits
	Ready    func() error // /health 探活，可为空
}

func useCommon(r *gin.Engine, l *zap.Logger, d Deps) {
	lim := d.Limits
	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(l),
		mdw.Metrics(),
	)
	if lim.RPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(lim.RPS), max(lim.Burst, 1)))
	}
	if lim.Concurrency > 0 {
		r.Use(mdw.ConcurrencyLimit(lim.Concurrency))
	}
	if lim.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(lim.MaxBodyBytes))
	}
	if lim.TimeoutSec > 0 {
		r.Use(mdw.Timeout(time.Duration(lim.TimeoutSec) * time.Second))
	}

	// 健康检查 + 指标
	r.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func NewAPIEngine(l *zap.Logger, d Deps) *gin.Engine {
	r := server.NewRouter(l)
	useCommon(r, l, d)

	api := r.Group("/api/v1")

	// 鉴权分组（/me 与归属资源必须挂这里，才能拿到 userId）
	authUser := api.Group("")
	authUser.Use(mdw.AuthJWT(d.Verifier, false))

	mountAuthActions(api, authUser, d)

	// 功能模块（如旅行日记）通过 Register 自行挂载
	MountAllAPI(authUser)

	return r
}

// ---------- 动作注册：/auth/* + /me ----------

func mountAuthActions(api, authUser *gin.RouterGroup, d Deps) {
	login := api.Group("/auth")
	if d.Limits.LoginRPS > 0 {
		login.Use(mdw.RateLimitPerIP(rate.Limit(d.Limits.LoginRPS), max(d.Limits.LoginBurst, 1)))
	}
	ezPublic := ez.New(login)

	ez.RegisterAction(ezPublic, ez.Action[user.RegisterInput, *user.AuthResult]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *user.RegisterInput) (*user.AuthResult, error) {
			return d.Users.Register(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(ezPublic, ez.Action[user.LoginInput, *user.LoginResult]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *user.LoginInput) (*user.LoginResult, error) {
			return d.Users.Login(c.Request.Context(), *in)
		},
	})

	ezAuth := ez.New(authUser)

	ezAuth.GET("/me", func(c *gin.Context) (any, error) {
		return d.Users.Profile(c.Request.Context(), c.GetString(mdw.KeyUserID))
	})

	ezAuth.GET("/me/menus", func(c *gin.Context) (any, error) {
		return d.Users.MenuTree(c.Request.Context(), c.GetString(mdw.KeyUserID))
	})

	// 注销账号（软删）
	ez.RegisterAction(ezAuth, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			uid := c.GetString(mdw.KeyUserID)
			if err := d.Users.SoftDelete(c.Request.Context(), uid); err != nil {
				return nil, err
			}
			return gin.H{"userId": uid}, nil
		},
	})
}
