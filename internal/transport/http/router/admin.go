package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yolo-backend/internal/core/server"
	mdw "yolo-backend/internal/transport/http/middleware"
)

func NewAdminEngine(l *zap.Logger, d Deps) *gin.Engine {
	r := server.NewRouter(l)
	useCommon(r, l, d)

	// 管理端 v1（统一要求管理员）
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.Verifier, true))

	MountAllAdmin(admin)
	MountAdminActions(admin, d)

	return r
}
