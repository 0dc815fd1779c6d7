package middleware

import (
	"github.com/gin-gonic/gin"

	"yolo-backend/internal/domain"
	resp "yolo-backend/internal/transport/http/response"
)

// RecoverJSON 作为 ginzap.CustomRecoveryWithZap 的回调：日志由 ginzap 记录，这里只负责统一响应体
func RecoverJSON(c *gin.Context, _ any) {
	resp.Abort(c, resp.CodeServerError, string(domain.KindInternal), "internal error")
}
