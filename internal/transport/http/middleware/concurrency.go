package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "yolo-backend/internal/transport/http/response"
)

// ConcurrencyLimit 同时处理的请求超过 n 时直接 503，不排队
func ConcurrencyLimit(n int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(n)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			resp.Abort(c, resp.CodeBusy, "", "server busy")
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
