package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"yolo-backend/internal/core/auth"
	"yolo-backend/internal/domain"
	resp "yolo-backend/internal/transport/http/response"
)

// gin.Context 中的鉴权信息
const (
	KeyClaims   = "claims"
	KeyUserID   = "userId"
	KeyUsername = "username"
	KeyIsAdmin  = "isAdmin"
)

type Verifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthJWT 无令牌 401 AUTHENTICATION_REQUIRED；校验失败 401 AUTHENTICATION_FAILED；
// requireAdmin 且非管理员 403 FORBIDDEN。资源归属由下游用 RequireOwner 判断。
func AuthJWT(v Verifier, requireAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			reject(c, resp.CodeUnauthorized, domain.KindAuthRequired, "missing token")
			return
		}
		claims, err := v.Verify(tok)
		if err != nil {
			reject(c, resp.CodeUnauthorized, domain.KindAuthFailed, err.Error())
			return
		}
		if requireAdmin && !claims.IsAdmin {
			reject(c, resp.CodeForbidden, domain.KindForbidden, "admin only")
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

func bearer(h string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func reject(c *gin.Context, code int, kind domain.Kind, msg string) {
	authRejected.WithLabelValues(string(kind)).Inc()
	resp.Abort(c, code, string(kind), msg)
}

func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

// RequireOwner 资源归属校验：非本人一律 FORBIDDEN，管理员也不例外
func RequireOwner(c *gin.Context, ownerID string) error {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return domain.ErrAuthRequired
	}
	if ownerID == "" || claims.UID != ownerID {
		return domain.Forbidden("not the owner of this resource")
	}
	return nil
}
