package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"yolo-backend/internal/domain"
	mdw "yolo-backend/internal/transport/http/middleware"
	resp "yolo-backend/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

func (e EZ) GET(path string, h func(c *gin.Context) (any, error)) {
	e.g.GET(path, func(c *gin.Context) {
		data, err := h(c)
		if err != nil {
			Fail(c, err)
			return
		}
		resp.JSON(c, resp.OK(data))
	})
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 统一错误对象（配合 resp.Error(int, msg)）
type AErr struct {
	Code int
	Kind domain.Kind
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error {
	return &AErr{Code: resp.CodeBadRequest, Kind: domain.KindBadRequest, Msg: msg}
}
func Unauthorized(msg string) error {
	return &AErr{Code: resp.CodeUnauthorized, Kind: domain.KindAuthRequired, Msg: msg}
}
func Forbidden(msg string) error {
	return &AErr{Code: resp.CodeForbidden, Kind: domain.KindForbidden, Msg: msg}
}
func NotFound(msg string) error {
	return &AErr{Code: resp.CodeNotFound, Kind: domain.KindNotFound, Msg: msg}
}
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Kind: domain.KindInternal, Msg: msg, Err: err}
}

var kindCodes = map[domain.Kind]int{
	domain.KindAuthRequired: resp.CodeUnauthorized,
	domain.KindAuthFailed:   resp.CodeUnauthorized,
	domain.KindForbidden:    resp.CodeForbidden,
	domain.KindNotFound:     resp.CodeNotFound,
	domain.KindConflict:     resp.CodeConflict,
	domain.KindBadRequest:   resp.CodeBadRequest,
	domain.KindIntegrity:    resp.CodeServerError,
	domain.KindInternal:     resp.CodeServerError,
}

// FromError 业务错误映射为 AErr；内部错误不向外暴露细节
func FromError(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	var de *domain.Error
	if errors.As(err, &de) {
		code, ok := kindCodes[de.Kind]
		if !ok {
			code = resp.CodeServerError
		}
		if code == resp.CodeServerError {
			return &AErr{Code: code, Kind: domain.KindInternal, Msg: "internal error", Err: err}
		}
		return &AErr{Code: code, Kind: de.Kind, Msg: de.Error()}
	}
	return &AErr{Code: resp.CodeServerError, Kind: domain.KindInternal, Msg: "internal error", Err: err}
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &AErr{Code: resp.CodeTooLarge, Kind: domain.KindBadRequest, Msg: "request body too large"}
	}
	return BadRequest(err.Error())
}

// Fail 写出错误响应；5xx 的原始错误挂到 c.Errors 供访问日志输出
func Fail(c *gin.Context, err error) {
	ae := FromError(err)
	if ae.Code >= resp.CodeServerError && ae.Err != nil {
		_ = c.Error(ae.Err)
	}
	resp.Abort(c, ae.Code, string(ae.Kind), ae.Error())
}

// Action 非 CRUD 一行注册：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string // 例："/auth/login"、"/users/:id/menus"
	Binder  Binder
	Auth    bool // 是否要求登录（检查 userId）
	Admin   bool // 是否要求管理员
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权
		if a.Auth || a.Admin {
			if c.GetString(mdw.KeyUserID) == "" {
				Fail(c, Unauthorized("authentication required"))
				return
			}
			if a.Admin && !c.GetBool(mdw.KeyIsAdmin) {
				Fail(c, Forbidden("admin only"))
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default:
		}
		if bindErr != nil {
			Fail(c, bindError(bindErr))
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		resp.JSON(c, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
