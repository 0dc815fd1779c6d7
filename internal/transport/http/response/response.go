// Package response 统一响应体 {code, kind, msg, data}，HTTP 状态与 code 对齐。
package response

import "github.com/gin-gonic/gin"

type Resp struct {
	Code int    `json:"code"`
	Kind string `json:"kind,omitempty"` // 机器可读错误类别，成功时省略
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// New data 为 nil 时写出 {}，前端不必判空
func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data any) Resp { return New(CodeOK, CodeMsgMap[CodeOK], data) }

// Error msg 为空时用 code 的默认文案
func Error(code int, msg string) Resp {
	if msg == "" {
		msg = CodeMsgMap[code]
	}
	return New(code, msg, nil)
}

func (r Resp) WithKind(kind string) Resp {
	r.Kind = kind
	return r
}

func JSON(c *gin.Context, r Resp) { c.JSON(Status(r.Code), r) }

// Abort 中止后续 handler 并写出错误
func Abort(c *gin.Context, code int, kind, msg string) {
	c.AbortWithStatusJSON(Status(code), Error(code, msg).WithKind(kind))
}
