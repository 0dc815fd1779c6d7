package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yolo-backend/internal/domain"
	"yolo-backend/internal/feature/menu"
	"yolo-backend/internal/feature/user"
	"yolo-backend/internal/transport/http/ez"
	mdw "yolo-backend/internal/transport/http/middleware"
)

// 把管理端接口集中在这里注册；分组已走 AuthJWT(requireAdmin)
func MountAdminActions(admin *gin.RouterGroup, d Deps) {
	e := ez.New(admin)
	actor := func(c *gin.Context) string { return c.GetString(mdw.KeyUsername) }

	// --- GET /admin/v1/users  用户列表 ---
	type listQ struct {
		Offset      int    `form:"offset,default=0"`
		Limit       int    `form:"limit,default=20"`
		Q           string `form:"q"`            // 按 username/email 模糊搜
		WithDeleted bool   `form:"with_deleted"` // 是否包含软删
	}
	ez.RegisterAction(e, ez.Action[listQ, *user.ListResult]{
		Method: http.MethodGet,
		Admin:  true,
		Path:   "/users",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (*user.ListResult, error) {
			return d.Users.List(c.Request.Context(), domain.UserQuery{
				Offset: max(in.Offset, 0), Limit: in.Limit, Keyword: in.Q, WithDeleted: in.WithDeleted,
			})
		},
	})

	// --- POST /admin/v1/users  创建用户并指定授权 ---
	ez.RegisterAction(e, ez.Action[user.CreateInput, *user.UserMenus]{
		Method: http.MethodPost,
		Admin:  true,
		Path:   "/users",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *user.CreateInput) (*user.UserMenus, error) {
			return d.Users.CreateUser(c.Request.Context(), *in, actor(c))
		},
	})

	// --- POST /admin/v1/users/:id/ban  封禁（软删） ---
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Admin:  true,
		Path:   "/users/:id/ban",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == c.GetString(mdw.KeyUserID) {
				return nil, ez.BadRequest("cannot ban yourself")
			}
			if err := d.Users.SoftDelete(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	// --- DELETE /admin/v1/users/:id  物理删除，级联授权 ---
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Admin:  true,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if id == c.GetString(mdw.KeyUserID) {
				return nil, ez.BadRequest("cannot delete yourself")
			}
			if err := d.Users.HardDelete(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	// --- 用户授权 ---
	ez.RegisterAction(e, ez.Action[struct{}, *user.UserMenus]{
		Method: http.MethodGet,
		Admin:  true,
		Path:   "/users/:id/menus",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*user.UserMenus, error) {
			return d.Users.GetUserMenus(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(e, ez.Action[user.UpdateMenusInput, *user.UserMenus]{
		Method: http.MethodPut,
		Admin:  true,
		Path:   "/users/:id/menus",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *user.UpdateMenusInput) (*user.UserMenus, error) {
			return d.Users.UpdateUserMenus(c.Request.Context(), c.Param("id"), *in, actor(c))
		},
	})

	// --- 菜单目录 ---
	e.GET("/menus/all", func(c *gin.Context) (any, error) {
		return d.Catalog.ListAll(c.Request.Context())
	})
	e.GET("/menus/tree", func(c *gin.Context) (any, error) {
		all, err := d.Catalog.ListAll(c.Request.Context())
		if err != nil {
			return nil, err
		}
		return menu.BuildTree(all), nil
	})
	e.GET("/menus/:code", func(c *gin.Context) (any, error) {
		return d.Catalog.Get(c.Request.Context(), domain.MenuCode(c.Param("code")))
	})
	ez.RegisterAction(e, ez.Action[menu.Input, *domain.Menu]{
		Method: http.MethodPost,
		Admin:  true,
		Path:   "/menus",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *menu.Input) (*domain.Menu, error) {
			return d.Catalog.Create(c.Request.Context(), *in, actor(c))
		},
	})
	ez.RegisterAction(e, ez.Action[menu.Input, *domain.Menu]{
		Method: http.MethodPut,
		Admin:  true,
		Path:   "/menus/:code",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *menu.Input) (*domain.Menu, error) {
			return d.Catalog.Update(c.Request.Context(), domain.MenuCode(c.Param("code")), *in, actor(c))
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Admin:  true,
		Path:   "/menus/:code",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			code := domain.MenuCode(c.Param("code"))
			if err := d.Catalog.SoftDelete(c.Request.Context(), code); err != nil {
				return nil, err
			}
			return gin.H{"code": code}, nil
		},
	})
}
