package user

import (
	"yolo-backend/internal/domain"
	"yolo-backend/internal/feature/menu"
)

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Email    string `json:"email" binding:"omitempty,email,max=191"`
	Mobile   string `json:"mobile" binding:"omitempty,max=20"`
	Gender   string `json:"gender" binding:"omitempty,oneof=male female other"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required,max=20"`
	Password string `json:"password" binding:"required,max=72"`
}

// CreateInput 管理员创建用户时显式指定授权
type CreateInput struct {
	RegisterInput
	MenuCodes []domain.MenuCode `json:"menuCodes"`
	IsAdmin   bool              `json:"isAdmin"`
}

// UpdateMenusInput 字段为 nil 表示不修改
type UpdateMenusInput struct {
	MenuCodes *[]domain.MenuCode `json:"menuCodes"`
	IsAdmin   *bool              `json:"isAdmin"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type LoginResult struct {
	AuthResult
	Menus []*menu.Node `json:"menus"`
}

type UserMenus struct {
	UserID    string            `json:"userId"`
	Username  string            `json:"username"`
	IsAdmin   bool              `json:"isAdmin"`
	MenuCodes []domain.MenuCode `json:"menuCodes"`
	Menus     []*menu.Node      `json:"menus"`
}

type ListResult struct {
	List  []domain.User `json:"list"`
	Total int64         `json:"total"`
}
