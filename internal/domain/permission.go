package domain

import (
	"context"
	"time"
)

// Permission 每个用户一条授权记录（user_id 主键保证唯一）。
type Permission struct {
	UserID    string           `gorm:"primaryKey;size:36" json:"userId"`
	Username  string           `gorm:"size:32;not null" json:"username"`
	IsAdmin   bool             `gorm:"not null;default:false" json:"isAdmin"`
	Codes     []PermissionCode `gorm:"foreignKey:UserID;references:UserID" json:"-"`
	CreatedBy string           `gorm:"size:32;not null" json:"createdBy"`
	UpdatedBy string           `gorm:"size:32;not null" json:"updatedBy"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (Permission) TableName() string { return "permissions" }

// PermissionCode 复合主键 (user_id, code) 让存储层负责去重
type PermissionCode struct {
	UserID string   `gorm:"primaryKey;size:36"`
	Code   MenuCode `gorm:"primaryKey;size:64;index"`
}

func (PermissionCode) TableName() string { return "permission_codes" }

func (p *Permission) CodeSet() CodeSet {
	s := make(CodeSet, len(p.Codes))
	for _, c := range p.Codes {
		s[c.Code] = struct{}{}
	}
	return s
}

func (p *Permission) SetCodes(set CodeSet) {
	p.Codes = p.Codes[:0]
	for _, c := range set.Sorted() {
		p.Codes = append(p.Codes, PermissionCode{UserID: p.UserID, Code: c})
	}
}

type PermissionRepository interface {
	FindByUserID(ctx context.Context, userID string) (*Permission, error)
	Create(ctx context.Context, p *Permission) error
	ReplaceCodes(ctx context.Context, userID string, codes CodeSet) error
	UpdateFlags(ctx context.Context, userID string, isAdmin *bool, actor string) error
	Delete(ctx context.Context, userID string) error
	AnyReferences(ctx context.Context, code MenuCode) (bool, error)
}
