package domain

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string         `gorm:"primaryKey;size:36" json:"userId"`
	Username     string         `gorm:"size:32;not null;uniqueIndex:uniq_users_username_live,where:deleted_at IS NULL" json:"username"`
	PasswordHash string         `gorm:"size:100;not null" json:"-"`
	Email        string         `gorm:"size:191" json:"email"`
	Mobile       string         `gorm:"size:20" json:"mobile,omitempty"`
	Gender       string         `gorm:"size:8" json:"gender,omitempty"` // male/female/other
	BirthDate    *time.Time     `json:"birthDate,omitempty"`
	AvatarURL    string         `gorm:"size:255;default:default-avatar.png" json:"avatarUrl"`
	IsAdmin      bool           `gorm:"not null;default:false" json:"isAdmin"`
	LastLoginAt  *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedBy    string         `gorm:"size:32;default:SYSTEM" json:"createdBy"`
	UpdatedBy    string         `gorm:"size:32;default:SYSTEM" json:"updatedBy"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsDeleted() bool { return u.DeletedAt.Valid }

// MarshalJSON 仅在软删后输出 isDeleted
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	if !u.IsDeleted() {
		return json.Marshal(plain(u))
	}
	return json.Marshal(struct {
		plain
		IsDeleted bool `json:"isDeleted"`
	}{plain(u), true})
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, q UserQuery) ([]User, int64, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool, actor string) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	SoftDelete(ctx context.Context, id string) (bool, error)
	HardDelete(ctx context.Context, id string) (bool, error)
}

type UserQuery struct {
	Offset      int
	Limit       int
	Keyword     string // 按 username/email 模糊搜
	WithDeleted bool
}
