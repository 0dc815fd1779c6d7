package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MenuCode 菜单编码，按 "_" 分段，段结构即层级，例如 system_dashboard 的上级为 system。
type MenuCode string

const codeSep = "_"

func (c MenuCode) String() string { return string(c) }

func (c MenuCode) Segments() []string { return strings.Split(string(c), codeSep) }

// InferParent 根据编码约定推断上级编码；单段编码没有上级。
func InferParent(code MenuCode) (MenuCode, bool) {
	i := strings.LastIndex(string(code), codeSep)
	if i <= 0 {
		return "", false
	}
	return code[:i], true
}

type Menu struct {
	ID         string         `gorm:"primaryKey;size:36" json:"menuId"`
	Code       MenuCode       `gorm:"size:64;not null;uniqueIndex:uniq_menus_code_live,where:deleted_at IS NULL" json:"code"`
	Title      string         `gorm:"size:64;not null" json:"title"`
	Path       string         `gorm:"size:191;not null" json:"path"`
	Icon       string         `gorm:"size:64" json:"icon"`
	IsFolder   bool           `gorm:"not null;default:false" json:"isFolder"`
	ParentCode *MenuCode      `gorm:"size:64;index" json:"parentCode,omitempty"`
	Sort       int            `gorm:"not null;default:1;index" json:"sort"`
	CreatedBy  string         `gorm:"size:32;default:SYSTEM" json:"createdBy"`
	UpdatedBy  string         `gorm:"size:32;default:SYSTEM" json:"updatedBy"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Menu) TableName() string { return "menus" }

// ParentRef 显式 parentCode 优先，否则按编码推断。
func (m *Menu) ParentRef() (MenuCode, bool) {
	if m.ParentCode != nil && *m.ParentCode != "" {
		return *m.ParentCode, true
	}
	return InferParent(m.Code)
}

type MenuRepository interface {
	ListAll(ctx context.Context) ([]Menu, error)
	FindByCode(ctx context.Context, code MenuCode) (*Menu, error)
	Create(ctx context.Context, m *Menu) error
	Update(ctx context.Context, m *Menu) error
	SoftDelete(ctx context.Context, code MenuCode) (bool, error)
	HasChildren(ctx context.Context, code MenuCode) (bool, error)
}

// CodeSet 去重、无序的菜单编码集合。
type CodeSet map[MenuCode]struct{}

func NewCodeSet(codes ...MenuCode) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		if c = MenuCode(strings.TrimSpace(string(c))); c != "" {
			s[c] = struct{}{}
		}
	}
	return s
}

func (s CodeSet) Has(c MenuCode) bool {
	_, ok := s[c]
	return ok
}

// Sorted 返回稳定顺序，便于落库与比较
func (s CodeSet) Sorted() []MenuCode {
	out := make([]MenuCode, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
