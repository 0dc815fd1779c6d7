package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"yolo-backend/internal/domain"
)

type MenuRepo struct{ db *gorm.DB }

func NewMenuRepo(db *gorm.DB) *MenuRepo { return &MenuRepo{db: db} }

var _ domain.MenuRepository = (*MenuRepo)(nil)

// ListAll 按 sort、code 排序，即目录顺序
func (r *MenuRepo) ListAll(ctx context.Context) ([]domain.Menu, error) {
	var ms []domain.Menu
	err := r.db.WithContext(ctx).Order("sort ASC").Order("code ASC").Find(&ms).Error
	return ms, err
}

func (r *MenuRepo) FindByCode(ctx context.Context, code domain.MenuCode) (*domain.Menu, error) {
	var m domain.Menu
	err := r.db.WithContext(ctx).First(&m, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MenuRepo) Create(ctx context.Context, m *domain.Menu) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Update Select("*") 让 parent_code 置空、is_folder=false 等零值也能写入
func (r *MenuRepo) Update(ctx context.Context, m *domain.Menu) error {
	return r.db.WithContext(ctx).Model(m).Select("*").Omit("id", "code", "created_at", "created_by", "deleted_at").Updates(m).Error
}

func (r *MenuRepo) SoftDelete(ctx context.Context, code domain.MenuCode) (bool, error) {
	res := r.db.WithContext(ctx).Where("code = ?", code).Delete(&domain.Menu{})
	return res.RowsAffected > 0, res.Error
}

func (r *MenuRepo) HasChildren(ctx context.Context, code domain.MenuCode) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Menu{}).Where("parent_code = ?", code).Limit(1).Count(&n).Error
	return n > 0, err
}
