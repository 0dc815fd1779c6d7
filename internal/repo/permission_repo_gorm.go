package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"yolo-backend/internal/domain"
)

type PermissionRepo struct{ db *gorm.DB }

func NewPermissionRepo(db *gorm.DB) *PermissionRepo { return &PermissionRepo{db: db} }

var _ domain.PermissionRepository = (*PermissionRepo)(nil)

func (r *PermissionRepo) FindByUserID(ctx context.Context, userID string) (*domain.Permission, error) {
	var p domain.Permission
	err := r.db.WithContext(ctx).Preload("Codes").First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create 主记录与编码行一并写入；user_id 冲突由调用方判定
func (r *PermissionRepo) Create(ctx context.Context, p *domain.Permission) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// ReplaceCodes 整体替换，不做合并
func (r *PermissionRepo) ReplaceCodes(ctx context.Context, userID string, codes domain.CodeSet) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&domain.PermissionCode{}).Error; err != nil {
		return err
	}
	if len(codes) == 0 {
		return nil
	}
	rows := make([]domain.PermissionCode, 0, len(codes))
	for _, c := range codes.Sorted() {
		rows = append(rows, domain.PermissionCode{UserID: userID, Code: c})
	}
	return db.Create(&rows).Error
}

func (r *PermissionRepo) UpdateFlags(ctx context.Context, userID string, isAdmin *bool, actor string) error {
	set := map[string]any{"updated_by": actor}
	if isAdmin != nil {
		set["is_admin"] = *isAdmin
	}
	return r.db.WithContext(ctx).Model(&domain.Permission{}).Where("user_id = ?", userID).Updates(set).Error
}

func (r *PermissionRepo) Delete(ctx context.Context, userID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&domain.PermissionCode{}).Error; err != nil {
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&domain.Permission{}).Error
}

func (r *PermissionRepo) AnyReferences(ctx context.Context, code domain.MenuCode) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.PermissionCode{}).Where("code = ?", code).Limit(1).Count(&n).Error
	return n > 0, err
}
