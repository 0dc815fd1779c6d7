package database

import (
	"gorm.io/gorm"

	"yolo-backend/internal/domain"
)

// Migrate 建表；唯一约束（permissions.user_id、menus.code、users.username）由这里落到库里
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}
