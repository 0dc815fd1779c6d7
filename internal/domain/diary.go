package domain

import "time"

// TravelDiary 按 UserID 归属，读写前由处理器校验归属
type TravelDiary struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" json:"userId"`
	Title     string    `gorm:"size:128;not null" json:"title" binding:"required,max=128"`
	Content   string    `gorm:"type:text;not null" json:"content" binding:"required"`
	Country   string    `gorm:"size:64" json:"country"`
	City      string    `gorm:"size:64" json:"city"`
	Place     string    `gorm:"size:128" json:"place"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TravelDiary) TableName() string { return "travel_diaries" }

// Models 需要自动迁移的全部表
func Models() []any {
	return []any{&User{}, &Permission{}, &PermissionCode{}, &Menu{}, &TravelDiary{}}
}
