// Package diary 旅行日记：按用户归属的示例资源，读写都走归属校验。
package diary

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"yolo-backend/internal/domain"
	"yolo-backend/internal/transport/http/ez"
)

type Module struct{ db *gorm.DB }

func NewModule(db *gorm.DB) *Module { return &Module{db: db} }

func (*Module) Priority() int { return 50 }

// MountAPI 挂在已鉴权分组下：/diaries
func (m *Module) MountAPI(g *gin.RouterGroup) {
	ez.Crud(ez.CrudConfig[domain.TravelDiary]{
		DB:      m.db,
		Group:   g,
		Path:    "/diaries",
		New:     func() *domain.TravelDiary { return &domain.TravelDiary{} },
		OrderBy: "created_at DESC",
		Hooks: ez.CrudHooks[domain.TravelDiary]{
			BeforeCreate: normalize,
			BeforeUpdate: normalize,
			ScopeList: func(c *gin.Context, q *gorm.DB) *gorm.DB {
				if v := strings.TrimSpace(c.Query("country")); v != "" {
					q = q.Where("country = ?", v)
				}
				if v := strings.TrimSpace(c.Query("city")); v != "" {
					q = q.Where("city = ?", v)
				}
				return q
			},
		},
	})
}

func normalize(_ *gin.Context, d *domain.TravelDiary) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return ez.BadRequest("title is required")
	}
	d.Country = strings.TrimSpace(d.Country)
	d.City = strings.TrimSpace(d.City)
	return nil
}
