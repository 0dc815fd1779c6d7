package ez

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	mdw "yolo-backend/internal/transport/http/middleware"
	resp "yolo-backend/internal/transport/http/response"
	"yolo-backend/pkg/utils"
)

type CrudHooks[T any] struct {
	BeforeCreate func(c *gin.Context, m *T) error
	BeforeUpdate func(c *gin.Context, m *T) error
	ScopeList    func(c *gin.Context, q *gorm.DB) *gorm.DB // 自定义筛选/排序
	AfterGet     func(c *gin.Context, m *T)
}

// CrudConfig 归属资源的通用 CRUD；表由启动迁移负责，这里不再 AutoMigrate
type CrudConfig[T any] struct {
	DB    *gorm.DB
	Group *gin.RouterGroup // 已鉴权分组（能拿 userId）
	Path  string
	New   func() *T

	Hooks CrudHooks[T]

	AllowCreate bool
	AllowList   bool
	AllowGet    bool
	AllowUpdate bool
	AllowDelete bool

	IDField    string // 默认 "ID"
	OwnerField string // 默认优先 "OwnerID"，其次 "UserID"/"UID"

	IDGen func() string // 默认 utils.NewID

	// 列表排序，为空则按 ID DESC
	OrderBy string // 例如 "created_at DESC"
}

func (c *CrudConfig[T]) idFieldCandidates() []string {
	if c.IDField != "" {
		return []string{c.IDField, "ID", "Id"}
	}
	return []string{"ID", "Id"}
}

func (c *CrudConfig[T]) ownerFieldCandidates() []string {
	if c.OwnerField != "" {
		return []string{c.OwnerField, "OwnerID", "UserID", "UID"}
	}
	return []string{"OwnerID", "UserID", "UID"}
}

func getStringFieldPtr(obj any, candidates []string) (*string, bool) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr {
		return nil, false
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	t := v.Type()
	for _, cand := range candidates {
		f, ok := t.FieldByName(cand)
		if !ok || f.PkgPath != "" {
			continue
		}
		fv := v.FieldByIndex(f.Index)
		if fv.Kind() == reflect.String && fv.CanSet() {
			return fv.Addr().Interface().(*string), true
		}
	}
	return nil, false
}

func readStringField(obj any, candidates []string) (string, bool) {
	p, ok := getStringFieldPtr(obj, candidates)
	if !ok {
		return "", false
	}
	return *p, true
}

func writeStringField(obj any, candidates []string, val string) bool {
	p, ok := getStringFieldPtr(obj, candidates)
	if !ok {
		return false
	}
	*p = val
	return true
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func toSnake(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// ID -> id，UserID -> user_id
			if i > 0 && !unicode.IsUpper(runes[i-1]) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Crud 注册 /path 的增删改查；读写都要求资源归属于当前 userId，否则 403
func Crud[T any](cfg CrudConfig[T]) {
	// 默认放开所有操作
	if !cfg.AllowCreate && !cfg.AllowGet && !cfg.AllowList && !cfg.AllowUpdate && !cfg.AllowDelete {
		cfg.AllowCreate, cfg.AllowList, cfg.AllowGet, cfg.AllowUpdate, cfg.AllowDelete = true, true, true, true, true
	}
	if cfg.IDGen == nil {
		cfg.IDGen = utils.NewID
	}

	idFieldNames := cfg.idFieldCandidates()
	ownerFieldNames := cfg.ownerFieldCandidates()
	idCol := toSnake(idFieldNames[0])

	currentUser := func(c *gin.Context) (string, bool) {
		uid := c.GetString(mdw.KeyUserID)
		if uid == "" {
			Fail(c, Unauthorized("authentication required"))
			return "", false
		}
		return uid, true
	}

	// loadOwned 先按 ID 查，再比较归属：不存在 404，不属于自己 403
	loadOwned := func(c *gin.Context, uid string) (*T, bool) {
		m := cfg.New()
		err := cfg.DB.WithContext(c).Where(clause.Eq{Column: clause.Column{Name: idCol}, Value: c.Param("id")}).First(m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, NotFound("not found"))
			return nil, false
		}
		if err != nil {
			Fail(c, Internal("load resource", err))
			return nil, false
		}
		owner, _ := readStringField(m, ownerFieldNames)
		if err := mdw.RequireOwner(c, owner); err != nil {
			Fail(c, err)
			return nil, false
		}
		return m, true
	}

	if cfg.AllowCreate {
		cfg.Group.POST(cfg.Path, func(c *gin.Context) {
			uid, ok := currentUser(c)
			if !ok {
				return
			}
			m := cfg.New()
			if err := c.ShouldBindJSON(m); err != nil {
				Fail(c, bindError(err))
				return
			}
			// 客户端传入的 ID 一律忽略
			if !writeStringField(m, idFieldNames, cfg.IDGen()) {
				Fail(c, Internal("id field not found", nil))
				return
			}
			if !writeStringField(m, ownerFieldNames, uid) {
				Fail(c, Internal("owner field not found", nil))
				return
			}
			if cfg.Hooks.BeforeCreate != nil {
				if err := cfg.Hooks.BeforeCreate(c, m); err != nil {
					Fail(c, err)
					return
				}
			}
			if err := cfg.DB.WithContext(c).Create(m).Error; err != nil {
				Fail(c, Internal("create resource", err))
				return
			}
			if cfg.Hooks.AfterGet != nil {
				cfg.Hooks.AfterGet(c, m)
			}
			resp.JSON(c, resp.OK(m))
		})
	}

	// List 只列自己的
	if cfg.AllowList {
		cfg.Group.GET(cfg.Path, func(c *gin.Context) {
			uid, ok := currentUser(c)
			if !ok {
				return
			}
			page := atoiDefault(c.Query("page"), 1)
			size := atoiDefault(c.Query("size"), 20)
			if size > 100 {
				size = 20
			}
			offset := (page - 1) * size

			// 用结构体 Where 自动映射列名，避免手写 user_id
			ownerFilter := cfg.New()
			if !writeStringField(ownerFilter, ownerFieldNames, uid) {
				Fail(c, Internal("owner field not found", nil))
				return
			}

			q := cfg.DB.WithContext(c).Model(cfg.New()).Where(ownerFilter)
			if cfg.Hooks.ScopeList != nil {
				q = cfg.Hooks.ScopeList(c, q)
			}

			var total int64
			if err := q.Count(&total).Error; err != nil {
				Fail(c, Internal("count resources", err))
				return
			}

			items := []T{}
			if cfg.OrderBy != "" {
				q = q.Order(cfg.OrderBy)
			} else {
				q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: idCol}, Desc: true})
			}
			if err := q.Limit(size).Offset(offset).Find(&items).Error; err != nil {
				Fail(c, Internal("list resources", err))
				return
			}
			if cfg.Hooks.AfterGet != nil {
				for i := range items {
					cfg.Hooks.AfterGet(c, &items[i])
				}
			}
			resp.JSON(c, resp.OK(gin.H{
				"list": items, "total": total, "page": page, "size": size,
			}))
		})
	}

	if cfg.AllowGet {
		cfg.Group.GET(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := currentUser(c)
			if !ok {
				return
			}
			m, ok := loadOwned(c, uid)
			if !ok {
				return
			}
			if cfg.Hooks.AfterGet != nil {
				cfg.Hooks.AfterGet(c, m)
			}
			resp.JSON(c, resp.OK(m))
		})
	}

	if cfg.AllowUpdate {
		cfg.Group.PUT(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := currentUser(c)
			if !ok {
				return
			}
			cur, ok := loadOwned(c, uid)
			if !ok {
				return
			}

			in := cfg.New()
			if err := c.ShouldBindJSON(in); err != nil {
				Fail(c, bindError(err))
				return
			}
			// 强制保持 ID/Owner
			id := c.Param("id")
			_ = writeStringField(in, idFieldNames, id)
			_ = writeStringField(in, ownerFieldNames, uid)

			if cfg.Hooks.BeforeUpdate != nil {
				if err := cfg.Hooks.BeforeUpdate(c, in); err != nil {
					Fail(c, err)
					return
				}
			}
			if err := cfg.DB.WithContext(c).Model(cur).Updates(in).Error; err != nil {
				Fail(c, Internal("update resource", err))
				return
			}
			if cfg.Hooks.AfterGet != nil {
				cfg.Hooks.AfterGet(c, in)
			}
			resp.JSON(c, resp.OK(gin.H{"id": id}))
		})
	}

	if cfg.AllowDelete {
		cfg.Group.DELETE(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := currentUser(c)
			if !ok {
				return
			}
			m, ok := loadOwned(c, uid)
			if !ok {
				return
			}
			if err := cfg.DB.WithContext(c).Delete(m).Error; err != nil {
				Fail(c, Internal("delete resource", err))
				return
			}
			resp.JSON(c, resp.OK(gin.H{"id": c.Param("id")}))
		})
	}
}
