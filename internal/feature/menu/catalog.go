package menu

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"yolo-backend/internal/core/cache"
	"yolo-backend/internal/core/config"
	"yolo-backend/internal/domain"
	"yolo-backend/internal/feature/permission"
	"yolo-backend/internal/repo"
	"yolo-backend/pkg/utils"
)

const catalogKey = "menu:catalog"

// Input 新建/修改菜单的入参；修改时 Code 取自路径
type Input struct {
	Code       domain.MenuCode  `json:"code"`
	Title      string           `json:"title" binding:"required,max=64"`
	Path       string           `json:"path" binding:"required,max=191"`
	Icon       string           `json:"icon" binding:"max=64"`
	IsFolder   bool             `json:"isFolder"`
	ParentCode *domain.MenuCode `json:"parentCode"`
	Sort       int              `json:"sort"`
}

// Catalog 菜单目录。全量目录缓存在 redis，任何写操作后失效。
type Catalog struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCatalog(db *gorm.DB, c *cache.Cache, ttl time.Duration, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Catalog{db: db, cache: c, ttl: ttl, log: log}
}

// ListAll 目录顺序：sort 升序，同 sort 按 code
func (s *Catalog) ListAll(ctx context.Context) ([]domain.Menu, error) {
	ms, err := cache.GetOrLoadJSON(ctx, s.cache, catalogKey, s.ttl, repo.NewMenuRepo(s.db).ListAll)
	if err != nil {
		return nil, domain.Internal("list menus", err)
	}
	if ms == nil {
		return []domain.Menu{}, nil
	}
	return ms, nil
}

// ListByCodes 返回目录中编码属于 codes 的子集，保持目录顺序；未知编码忽略
func (s *Catalog) ListByCodes(ctx context.Context, codes domain.CodeSet) ([]domain.Menu, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Menu, 0, len(codes))
	for _, m := range all {
		if codes.Has(m.Code) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Catalog) AllCodes(ctx context.Context) (domain.CodeSet, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	set := make(domain.CodeSet, len(all))
	for _, m := range all {
		set[m.Code] = struct{}{}
	}
	return set, nil
}

// Unknown 返回不在目录中的编码（已排序）
func (s *Catalog) Unknown(ctx context.Context, codes domain.CodeSet) ([]domain.MenuCode, error) {
	known, err := s.AllCodes(ctx)
	if err != nil {
		return nil, err
	}
	var missing []domain.MenuCode
	for _, c := range codes.Sorted() {
		if !known.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing, nil
}

func (s *Catalog) Get(ctx context.Context, code domain.MenuCode) (*domain.Menu, error) {
	m, err := repo.NewMenuRepo(s.db).FindByCode(ctx, code)
	if err != nil {
		return nil, domain.Internal("find menu", err)
	}
	if m == nil {
		return nil, domain.NotFound("menu not found")
	}
	return m, nil
}

func (s *Catalog) Create(ctx context.Context, in Input, actor string) (*domain.Menu, error) {
	if err := validCode(in.Code); err != nil {
		return nil, err
	}
	m := &domain.Menu{
		ID:        utils.NewID(),
		Code:      in.Code,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
	apply(m, in)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.NewMenuRepo(tx)
		if err := checkParent(ctx, r, m); err != nil {
			return err
		}
		if err := r.Create(ctx, m); err != nil {
			if repo.IsDuplicateKey(err) {
				return domain.Conflict("menu code already exists")
			}
			return domain.Internal("create menu", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return m, nil
}

func (s *Catalog) Update(ctx context.Context, code domain.MenuCode, in Input, actor string) (*domain.Menu, error) {
	var m *domain.Menu
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.NewMenuRepo(tx)
		cur, err := r.FindByCode(ctx, code)
		if err != nil {
			return domain.Internal("find menu", err)
		}
		if cur == nil {
			return domain.NotFound("menu not found")
		}
		apply(cur, in)
		cur.UpdatedBy = actor
		if err := checkParent(ctx, r, cur); err != nil {
			return err
		}
		if err := r.Update(ctx, cur); err != nil {
			return domain.Internal("update menu", err)
		}
		m = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return m, nil
}

// SoftDelete 仍被授权引用、或仍有子菜单显式挂在其下时拒绝删除
func (s *Catalog) SoftDelete(ctx context.Context, code domain.MenuCode) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.NewMenuRepo(tx)
		m, err := r.FindByCode(ctx, code)
		if err != nil {
			return domain.Internal("find menu", err)
		}
		if m == nil {
			return domain.NotFound("menu not found")
		}
		used, err := permission.NewStore(tx).IsCodeReferenced(ctx, code)
		if err != nil {
			return err
		}
		if used {
			return domain.Conflict("menu is referenced by a permission")
		}
		hasKids, err := r.HasChildren(ctx, code)
		if err != nil {
			return domain.Internal("check menu children", err)
		}
		if hasKids {
			return domain.Conflict("menu has child menus")
		}
		if _, err := r.SoftDelete(ctx, code); err != nil {
			return domain.Internal("delete menu", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Seed 仅在目录为空时写入初始菜单
func (s *Catalog) Seed(ctx context.Context, seeds []config.SeedMenu) (int, error) {
	if len(seeds) == 0 {
		return 0, nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.Menu{}).Count(&n).Error; err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	ms := make([]domain.Menu, 0, len(seeds))
	for _, sm := range seeds {
		var parent *domain.MenuCode
		if sm.ParentCode != "" {
			p := domain.MenuCode(sm.ParentCode)
			parent = &p
		}
		ms = append(ms, domain.Menu{
			ID:         utils.NewID(),
			Code:       domain.MenuCode(sm.Code),
			Title:      sm.Title,
			Path:       sm.Path,
			Icon:       sm.Icon,
			IsFolder:   sm.IsFolder,
			ParentCode: parent,
			Sort:       sm.Sort,
			CreatedBy:  "SYSTEM",
			UpdatedBy:  "SYSTEM",
		})
	}
	if err := s.db.WithContext(ctx).Create(&ms).Error; err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return len(ms), nil
}

func (s *Catalog) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, catalogKey); err != nil {
		s.log.Warn("menu cache invalidate failed", zap.Error(err))
	}
}

func apply(m *domain.Menu, in Input) {
	m.Title = in.Title
	m.Path = in.Path
	m.Icon = in.Icon
	m.IsFolder = in.IsFolder
	m.Sort = in.Sort
	m.ParentCode = nil
	if in.ParentCode != nil && *in.ParentCode != "" {
		p := *in.ParentCode
		m.ParentCode = &p
	}
}

func checkParent(ctx context.Context, r *repo.MenuRepo, m *domain.Menu) error {
	if m.ParentCode == nil {
		return nil
	}
	if *m.ParentCode == m.Code {
		return domain.BadRequest("menu cannot be its own parent")
	}
	p, err := r.FindByCode(ctx, *m.ParentCode)
	if err != nil {
		return domain.Internal("find parent menu", err)
	}
	if p == nil {
		return domain.NotFound("parent menu not found")
	}
	return nil
}

func validCode(c domain.MenuCode) error {
	s := string(c)
	if s == "" || len(s) > 64 {
		return domain.BadRequest("menu code must be 1-64 chars")
	}
	for _, seg := range c.Segments() {
		if seg == "" || strings.TrimSpace(seg) != seg {
			return domain.BadRequest("menu code has an empty or padded segment")
		}
	}
	return nil
}
