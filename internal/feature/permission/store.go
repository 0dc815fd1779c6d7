// Package permission 维护每个用户的菜单编码授权。
package permission

import (
	"context"

	"gorm.io/gorm"

	"yolo-backend/internal/domain"
	"yolo-backend/internal/repo"
)

// Grant 对外视图
type Grant struct {
	UserID    string            `json:"userId"`
	Username  string            `json:"username"`
	IsAdmin   bool              `json:"isAdmin"`
	MenuCodes []domain.MenuCode `json:"menuCodes"`
	UpdatedBy string            `json:"updatedBy"`
}

func ToGrant(p *domain.Permission) Grant {
	return Grant{
		UserID:    p.UserID,
		Username:  p.Username,
		IsAdmin:   p.IsAdmin,
		MenuCodes: p.CodeSet().Sorted(),
		UpdatedBy: p.UpdatedBy,
	}
}

type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// WithTx 绑定到调用方事务
func (s *Store) WithTx(tx *gorm.DB) *Store { return &Store{db: tx} }

func (s *Store) repo() *repo.PermissionRepo { return repo.NewPermissionRepo(s.db) }

func (s *Store) GetByUserID(ctx context.Context, userID string) (*domain.Permission, error) {
	p, err := s.repo().FindByUserID(ctx, userID)
	if err != nil {
		return nil, domain.Internal("find permission", err)
	}
	if p == nil {
		return nil, domain.NotFound("permission not found")
	}
	return p, nil
}

// CreateDefault 授予当前全量目录的快照；之后新增的菜单不会自动授予。
// 已存在时（含并发重复创建）返回已有记录。
func (s *Store) CreateDefault(ctx context.Context, userID, username string, allCodes domain.CodeSet) (*domain.Permission, error) {
	return s.create(ctx, userID, username, allCodes, false, "SYSTEM")
}

// CreateWithGrant 管理员创建用户时指定授权
func (s *Store) CreateWithGrant(ctx context.Context, userID, username string, codes domain.CodeSet, isAdmin bool, actor string) (*domain.Permission, error) {
	return s.create(ctx, userID, username, codes, isAdmin, actor)
}

func (s *Store) create(ctx context.Context, userID, username string, codes domain.CodeSet, isAdmin bool, actor string) (*domain.Permission, error) {
	if existing, err := s.repo().FindByUserID(ctx, userID); err != nil {
		return nil, domain.Internal("find permission", err)
	} else if existing != nil {
		return existing, nil
	}

	p := &domain.Permission{
		UserID:    userID,
		Username:  username,
		IsAdmin:   isAdmin,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
	p.SetCodes(codes)

	// 事务内的失败会让外层事务不可用，这里用 SAVEPOINT 隔离
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.NewPermissionRepo(tx).Create(ctx, p)
	})
	if err == nil {
		return p, nil
	}
	if !repo.IsDuplicateKey(err) {
		return nil, domain.Internal("create permission", err)
	}
	existing, ferr := s.repo().FindByUserID(ctx, userID)
	if ferr != nil || existing == nil {
		return nil, domain.Internal("reload permission", err)
	}
	return existing, nil
}

// UpdateGrant codes 非 nil 时整体替换编码集；isAdmin 非 nil 时更新镜像标记
func (s *Store) UpdateGrant(ctx context.Context, userID string, codes *[]domain.MenuCode, isAdmin *bool, actor string) (*domain.Permission, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repo.NewPermissionRepo(tx)
		p, err := r.FindByUserID(ctx, userID)
		if err != nil {
			return domain.Internal("find permission", err)
		}
		if p == nil {
			return domain.NotFound("permission not found")
		}
		if codes != nil {
			if err := r.ReplaceCodes(ctx, userID, domain.NewCodeSet(*codes...)); err != nil {
				return domain.Internal("replace permission codes", err)
			}
		}
		if err := r.UpdateFlags(ctx, userID, isAdmin, actor); err != nil {
			return domain.Internal("update permission", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByUserID(ctx, userID)
}

func (s *Store) DeleteForUser(ctx context.Context, userID string) error {
	if err := s.repo().Delete(ctx, userID); err != nil {
		return domain.Internal("delete permission", err)
	}
	return nil
}

func (s *Store) IsCodeReferenced(ctx context.Context, code domain.MenuCode) (bool, error) {
	used, err := s.repo().AnyReferences(ctx, code)
	if err != nil {
		return false, domain.Internal("check permission references", err)
	}
	return used, nil
}
