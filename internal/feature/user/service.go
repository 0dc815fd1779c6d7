// Package user 账号相关用例：登录、注册、菜单树与授权维护。
package user

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"yolo-backend/internal/domain"
	"yolo-backend/internal/feature/menu"
	"yolo-backend/internal/feature/permission"
	"yolo-backend/internal/repo"
	"yolo-backend/pkg/utils"
)

type TokenIssuer interface {
	Issue(uid string, isAdmin bool, username string) (string, error)
}

type Service struct {
	db      *gorm.DB
	catalog *menu.Catalog
	perms   *permission.Store
	tokens  TokenIssuer
	log     *zap.Logger
	Now     func() time.Time
}

func NewService(db *gorm.DB, catalog *menu.Catalog, tokens TokenIssuer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:      db,
		catalog: catalog,
		perms:   permission.NewStore(db),
		tokens:  tokens,
		log:     log,
		Now:     time.Now,
	}
}

const usernameMin, usernameMax = 3, 20

var errBadCredentials = domain.AuthFailed("invalid username or password")

// Login 校验口令 → 签发令牌 → 按授权组装菜单树
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	users := repo.NewUserRepo(s.db)
	u, err := users.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, domain.Internal("find user", err)
	}
	if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
		return nil, errBadCredentials
	}

	tok, err := s.tokens.Issue(u.ID, u.IsAdmin, u.Username)
	if err != nil {
		return nil, domain.Internal("issue token", err)
	}

	now := s.Now()
	if err := users.TouchLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("touch last login failed", zap.String("userId", u.ID), zap.Error(err))
	} else {
		u.LastLoginAt = &now
	}
	if utils.NeedsRehash(u.PasswordHash) {
		if h := utils.HashPassword(in.Password); h != "" {
			if err := users.SetPasswordHash(ctx, u.ID, h); err != nil {
				s.log.Warn("upgrade legacy password digest failed", zap.String("userId", u.ID), zap.Error(err))
			}
		}
	}

	menus, err := s.menusFor(ctx, u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AuthResult: AuthResult{Token: tok, User: u}, Menus: menus}, nil
}

// Register 用户与默认授权在同一事务内写入
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	all, err := s.catalog.AllCodes(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.newUser(in, false, "SYSTEM")
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createUser(ctx, tx, u); err != nil {
			return err
		}
		_, err := s.perms.WithTx(tx).CreateDefault(ctx, u.ID, u.Username, all)
		return err
	})
	if err != nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(u.ID, u.IsAdmin, u.Username)
	if err != nil {
		return nil, domain.Internal("issue token", err)
	}
	return &AuthResult{Token: tok, User: u}, nil
}

// CreateUser 管理员创建用户，授权取自入参而非全量目录
func (s *Service) CreateUser(ctx context.Context, in CreateInput, actor string) (*UserMenus, error) {
	codes := domain.NewCodeSet(in.MenuCodes...)
	if err := s.checkKnown(ctx, codes); err != nil {
		return nil, err
	}
	u, err := s.newUser(in.RegisterInput, in.IsAdmin, actor)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createUser(ctx, tx, u); err != nil {
			return err
		}
		_, err := s.perms.WithTx(tx).CreateWithGrant(ctx, u.ID, u.Username, codes, in.IsAdmin, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetUserMenus(ctx, u.ID)
}

func (s *Service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.findUser(ctx, s.db, userID)
}

// MenuTree 当前用户可见的菜单树；管理员直接看到全量目录
func (s *Service) MenuTree(ctx context.Context, userID string) ([]*menu.Node, error) {
	u, err := s.findUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return s.menusFor(ctx, u)
}

// GetUserMenus 管理端查看某用户的授权；尚无授权记录时返回空集
func (s *Service) GetUserMenus(ctx context.Context, userID string) (*UserMenus, error) {
	u, err := s.findUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	codes := domain.CodeSet{}
	p, err := s.perms.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		codes = p.CodeSet()
	case domain.KindOf(err) != domain.KindNotFound:
		return nil, err
	}
	granted, err := s.catalog.ListByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	return &UserMenus{
		UserID:    u.ID,
		Username:  u.Username,
		IsAdmin:   u.IsAdmin,
		MenuCodes: codes.Sorted(),
		Menus:     s.build(granted, u.ID),
	}, nil
}

// UpdateUserMenus 整体替换授权编码；isAdmin 同时写入用户与授权记录
func (s *Service) UpdateUserMenus(ctx context.Context, userID string, in UpdateMenusInput, actor string) (*UserMenus, error) {
	if in.MenuCodes != nil {
		if err := s.checkKnown(ctx, domain.NewCodeSet(*in.MenuCodes...)); err != nil {
			return nil, err
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.findUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if in.IsAdmin != nil && *in.IsAdmin != u.IsAdmin {
			if err := repo.NewUserRepo(tx).SetAdmin(ctx, userID, *in.IsAdmin, actor); err != nil {
				return domain.Internal("update user", err)
			}
		}

		store := s.perms.WithTx(tx)
		_, err = store.GetByUserID(ctx, userID)
		if domain.KindOf(err) == domain.KindNotFound {
			codes := domain.CodeSet{}
			if in.MenuCodes != nil {
				codes = domain.NewCodeSet(*in.MenuCodes...)
			}
			isAdmin := u.IsAdmin
			if in.IsAdmin != nil {
				isAdmin = *in.IsAdmin
			}
			_, err = store.CreateWithGrant(ctx, userID, u.Username, codes, isAdmin, actor)
			return err
		}
		if err != nil {
			return err
		}
		_, err = store.UpdateGrant(ctx, userID, in.MenuCodes, in.IsAdmin, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetUserMenus(ctx, userID)
}

func (s *Service) List(ctx context.Context, q domain.UserQuery) (*ListResult, error) {
	users, total, err := repo.NewUserRepo(s.db).List(ctx, q)
	if err != nil {
		return nil, domain.Internal("list users", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return &ListResult{List: users, Total: total}, nil
}

// SoftDelete 注销/封禁，保留记录与授权
func (s *Service) SoftDelete(ctx context.Context, userID string) error {
	ok, err := repo.NewUserRepo(s.db).SoftDelete(ctx, userID)
	if err != nil {
		return domain.Internal("delete user", err)
	}
	if !ok {
		return domain.NotFound("user not found")
	}
	return nil
}

// HardDelete 物理删除用户并级联删除授权
func (s *Service) HardDelete(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.NewUserRepo(tx).HardDelete(ctx, userID)
		if err != nil {
			return domain.Internal("delete user", err)
		}
		if !ok {
			return domain.NotFound("user not found")
		}
		return s.perms.WithTx(tx).DeleteForUser(ctx, userID)
	})
}

func (s *Service) menusFor(ctx context.Context, u *domain.User) ([]*menu.Node, error) {
	if u.IsAdmin {
		all, err := s.catalog.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return s.build(all, u.ID), nil
	}

	p, err := s.perms.GetByUserID(ctx, u.ID)
	if domain.KindOf(err) == domain.KindNotFound {
		all, aerr := s.catalog.AllCodes(ctx)
		if aerr != nil {
			return nil, aerr
		}
		p, err = s.perms.CreateDefault(ctx, u.ID, u.Username, all)
	}
	if err != nil {
		return nil, err
	}
	granted, err := s.catalog.ListByCodes(ctx, p.CodeSet())
	if err != nil {
		return nil, err
	}
	return s.build(granted, u.ID), nil
}

func (s *Service) build(ms []domain.Menu, userID string) []*menu.Node {
	res := menu.Build(ms)
	if len(res.Broken) > 0 {
		s.log.Warn("menu parent cycle broken",
			zap.String("kind", string(domain.KindIntegrity)),
			zap.String("userId", userID),
			zap.Any("codes", res.Broken))
	}
	return res.Roots
}

func (s *Service) checkKnown(ctx context.Context, codes domain.CodeSet) error {
	missing, err := s.catalog.Unknown(ctx, codes)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		parts := make([]string, len(missing))
		for i, c := range missing {
			parts[i] = c.String()
		}
		return domain.BadRequest("unknown menu codes: " + strings.Join(parts, ","))
	}
	return nil
}

func (s *Service) newUser(in RegisterInput, isAdmin bool, actor string) (*domain.User, error) {
	name := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(name); n < usernameMin || n > usernameMax {
		return nil, domain.BadRequest("username must be 3-20 characters")
	}
	h := utils.HashPassword(in.Password)
	if h == "" {
		return nil, domain.BadRequest("password cannot be hashed")
	}
	return &domain.User{
		ID:           utils.NewID(),
		Username:     name,
		PasswordHash: h,
		Email:        in.Email,
		Mobile:       in.Mobile,
		Gender:       in.Gender,
		IsAdmin:      isAdmin,
		CreatedBy:    actor,
		UpdatedBy:    actor,
	}, nil
}

func (s *Service) findUser(ctx context.Context, db *gorm.DB, userID string) (*domain.User, error) {
	u, err := repo.NewUserRepo(db).FindByID(ctx, userID)
	if err != nil {
		return nil, domain.Internal("find user", err)
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func createUser(ctx context.Context, tx *gorm.DB, u *domain.User) error {
	if err := repo.NewUserRepo(tx).Create(ctx, u); err != nil {
		if repo.IsDuplicateKey(err) {
			return domain.Conflict("username already exists")
		}
		return domain.Internal("create user", err)
	}
	return nil
}
