package permission

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"yolo-backend/internal/core/database/dbtest"
	"yolo-backend/internal/domain"
)

func TestStore_GetByUserIDNotFound(t *testing.T) {
	s := NewStore(dbtest.Open(t))
	_, err := s.GetByUserID(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CreateDefaultIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))
	all := domain.NewCodeSet("system", "system_dashboard", "system_users")

	first, err := s.CreateDefault(ctx, "u1", "alice", all)
	require.NoError(t, err)
	assert.Equal(t, all, first.CodeSet())
	assert.Equal(t, "SYSTEM", first.CreatedBy)

	// 第二次调用即使目录已变化，也返回原有快照
	second, err := s.CreateDefault(ctx, "u1", "alice", domain.NewCodeSet("books"))
	require.NoError(t, err)
	assert.Equal(t, all, second.CodeSet())

	got, err := s.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.MenuCode{"system", "system_dashboard", "system_users"}, ToGrant(got).MenuCodes)
}

func TestStore_CreateDefaultConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))
	all := domain.NewCodeSet("system", "books")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateDefault(ctx, "u1", "alice", all)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := s.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, all, got.CodeSet())
}

func TestStore_CreateWithGrantInsideTx(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	s := NewStore(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := s.WithTx(tx).CreateWithGrant(ctx, "u2", "root", domain.NewCodeSet("system"), true, "admin")
		return err
	})
	require.NoError(t, err)

	got, err := s.GetByUserID(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, "admin", got.CreatedBy)
	assert.Equal(t, domain.NewCodeSet("system"), got.CodeSet())
}

func TestStore_UpdateGrantReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))
	_, err := s.CreateDefault(ctx, "u1", "alice", domain.NewCodeSet("system", "system_users", "books"))
	require.NoError(t, err)

	codes := []domain.MenuCode{"movies", "system", "movies", " "}
	p, err := s.UpdateGrant(ctx, "u1", &codes, nil, "root")
	require.NoError(t, err)
	assert.Equal(t, domain.NewCodeSet("movies", "system"), p.CodeSet())
	assert.False(t, p.IsAdmin)
	assert.Equal(t, "root", p.UpdatedBy)

	// codes 为 nil 时只改标记
	yes := true
	p, err = s.UpdateGrant(ctx, "u1", nil, &yes, "root2")
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
	assert.Equal(t, domain.NewCodeSet("movies", "system"), p.CodeSet())

	empty := []domain.MenuCode{}
	p, err = s.UpdateGrant(ctx, "u1", &empty, nil, "root")
	require.NoError(t, err)
	assert.Empty(t, p.CodeSet())

	_, err = s.UpdateGrant(ctx, "ghost", &codes, nil, "root")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteForUserAndReferences(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))
	_, err := s.CreateDefault(ctx, "u1", "alice", domain.NewCodeSet("books"))
	require.NoError(t, err)

	used, err := s.IsCodeReferenced(ctx, "books")
	require.NoError(t, err)
	assert.True(t, used)
	used, err = s.IsCodeReferenced(ctx, "movies")
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, s.DeleteForUser(ctx, "u1"))
	_, err = s.GetByUserID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	used, err = s.IsCodeReferenced(ctx, "books")
	require.NoError(t, err)
	assert.False(t, used)

	// 删除不存在的记录不报错
	assert.NoError(t, s.DeleteForUser(ctx, "u1"))
}
