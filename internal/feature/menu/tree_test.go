package menu

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yolo-backend/internal/domain"
)

func m(code string, sort int) domain.Menu {
	return domain.Menu{Code: domain.MenuCode(code), Title: code, Sort: sort}
}

func withParent(code, parent string, sort int) domain.Menu {
	x := m(code, sort)
	p := domain.MenuCode(parent)
	x.ParentCode = &p
	return x
}

// shape 把树压成 "code(child,child)" 便于断言
func shape(ns []*Node) string {
	s := ""
	for i, n := range ns {
		if i > 0 {
			s += ","
		}
		s += string(n.Code)
		if len(n.Children) > 0 {
			s += "(" + shape(n.Children) + ")"
		}
	}
	return s
}

func TestBuildTree_InfersParentFromCode(t *testing.T) {
	roots := BuildTree([]domain.Menu{m("system", 1), m("system_dashboard", 1)})
	require.Len(t, roots, 1)
	assert.Equal(t, domain.MenuCode("system"), roots[0].Code)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, domain.MenuCode("system_dashboard"), roots[0].Children[0].Code)
}

func TestBuildTree_PartialGrantPromotesOrphan(t *testing.T) {
	roots := BuildTree([]domain.Menu{m("system_dashboard", 1)})
	require.Len(t, roots, 1)
	assert.Equal(t, domain.MenuCode("system_dashboard"), roots[0].Code)
	assert.Empty(t, roots[0].Children)

	// 中间层被过滤：孙节点挂不到根上，提升为独立根
	roots = BuildTree([]domain.Menu{m("system", 1), m("system_users_roles", 2), m("movies", 3)})
	assert.Equal(t, "system,system_users_roles,movies", shape(roots))
}

func TestBuildTree_OrdersBySortAtEveryLevel(t *testing.T) {
	in := []domain.Menu{
		m("system_users", 2),
		m("books", 3),
		m("system", 1),
		m("system_dashboard", 1),
		m("books_list", 1),
		m("books_new", 0),
	}
	assert.Equal(t, "system(system_dashboard,system_users),books(books_new,books_list)", shape(BuildTree(in)))
}

func TestBuildTree_StableOnTies(t *testing.T) {
	in := []domain.Menu{m("c", 1), m("a", 1), m("b", 1)}
	assert.Equal(t, "c,a,b", shape(BuildTree(in)))
}

func TestBuildTree_ExplicitParentOverridesConvention(t *testing.T) {
	in := []domain.Menu{
		m("system", 1),
		m("movies", 2),
		withParent("system_movies", "movies", 1),
		withParent("orphan", "missing", 3),
		withParent("blank", "", 4),
	}
	assert.Equal(t, "system,movies(system_movies),orphan,blank", shape(BuildTree(in)))
}

func TestBuildTree_CycleTerminatesAndKeepsAllNodes(t *testing.T) {
	res := Build([]domain.Menu{withParent("a", "b", 1), withParent("b", "a", 1)})
	require.Len(t, res.Roots, 1)
	assert.Equal(t, "b(a)", shape(res.Roots))
	assert.Equal(t, []domain.MenuCode{"b"}, res.Broken)
	assert.ElementsMatch(t, []domain.MenuCode{"a", "b"}, Flatten(res.Roots))
}

func TestBuildTree_LongerCycleAndTail(t *testing.T) {
	in := []domain.Menu{
		withParent("tail", "x", 1),
		withParent("x", "y", 2),
		withParent("y", "z", 3),
		withParent("z", "x", 4),
	}
	res := Build(in)
	assert.Equal(t, []domain.MenuCode{"z"}, res.Broken)
	assert.Equal(t, "z(y(x(tail)))", shape(res.Roots))
}

func TestBuildTree_SelfParentIsRoot(t *testing.T) {
	res := Build([]domain.Menu{withParent("self", "self", 1)})
	assert.Equal(t, "self", shape(res.Roots))
	assert.Empty(t, res.Broken)
}

func TestBuildTree_DuplicateCodesFirstSeenWins(t *testing.T) {
	first := m("system", 1)
	first.Title = "first"
	second := m("system", 1)
	second.Title = "second"

	roots := BuildTree([]domain.Menu{first, second, m("system_users", 2)})
	require.Len(t, roots, 1)
	assert.Equal(t, "first", roots[0].Title)
	assert.Equal(t, "system(system_users)", shape(roots))
}

func TestBuildTree_DuplicateCodesLowerSortWins(t *testing.T) {
	late := m("system", 5)
	late.Title = "late"
	early := m("system", 1)
	early.Title = "early"

	roots := BuildTree([]domain.Menu{late, m("system_users", 2), early})
	require.Len(t, roots, 1)
	assert.Equal(t, "early", roots[0].Title)
	assert.Equal(t, 1, roots[0].Sort)
	assert.Equal(t, "system(system_users)", shape(roots))
}

func TestBuildTree_EmptyInput(t *testing.T) {
	roots := BuildTree(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
	b, err := json.Marshal(roots)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestBuildTree_DoesNotMutateInput(t *testing.T) {
	in := []domain.Menu{m("b", 2), m("a", 1)}
	_ = BuildTree(in)
	assert.Equal(t, domain.MenuCode("b"), in[0].Code)
}

func TestBuildTree_CompletenessProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	segments := []string{"sys", "user", "role", "book", "food"}

	for round := 0; round < 200; round++ {
		seen := map[string]bool{}
		var in []domain.Menu
		for len(in) < 1+rng.Intn(25) {
			depth := 1 + rng.Intn(3)
			code := segments[rng.Intn(len(segments))]
			for d := 1; d < depth; d++ {
				code += "_" + segments[rng.Intn(len(segments))]
			}
			if seen[code] {
				continue
			}
			seen[code] = true
			item := m(code, rng.Intn(4))
			if rng.Intn(5) == 0 {
				p := domain.MenuCode(segments[rng.Intn(len(segments))])
				item.ParentCode = &p
			}
			in = append(in, item)
		}

		res := Build(in)
		got := Flatten(res.Roots)
		want := make([]domain.MenuCode, 0, len(in))
		for _, x := range in {
			want = append(want, x.Code)
		}
		require.ElementsMatch(t, want, got, fmt.Sprintf("round %d", round))
	}
}

func TestNode_JSONShape(t *testing.T) {
	roots := BuildTree([]domain.Menu{m("system", 1), m("system_users", 1)})
	b, err := json.Marshal(roots)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "system", out[0]["code"])
	children := out[0]["children"].([]any)
	require.Len(t, children, 1)
	assert.Equal(t, "system_users", children[0].(map[string]any)["code"])
}
