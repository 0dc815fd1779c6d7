package menu

import (
	"sort"

	"yolo-backend/internal/domain"
)

type Node struct {
	domain.Menu
	Children []*Node `json:"children"`
}

// Result Broken 记录因成环被断开上级链接、提升为根的编码，由调用方记日志
type Result struct {
	Roots  []*Node
	Broken []domain.MenuCode
}

// BuildTree 将已按权限过滤的平铺菜单组装成森林；无副作用。
func BuildTree(menus []domain.Menu) []*Node { return Build(menus).Roots }

// Build 先按 sort 稳定排序再建树。编码重复时保留排序后的第一条，
// 即 sort 较小者；sort 相同才按输入顺序先到先得。
func Build(menus []domain.Menu) Result {
	ordered := make([]domain.Menu, len(menus))
	copy(ordered, menus)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sort < ordered[j].Sort })

	// 下标表：编码 -> 下标，重复编码先到先得
	index := make(map[domain.MenuCode]int, len(ordered))
	nodes := make([]*Node, 0, len(ordered))
	for _, m := range ordered {
		if _, dup := index[m.Code]; dup {
			continue
		}
		index[m.Code] = len(nodes)
		nodes = append(nodes, &Node{Menu: m, Children: []*Node{}})
	}

	// parent[i] == -1 表示根：无上级、上级被过滤掉、或指向自身
	parent := make([]int, len(nodes))
	for i, n := range nodes {
		parent[i] = -1
		if ref, ok := n.ParentRef(); ok {
			if p, found := index[ref]; found && p != i {
				parent[i] = p
			}
		}
	}

	var res Result
	// 0 未访问 / 1 在当前路径上 / 2 已确认可达根
	state := make([]uint8, len(nodes))
	for start := range nodes {
		var path []int
		cur := start
		for cur != -1 && state[cur] == 0 {
			state[cur] = 1
			path = append(path, cur)
			cur = parent[cur]
		}
		if cur != -1 && state[cur] == 1 {
			// 回到当前路径：最后入栈的节点闭合了环，断开它
			last := path[len(path)-1]
			parent[last] = -1
			res.Broken = append(res.Broken, nodes[last].Code)
		}
		for _, i := range path {
			state[i] = 2
		}
	}

	// nodes 已按 sort 稳定排序，按此顺序挂载即得到有序 children
	for i, n := range nodes {
		if p := parent[i]; p >= 0 {
			nodes[p].Children = append(nodes[p].Children, n)
		} else {
			res.Roots = append(res.Roots, n)
		}
	}
	if res.Roots == nil {
		res.Roots = []*Node{}
	}
	return res
}

// Flatten 先序遍历，便于校验与导出
func Flatten(roots []*Node) []domain.MenuCode {
	var out []domain.MenuCode
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			out = append(out, n.Code)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}
