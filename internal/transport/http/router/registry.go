package router

import (
	"cmp"
	"slices"
	"sync"

	"github.com/gin-gonic/gin"
)

// APIModule 挂到用户端已鉴权分组 /api/v1
type APIModule interface{ MountAPI(*gin.RouterGroup) }

// AdminModule 挂到管理端分组 /admin/v1
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// 实现该接口可控制挂载顺序（数值越小越先挂），不实现则默认 100
type prioritizer interface{ Priority() int }

var (
	mu        sync.RWMutex
	apiMods   []APIModule
	adminMods []AdminModule
)

// Register 按实现的接口分发到 API/Admin 列表；启动时在 main 中调用
func Register(mod any) {
	mu.Lock()
	defer mu.Unlock()
	if m, ok := mod.(APIModule); ok {
		apiMods = append(apiMods, m)
	}
	if m, ok := mod.(AdminModule); ok {
		adminMods = append(adminMods, m)
	}
}

func MountAllAPI(g *gin.RouterGroup) {
	mu.RLock()
	mods := slices.Clone(apiMods)
	mu.RUnlock()
	for _, m := range byPriority(mods) {
		m.MountAPI(g)
	}
}

func MountAllAdmin(g *gin.RouterGroup) {
	mu.RLock()
	mods := slices.Clone(adminMods)
	mu.RUnlock()
	for _, m := range byPriority(mods) {
		m.MountAdmin(g)
	}
}

func byPriority[M any](mods []M) []M {
	slices.SortStableFunc(mods, func(a, b M) int { return cmp.Compare(priorityOf(a), priorityOf(b)) })
	return mods
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
