package arena

import "math/rand"

// Collectible 可收集物：ID 在进程生命周期内单调递增，永不复用
type Collectible struct {
	ID    uint64 `json:"id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Value int    `json:"value"`
}

func (c Collectible) Pos() Point { return Point{X: c.X, Y: c.Y} }

// Generator 在场地内随机生成收集物与出生点
// 非并发安全：由 World 在其锁内调用
type Generator struct {
	bounds   Bounds
	minValue int
	maxValue int
	rnd      *rand.Rand
}

// NewGenerator rnd 为 nil 时使用全局随机源
func NewGenerator(b Bounds, minValue, maxValue int, rnd *rand.Rand) *Generator {
	if minValue > maxValue {
		minValue, maxValue = maxValue, minValue
	}
	return &Generator{bounds: b, minValue: minValue, maxValue: maxValue, rnd: rnd}
}

func (g *Generator) Bounds() Bounds { return g.bounds }

// Generate 以给定 id 生成收集物，位置在 [0, W-size) x [0, H-size) 内均匀分布
func (g *Generator) Generate(id uint64) Collectible {
	return Collectible{
		ID:    id,
		X:     g.intn(g.bounds.Width - g.bounds.CollectibleSize),
		Y:     g.intn(g.bounds.Height - g.bounds.CollectibleSize),
		Value: g.minValue + g.intn(g.maxValue-g.minValue+1),
	}
}

// SpawnPoint 玩家随机出生点
func (g *Generator) SpawnPoint() Point {
	return Point{
		X: g.intn(g.bounds.Width - g.bounds.PlayerSize),
		Y: g.intn(g.bounds.Height - g.bounds.PlayerSize),
	}
}

func (g *Generator) intn(n int) int {
	if n <= 0 {
		return 0
	}
	if g.rnd != nil {
		return g.rnd.Intn(n)
	}
	return rand.Intn(n)
}
