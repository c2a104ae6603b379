package world

import "collectarena/arena"

// Direction 移动方向（服务端权威解释客户端“意图”）
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// ParseDirection 只接受小写的 up/down/left/right，其余（含大小写变体）返回 DirNone
func ParseDirection(s string) Direction {
	switch s {
	case "up":
		return DirUp
	case "down":
		return DirDown
	case "left":
		return DirLeft
	case "right":
		return DirRight
	default:
		return DirNone
	}
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "none"
	}
}

// Player 场地内的玩家实体（服务端权威状态），对外总是以值拷贝返回
type Player struct {
	ID    string `json:"id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Score int    `json:"score"`
}

func (p Player) Pos() arena.Point { return arena.Point{X: p.X, Y: p.Y} }

// Collectible 与 arena 包共用同一结构
type Collectible = arena.Collectible
