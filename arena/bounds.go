package arena

// 默认场地常量，客户端与服务端约定一致
const (
	DefaultWidth           = 640
	DefaultHeight          = 480
	DefaultPlayerSize      = 30
	DefaultCollectibleSize = 20
	DefaultMinValue        = 1
	DefaultMaxValue        = 3
)

// Bounds 场地尺寸与实体包围盒尺寸
type Bounds struct {
	Width           int
	Height          int
	PlayerSize      int
	CollectibleSize int
}

// DefaultBounds 640x480 场地，玩家 30x30，收集物 20x20
func DefaultBounds() Bounds {
	return Bounds{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		PlayerSize:      DefaultPlayerSize,
		CollectibleSize: DefaultCollectibleSize,
	}
}

// PlayerBox 玩家碰撞盒尺寸
func (b Bounds) PlayerBox() Size { return Square(b.PlayerSize) }

// CollectibleBox 收集物碰撞盒尺寸
func (b Bounds) CollectibleBox() Size { return Square(b.CollectibleSize) }

// ClampPlayer 把玩家左上角限制在场地内
func (b Bounds) ClampPlayer(p Point) Point {
	return Point{
		X: Clamp(p.X, b.PlayerSize, b.Width),
		Y: Clamp(p.Y, b.PlayerSize, b.Height),
	}
}

// PlayerTouches 玩家盒与收集物盒是否相交
func (b Bounds) PlayerTouches(player, collectible Point) bool {
	return Overlaps(player, b.PlayerBox(), collectible, b.CollectibleBox())
}
