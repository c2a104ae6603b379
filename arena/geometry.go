package arena

// Point 左上角坐标（整数像素）
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size 轴对齐包围盒的宽高
type Size struct {
	W int
	H int
}

// Square 正方形尺寸
func Square(n int) Size { return Size{W: n, H: n} }

// Clamp 将坐标限制在 [0, arenaSize-size]，保证尺寸为 size 的盒子完全落在场地内
func Clamp(pos, size, arenaSize int) int {
	max := arenaSize - size
	if max < 0 {
		max = 0
	}
	if pos < 0 {
		return 0
	}
	if pos > max {
		return max
	}
	return pos
}

// Overlaps 严格的 AABB 相交判断：仅边缘接触不算碰撞
func Overlaps(a Point, sa Size, b Point, sb Size) bool {
	return a.X < b.X+sb.W &&
		a.X+sa.W > b.X &&
		a.Y < b.Y+sb.H &&
		a.Y+sa.H > b.Y
}
