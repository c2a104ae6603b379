package world

import "collectarena/arena"

// Collection 一次收集事件：旧收集物被删除，新收集物补位
type Collection struct {
	PlayerID      string
	CollectibleID uint64
	New           Collectible
	PlayerScore   int
}

// MoveOutcome ApplyMove 的结果，所有字段均为变更完成时刻的拷贝
type MoveOutcome struct {
	Applied   bool // 玩家不存在或方向无法识别时为 false
	Player    Player
	Collected *Collection
}

// ApplyMove 执行一次移动、越界裁剪，并与所有存活收集物做碰撞检测
// 多个收集物同时重叠时按插入顺序取第一个，每次移动最多一次收集
func (w *World) ApplyMove(playerID string, dir Direction, speed int) MoveOutcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[playerID]
	if !ok || dir == DirNone {
		return MoveOutcome{}
	}
	speed = w.capSpeedLocked(speed)

	pos := p.Pos()
	switch dir {
	case DirUp:
		pos.Y -= speed
	case DirDown:
		pos.Y += speed
	case DirLeft:
		pos.X -= speed
	case DirRight:
		pos.X += speed
	}
	pos = w.gen.Bounds().ClampPlayer(pos)
	p.X, p.Y = pos.X, pos.Y

	out := MoveOutcome{Applied: true}
	if c, hit := w.firstOverlapLocked(pos); hit {
		p.Score += c.Value
		w.removeCollectibleLocked(c.ID)
		fresh := w.spawnLocked()
		out.Collected = &Collection{
			PlayerID:      p.ID,
			CollectibleID: c.ID,
			New:           fresh,
			PlayerScore:   p.Score,
		}
	}
	out.Player = *p
	return out
}

// capSpeedLocked 速度不超过场地宽高之和，坐标加法因此不会溢出
func (w *World) capSpeedLocked(speed int) int {
	if speed < 0 {
		return 0
	}
	if w.maxSpeed > 0 && speed > w.maxSpeed {
		speed = w.maxSpeed
	}
	b := w.gen.Bounds()
	return min(speed, b.Width+b.Height)
}

func (w *World) firstOverlapLocked(pos arena.Point) (Collectible, bool) {
	b := w.gen.Bounds()
	for _, id := range w.order {
		c := w.collectibles[id]
		if b.PlayerTouches(pos, c.Pos()) {
			return *c, true
		}
	}
	return Collectible{}, false
}
