package protocol

import (
	"encoding/json"

	"collectarena/arena"
	"collectarena/world"
)

// 事件名（客户端与服务端约定一致）
const (
	EventInit                 = "init"
	EventNewPlayer            = "new-player"
	EventMovePlayer           = "move-player"
	EventPlayerUpdate         = "player-update"
	EventCollectibleCollected = "collectible-collected"
	EventPlayerDisconnect     = "player-disconnect"
)

// Envelope 每一帧 WebSocket 文本消息的外层结构
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Init 新连接建立时单播的完整世界快照
type Init struct {
	ID           string                       `json:"id"`
	Players      map[string]world.Player      `json:"players"`
	Collectibles map[uint64]arena.Collectible `json:"collectibles"`
}

// Move 客户端移动请求；speed 按 JSON number 接收
type Move struct {
	Direction string  `json:"direction"`
	Speed     float64 `json:"speed"`
}

// PlayerUpdate 广播给所有连接（包括移动者本人）
type PlayerUpdate struct {
	ID    string `json:"id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Score int    `json:"score"`
}

// Collected 收集事件的合并广播
type Collected struct {
	PlayerID       string            `json:"playerId"`
	CollectibleID  uint64            `json:"collectibleId"`
	NewCollectible arena.Collectible `json:"newCollectible"`
	PlayerScore    int               `json:"playerScore"`
}

// NewInit 从世界快照构造 init 载荷
func NewInit(id string, snap world.Snapshot) Init {
	cs := make(map[uint64]arena.Collectible, len(snap.Collectibles))
	for _, c := range snap.Collectibles {
		cs[c.ID] = c
	}
	return Init{ID: id, Players: snap.Players, Collectibles: cs}
}

func NewPlayerUpdate(p world.Player) PlayerUpdate {
	return PlayerUpdate{ID: p.ID, X: p.X, Y: p.Y, Score: p.Score}
}

func NewCollected(c world.Collection) Collected {
	return Collected{
		PlayerID:       c.PlayerID,
		CollectibleID:  c.CollectibleID,
		NewCollectible: c.New,
		PlayerScore:    c.PlayerScore,
	}
}
