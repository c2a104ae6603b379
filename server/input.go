package server

import "collectarena/world"

// Conn 房间视角下的一条客户端连接（发送端）
type Conn interface {
	Send([]byte) error
	Close() error
}

// 房间收件箱中的命令：每个入站事件都是一个独立的 (connectionID, 事件, 载荷)

// Join 新连接建立，Reply 返回玩家初始状态
type Join struct {
	ConnID string
	Conn   Conn
	Reply  chan<- world.Player
}

// Move 客户端移动意图，由房间循环交给世界裁决
type Move struct {
	ConnID    string
	Direction world.Direction
	Speed     int
}

// Leave 连接断开
type Leave struct {
	ConnID string
}
