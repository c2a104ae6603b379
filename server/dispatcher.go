package server

import (
	"github.com/sasha-s/go-deadlock"

	"collectarena/protocol"
	"collectarena/world"
)

// Dispatcher 决定每个状态变化发给哪些连接、发什么
// 消息只编码一次；单个接收者发送失败不影响其他接收者，也不重试
type Dispatcher struct {
	room    string
	metrics *RoomMetrics
	journal *Journal

	mu    deadlock.RWMutex
	conns map[string]Conn
}

func NewDispatcher(room string, metrics *RoomMetrics, journal *Journal) *Dispatcher {
	if metrics == nil {
		metrics = &RoomMetrics{}
	}
	return &Dispatcher{
		room:    room,
		metrics: metrics,
		journal: journal,
		conns:   make(map[string]Conn),
	}
}

func (d *Dispatcher) Register(id string, c Conn) {
	d.mu.Lock()
	d.conns[id] = c
	d.mu.Unlock()
}

// Unregister 返回被移除的连接（不存在时为 nil）
func (d *Dispatcher) Unregister(id string) Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.conns[id]
	if !ok {
		return nil
	}
	delete(d.conns, id)
	return c
}

// CloseAll 清空注册表并关闭所有连接
func (d *Dispatcher) CloseAll() {
	d.mu.Lock()
	conns := d.conns
	d.conns = make(map[string]Conn)
	d.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.conns)
}

// Unicast 只发给一个连接
func (d *Dispatcher) Unicast(id, event string, payload any) {
	b, err := protocol.Encode(event, payload)
	if err != nil {
		Log.Errorf("room=%s encode %s: %v", d.room, event, err)
		return
	}
	d.mu.RLock()
	c, ok := d.conns[id]
	d.mu.RUnlock()
	if !ok {
		return
	}
	d.send(id, c, b)
}

// Broadcast 发给所有连接
func (d *Dispatcher) Broadcast(event string, payload any) {
	d.BroadcastExcept("", event, payload)
}

// BroadcastExcept 发给除 except 以外的所有连接
func (d *Dispatcher) BroadcastExcept(except, event string, payload any) {
	b, err := protocol.Encode(event, payload)
	if err != nil {
		Log.Errorf("room=%s encode %s: %v", d.room, event, err)
		return
	}
	if err := d.journal.Record(d.room, event, payload); err != nil {
		Log.Warnf("room=%s journal %s: %v", d.room, event, err)
	}

	d.mu.RLock()
	targets := make(map[string]Conn, len(d.conns))
	for id, c := range d.conns {
		if id != except {
			targets[id] = c
		}
	}
	d.mu.RUnlock()

	for id, c := range targets {
		d.send(id, c, b)
	}
}

func (d *Dispatcher) send(id string, c Conn, b []byte) {
	if err := c.Send(b); err != nil {
		d.metrics.IncSendFailures()
		Log.Debugf("room=%s send to %s failed: %v", d.room, id, err)
	}
}

// DispatchJoin 新玩家：单播完整快照，向其他人广播 new-player
func (d *Dispatcher) DispatchJoin(p world.Player, snap world.Snapshot) {
	d.Unicast(p.ID, protocol.EventInit, protocol.NewInit(p.ID, snap))
	d.BroadcastExcept(p.ID, protocol.EventNewPlayer, p)
}

// DispatchMove 移动结果：有收集时先广播收集事件，再广播位置；未生效的移动不发送
func (d *Dispatcher) DispatchMove(out world.MoveOutcome) {
	if !out.Applied {
		return
	}
	if out.Collected != nil {
		d.Broadcast(protocol.EventCollectibleCollected, protocol.NewCollected(*out.Collected))
	}
	d.Broadcast(protocol.EventPlayerUpdate, protocol.NewPlayerUpdate(out.Player))
}

// DispatchLeave 通知剩余连接玩家离开
func (d *Dispatcher) DispatchLeave(playerID string) {
	d.BroadcastExcept(playerID, protocol.EventPlayerDisconnect, playerID)
}
