package server

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"collectarena/arena"
	"collectarena/world"
)

var ErrRoomClosed = errors.New("room closed")

// RoomOptions 创建房间所需的世界参数
type RoomOptions struct {
	Bounds              arena.Bounds
	MinValue            int
	MaxValue            int
	InitialCollectibles int
	MaxSpeed            int
	InboxSize           int
	Journal             *Journal
	Rand                *rand.Rand // nil 时按时间播种
}

// DefaultRoomOptions 640x480 场地，收集物价值 1..3
func DefaultRoomOptions() RoomOptions {
	return RoomOptions{
		Bounds:              arena.DefaultBounds(),
		MinValue:            arena.DefaultMinValue,
		MaxValue:            arena.DefaultMaxValue,
		InitialCollectibles: 1,
		InboxSize:           256,
	}
}

// Room 房间世界：权威状态在 World 中，所有入站命令由单个协程按顺序处理
type Room struct {
	ID string

	world    *world.World
	dispatch *Dispatcher
	sessions *SessionManager
	metrics  *RoomMetrics

	inbox chan any
	quit  chan struct{}
	done  chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewRoom 创建房间，初始化世界与分发器；需调用 Start 才开始处理命令
func NewRoom(id string, opts RoomOptions) *Room {
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	gen := arena.NewGenerator(opts.Bounds, opts.MinValue, opts.MaxValue, rnd)
	w := world.New(gen, opts.InitialCollectibles)
	w.SetMaxSpeed(opts.MaxSpeed)

	metrics := &RoomMetrics{}
	d := NewDispatcher(id, metrics, opts.Journal)
	return &Room{
		ID:       id,
		world:    w,
		dispatch: d,
		sessions: NewSessionManager(w, d),
		metrics:  metrics,
		inbox:    make(chan any, opts.InboxSize), // 足够缓冲，避免网络读阻塞
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Room) World() *world.World   { return r.world }
func (r *Room) Metrics() *RoomMetrics { return r.metrics }
func (r *Room) NumConnections() int   { return r.dispatch.Len() }
func (r *Room) Done() <-chan struct{} { return r.done }

// Start 启动房间循环（只会启动一次）
func (r *Room) Start() {
	r.startOnce.Do(func() { go r.run() })
}

// Stop 停止房间循环并关闭所有连接
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
	r.Start() // 保证 done 一定会被关闭
	<-r.done
}

func (r *Room) run() {
	defer close(r.done)
	for {
		select {
		case <-r.quit:
			r.dispatch.CloseAll()
			return
		case cmd := <-r.inbox:
			start := time.Now()
			r.handleCommand(cmd)
			r.metrics.AddEvent(time.Since(start).Nanoseconds())
		}
	}
}

// handleCommand 每条命令执行完毕后才处理下一条，世界变更因此是线性化的
func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		p := r.sessions.OnConnect(c.ConnID, c.Conn)
		r.metrics.IncJoins()
		Log.Infof("room=%s player joined: %s at (%d,%d)", r.ID, p.ID, p.X, p.Y)
		if c.Reply != nil {
			c.Reply <- p
		}
	case Move:
		out := r.world.ApplyMove(c.ConnID, c.Direction, c.Speed)
		if !out.Applied {
			r.metrics.IncMovesIgnored()
			return
		}
		r.metrics.IncMovesApplied()
		if out.Collected != nil {
			r.metrics.IncCollections()
			Log.Debugf("room=%s %s collected #%d, score=%d, spawned #%d",
				r.ID, out.Collected.PlayerID, out.Collected.CollectibleID, out.Collected.PlayerScore, out.Collected.New.ID)
		}
		r.dispatch.DispatchMove(out)
	case Leave:
		if r.sessions.OnDisconnect(c.ConnID) {
			r.metrics.IncLeaves()
			Log.Infof("room=%s player left: %s", r.ID, c.ConnID)
		}
	}
}

// Join 将连接加入房间，阻塞直到房间循环完成加入
func (r *Room) Join(ctx context.Context, connID string, c Conn) (world.Player, error) {
	reply := make(chan world.Player, 1)
	select {
	case r.inbox <- Join{ConnID: connID, Conn: c, Reply: reply}:
	case <-r.quit:
		return world.Player{}, ErrRoomClosed
	case <-ctx.Done():
		return world.Player{}, ctx.Err()
	}
	select {
	case p := <-reply:
		return p, nil
	case <-r.done:
		return world.Player{}, ErrRoomClosed
	case <-ctx.Done():
		// 加入命令已入队，之后由 Leave 清理
		return world.Player{}, ctx.Err()
	}
}

// OnInput 入站移动（非阻塞）：队列满时丢弃，不让慢房间反压网络读
func (r *Room) OnInput(m Move) bool {
	select {
	case r.inbox <- m:
		return true
	default:
		r.metrics.IncInboxDropped()
		return false
	}
}

// RequestLeave 请求在房间循环中移除玩家；离开必须生效，因此阻塞写入
func (r *Room) RequestLeave(connID string) {
	select {
	case r.inbox <- Leave{ConnID: connID}:
	case <-r.quit:
	}
}
