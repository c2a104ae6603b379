package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"

	"collectarena/protocol"
	"collectarena/world"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	joinWait   = 5 * time.Second
)

var (
	ErrSendQueueFull = errors.New("send queue full")
	ErrConnClosed    = errors.New("connection closed")
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     deadlock.Mutex
	closed bool
}

func NewClientConn(ws *websocket.Conn, queue int) *ClientConn {
	if queue <= 0 {
		queue = 64
	}
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, queue),
	}
}

// Send 将要发送的消息压入队列（非阻塞，满则丢弃并返回错误）
func (c *ClientConn) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		// 为了实时性丢弃，防止阻塞房间循环
		return ErrSendQueueFull
	}
}

// Close 关闭发送队列；写协程排空队列后关闭底层连接
func (c *ClientConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	return nil
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端事件，转换为 Move 注入房间；退出时请求离开
func (c *ClientConn) readPump(room *Room, connID string, limiter *rate.Limiter) {
	defer func() { _ = c.ws.Close() }()
	// 读泵退出时，通知房间在其循环中移除该玩家
	defer room.RequestLeave(connID)
	c.ws.SetReadLimit(1 << 16)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugf("room=%s read %s: %v", room.ID, connID, err)
			}
			return
		}
		env, err := protocol.DecodeEnvelope(payload)
		if err != nil {
			room.metrics.IncDecodeErrors()
			continue
		}
		if env.Event != protocol.EventMovePlayer {
			continue
		}
		m, speed, err := protocol.DecodeMove(env)
		if err != nil {
			room.metrics.IncDecodeErrors()
			Log.Debugf("room=%s bad move from %s: %v", room.ID, connID, err)
			continue
		}
		if limiter != nil && !limiter.Allow() {
			room.metrics.IncRateLimited()
			continue
		}
		room.OnInput(Move{ConnID: connID, Direction: world.ParseDirection(m.Direction), Speed: speed})
	}
}

// HandleWS WebSocket 接入：/ws?room=arena-1，玩家 id 由服务端按连接分配
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = s.cfg.Server.DefaultRoom
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	room := s.rooms.GetOrCreateRoom(roomID)
	connID := uuid.NewString()
	client := NewClientConn(ws, s.cfg.Server.SendQueue)

	ctx, cancel := context.WithTimeout(context.Background(), joinWait)
	defer cancel()
	if _, err := room.Join(ctx, connID, client); err != nil {
		Log.Warnf("room=%s join %s: %v", roomID, connID, err)
		room.RequestLeave(connID)
		_ = ws.Close()
		return
	}

	var limiter *rate.Limiter
	if s.cfg.Server.InputsPerSecond > 0 {
		burst := s.cfg.Server.InputBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(s.cfg.Server.InputsPerSecond), burst)
	}

	go client.writePump()
	go client.readPump(room, connID, limiter)
}
