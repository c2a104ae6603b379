package server

import "collectarena/world"

// SessionManager 将连接与玩家身份绑定：连接建立时创建玩家，断开时销毁
type SessionManager struct {
	world    *world.World
	dispatch *Dispatcher
}

func NewSessionManager(w *world.World, d *Dispatcher) *SessionManager {
	return &SessionManager{world: w, dispatch: d}
}

// OnConnect 创建玩家并注册连接，快照在加入后立即获取
func (s *SessionManager) OnConnect(connID string, c Conn) world.Player {
	p := s.world.AddPlayer(connID)
	s.dispatch.Register(connID, c)
	s.dispatch.DispatchJoin(p, s.world.Snapshot())
	return p
}

// OnDisconnect 移除玩家并关闭连接；重复或未知的断开是 no-op
func (s *SessionManager) OnDisconnect(connID string) bool {
	existed := s.world.RemovePlayer(connID)
	if c := s.dispatch.Unregister(connID); c != nil {
		_ = c.Close()
	}
	if existed {
		s.dispatch.DispatchLeave(connID)
	}
	return existed
}
