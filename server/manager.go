package server

import (
	"sort"

	"github.com/sasha-s/go-deadlock"
)

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	opts RoomOptions

	mu    deadlock.RWMutex
	rooms map[string]*Room
}

// RoomInfo 房间列表条目
type RoomInfo struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
}

func NewRoomManager(opts RoomOptions) *RoomManager {
	return &RoomManager{opts: opts, rooms: make(map[string]*Room)}
}

// GetOrCreateRoom 获取或创建房间，并确保房间循环已启动
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.RLock()
	r, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok = m.rooms[id]
	if !ok {
		r = NewRoom(id, m.opts)
		m.rooms[id] = r
		r.Start()
		Log.Infof("room created: %s", id)
	}
	return r
}

// GetRoom 房间不存在时返回 nil
func (m *RoomManager) GetRoom(id string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[id]
}

func (m *RoomManager) ListRooms() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, RoomInfo{ID: id, Players: r.World().NumPlayers()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shutdown 停止所有房间
func (m *RoomManager) Shutdown() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()
	for _, r := range rooms {
		r.Stop()
	}
}
