package server

import (
	"encoding/json"
	"net/http"

	"collectarena/protocol"
)

// HandleAdminConfig 提供房间配置的读取与更新（热更新速度上限）
// GET /admin/config?room=arena-1  返回当前配置
// POST /admin/config?room=arena-1 以 JSON 载荷更新部分字段
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	room := s.roomFor(r)

	type cfg struct {
		MaxSpeed *int `json:"maxSpeed,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		cur := room.World().MaxSpeed()
		writeJSON(w, http.StatusOK, cfg{MaxSpeed: &cur})
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.MaxSpeed != nil {
			if *body.MaxSpeed < 0 {
				http.Error(w, "maxSpeed must not be negative", http.StatusBadRequest)
				return
			}
			room.World().SetMaxSpeed(*body.MaxSpeed)
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		Log.Infof("config updated: room=%s maxSpeed=%d", room.ID, room.World().MaxSpeed())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleState 输出房间当前世界快照（与 init 载荷同形）
// GET /admin/state?room=arena-1
func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	room := s.roomFor(r)
	writeJSON(w, http.StatusOK, protocol.NewInit("", room.World().Snapshot()))
}

// HandleRooms 列出所有房间
func (s *Server) HandleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.ListRooms())
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=arena-1
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	room := s.roomFor(r)
	snap := room.World().Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"room":         room.ID,
		"players":      len(snap.Players),
		"collectibles": len(snap.Collectibles),
		"connections":  room.NumConnections(),
		"metrics":      room.Metrics().Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
