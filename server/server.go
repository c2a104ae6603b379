package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"collectarena/config"
)

// Server 对外的 HTTP 入口：WebSocket、静态资源、管理与监控接口
type Server struct {
	cfg      config.Config
	rooms    *RoomManager
	upgrader websocket.Upgrader
}

// NewServer 按配置创建房间管理器，并预创建默认房间
func NewServer(cfg config.Config, journal *Journal) *Server {
	opts := DefaultRoomOptions()
	opts.Bounds = cfg.Bounds()
	opts.MinValue = cfg.Arena.MinValue
	opts.MaxValue = cfg.Arena.MaxValue
	opts.InitialCollectibles = cfg.Arena.InitialCollectibles
	opts.MaxSpeed = cfg.Game.MaxSpeed
	opts.Journal = journal

	s := &Server{
		cfg:   cfg,
		rooms: NewRoomManager(opts),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 演示环境：允许所有来源（生产环境需严格限制）
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	_ = s.rooms.GetOrCreateRoom(cfg.Server.DefaultRoom)
	return s
}

func (s *Server) Rooms() *RoomManager { return s.rooms }

// Handler 路由：/ws、/admin/*、/metrics、/healthz，其余交给静态文件
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/admin/config", s.HandleAdminConfig)
	mux.HandleFunc("/admin/state", s.HandleState)
	mux.HandleFunc("/admin/rooms", s.HandleRooms)
	mux.HandleFunc("/metrics", s.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if s.cfg.Server.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.Server.StaticDir)))
	}
	return mux
}

// Close 停止所有房间
func (s *Server) Close() {
	s.rooms.Shutdown()
}

func (s *Server) roomFor(r *http.Request) *Room {
	id := r.URL.Query().Get("room")
	if id == "" {
		id = s.cfg.Server.DefaultRoom
	}
	return s.rooms.GetOrCreateRoom(id)
}
