package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	Joins        int64 // 建立的会话数
	Leaves       int64 // 结束的会话数
	MovesApplied int64 // 生效的移动
	MovesIgnored int64 // 玩家已离开或方向无法识别
	Collections  int64 // 收集事件
	DecodeErrors int64 // 无法解析或校验失败的入站帧
	RateLimited  int64 // 因单连接限流被丢弃的输入
	InboxDropped int64 // 因房间队列满被丢弃的输入
	SendFailures int64 // 单个接收者发送失败（队列满或已关闭）
	EventCount   int64 // 房间循环处理的命令数
	TotalEventNs int64 // 命令处理累计耗时（纳秒）
}

func (m *RoomMetrics) IncJoins()        { atomic.AddInt64(&m.Joins, 1) }
func (m *RoomMetrics) IncLeaves()       { atomic.AddInt64(&m.Leaves, 1) }
func (m *RoomMetrics) IncMovesApplied() { atomic.AddInt64(&m.MovesApplied, 1) }
func (m *RoomMetrics) IncMovesIgnored() { atomic.AddInt64(&m.MovesIgnored, 1) }
func (m *RoomMetrics) IncCollections()  { atomic.AddInt64(&m.Collections, 1) }
func (m *RoomMetrics) IncDecodeErrors() { atomic.AddInt64(&m.DecodeErrors, 1) }
func (m *RoomMetrics) IncRateLimited()  { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncInboxDropped() { atomic.AddInt64(&m.InboxDropped, 1) }
func (m *RoomMetrics) IncSendFailures() { atomic.AddInt64(&m.SendFailures, 1) }
func (m *RoomMetrics) AddEvent(ns int64) {
	atomic.AddInt64(&m.EventCount, 1)
	atomic.AddInt64(&m.TotalEventNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	events := atomic.LoadInt64(&m.EventCount)
	total := atomic.LoadInt64(&m.TotalEventNs)
	var avgUs float64
	if events > 0 {
		avgUs = float64(total) / float64(events) / 1e3
	}
	return map[string]any{
		"joins":         atomic.LoadInt64(&m.Joins),
		"leaves":        atomic.LoadInt64(&m.Leaves),
		"moves_applied": atomic.LoadInt64(&m.MovesApplied),
		"moves_ignored": atomic.LoadInt64(&m.MovesIgnored),
		"collections":   atomic.LoadInt64(&m.Collections),
		"decode_errors": atomic.LoadInt64(&m.DecodeErrors),
		"rate_limited":  atomic.LoadInt64(&m.RateLimited),
		"inbox_dropped": atomic.LoadInt64(&m.InboxDropped),
		"send_failures": atomic.LoadInt64(&m.SendFailures),
		"event_count":   events,
		"avg_event_us":  avgUs,
	}
}
