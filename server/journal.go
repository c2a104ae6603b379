package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/sasha-s/go-deadlock"
)

// JournalEntry 事件日志中的一行
type JournalEntry struct {
	TS    time.Time `json:"ts"`
	Room  string    `json:"room"`
	Event string    `json:"event"`
	Data  any       `json:"data"`
}

// Journal 按小时滚动的 zstd 压缩 JSONL 事件日志，只写不读回
// nil *Journal 可安全调用，表示不记录
type Journal struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      deadlock.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJournal(dir string) *Journal {
	return &Journal{dir: dir, prefix: "events", now: time.Now}
}

// Record 追加一条广播事件
func (j *Journal) Record(room, event string, data any) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	ts := j.now().UTC()
	hour := ts.Format("2006-01-02-15")
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(JournalEntry{TS: ts, Room: room, Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("journal marshal: %w", err)
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

// PathForHour 小时文件路径，如 events-2024-01-02-15.jsonl.zst
func (j *Journal) PathForHour(hour string) string {
	return filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, hour))
}

func (j *Journal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.PathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f = f
	j.enc = enc
	j.w = bufio.NewWriterSize(enc, 64*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var firstErr error
	if j.w != nil {
		if err := j.w.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if j.enc != nil {
		if err := j.enc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if j.f != nil {
		if err := j.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	j.f, j.enc, j.w = nil, nil, nil
	j.curHour = ""
	return firstErr
}
