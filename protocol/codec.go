package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyFrame   = errors.New("protocol: empty frame")
	ErrUnknownEvent = errors.New("protocol: unknown event")
)

// Encode 将载荷包装为 {"event":..., "data":...}
func Encode(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, fmt.Errorf("encode: %w", ErrUnknownEvent)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: pb})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.Event == "" {
		return Envelope{}, fmt.Errorf("decode envelope: %w", ErrUnknownEvent)
	}
	return e, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("empty payload for event %q", env.Event)
	}
	err := json.Unmarshal(env.Data, &out)
	return out, err
}

// DecodeMove 校验并解析 move-player 载荷，返回整数速度（小数部分截断）
func DecodeMove(env Envelope) (Move, int, error) {
	if env.Event != EventMovePlayer {
		return Move{}, 0, fmt.Errorf("decode move: %w: %q", ErrUnknownEvent, env.Event)
	}
	if err := validateMove(env.Data); err != nil {
		return Move{}, 0, err
	}
	m, err := DecodePayload[Move](env)
	if err != nil {
		return Move{}, 0, fmt.Errorf("decode move: %w", err)
	}
	speed := m.Speed
	if speed > math.MaxInt32 {
		speed = math.MaxInt32
	}
	if speed < math.MinInt32 {
		speed = math.MinInt32
	}
	return m, int(speed), nil
}
