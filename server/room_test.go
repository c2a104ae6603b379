package server

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collectarena/arena"
	"collectarena/protocol"
	"collectarena/world"
)

type fakeConn struct {
	sendCh chan []byte

	mu     sync.Mutex
	fail   bool
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, 256)}
}

func (f *fakeConn) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("boom")
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	f.sendCh <- cp
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// next 返回下一条消息的信封
func (f *fakeConn) next(t *testing.T) protocol.Envelope {
	t.Helper()
	select {
	case b := <-f.sendCh:
		env, err := protocol.DecodeEnvelope(b)
		require.NoError(t, err)
		return env
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
	}
	return protocol.Envelope{}
}

// expect 读取下一条消息并断言事件名
func (f *fakeConn) expect(t *testing.T, event string) protocol.Envelope {
	t.Helper()
	env := f.next(t)
	require.Equal(t, event, env.Event, "payload: %s", env.Data)
	return env
}

func (f *fakeConn) expectNone(t *testing.T) {
	t.Helper()
	select {
	case b := <-f.sendCh:
		t.Fatalf("unexpected message: %s", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func decode[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	v, err := protocol.DecodePayload[T](env)
	require.NoError(t, err)
	return v
}

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	opts := DefaultRoomOptions()
	opts.Rand = rand.New(rand.NewSource(42))
	r := NewRoom("test", opts)
	r.Start()
	t.Cleanup(r.Stop)
	return r
}

func join(t *testing.T, r *Room, id string) *fakeConn {
	t.Helper()
	fc := newFakeConn()
	p, err := r.Join(context.Background(), id, fc)
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
	return fc
}

// syncRoom 等待房间循环处理完此前入队的命令
func syncRoom(t *testing.T, r *Room) {
	t.Helper()
	marker := newFakeConn()
	_, err := r.Join(context.Background(), "sync-"+time.Now().Format("150405.000000000"), marker)
	require.NoError(t, err)
}

func clearCollectibles(r *Room) {
	for _, c := range r.World().Collectibles() {
		r.World().RemoveCollectible(c.ID)
	}
}

func TestJoinSendsInitAndAnnounces(t *testing.T) {
	r := newTestRoom(t)

	a := join(t, r, "a")
	initA := decode[protocol.Init](t, a.expect(t, protocol.EventInit))
	assert.Equal(t, "a", initA.ID)
	assert.Contains(t, initA.Players, "a")
	assert.Len(t, initA.Collectibles, 1)

	b := join(t, r, "b")
	initB := decode[protocol.Init](t, b.expect(t, protocol.EventInit))
	assert.Len(t, initB.Players, 2)

	np := decode[world.Player](t, a.expect(t, protocol.EventNewPlayer))
	assert.Equal(t, "b", np.ID)
	assert.Zero(t, np.Score)

	// 新玩家自己不会收到 new-player
	b.expectNone(t)
}

func TestMoveBroadcastsUpdateToEveryone(t *testing.T) {
	r := newTestRoom(t)
	clearCollectibles(r)
	a := join(t, r, "a")
	a.expect(t, protocol.EventInit)
	b := join(t, r, "b")
	b.expect(t, protocol.EventInit)
	a.expect(t, protocol.EventNewPlayer)

	before, _ := r.World().Player("a")
	require.True(t, r.OnInput(Move{ConnID: "a", Direction: world.DirRight, Speed: 0}))

	for _, fc := range []*fakeConn{a, b} {
		up := decode[protocol.PlayerUpdate](t, fc.expect(t, protocol.EventPlayerUpdate))
		assert.Equal(t, "a", up.ID)
		assert.Equal(t, before.X, up.X)
		assert.Equal(t, before.Y, up.Y)
	}
	assert.EqualValues(t, 1, r.Metrics().Snapshot()["moves_applied"])
}

func TestCollectBroadcastsCombinedFact(t *testing.T) {
	r := newTestRoom(t)
	a := join(t, r, "a")
	a.expect(t, protocol.EventInit)
	b := join(t, r, "b")
	b.expect(t, protocol.EventInit)
	a.expect(t, protocol.EventNewPlayer)

	clearCollectibles(r)
	pa, _ := r.World().Player("a")
	target := world.Collectible{ID: 1000, X: pa.X, Y: pa.Y, Value: 2}
	require.True(t, r.World().AddCollectible(target))

	r.OnInput(Move{ConnID: "a", Direction: world.DirUp, Speed: 0})

	for _, fc := range []*fakeConn{a, b} {
		col := decode[protocol.Collected](t, fc.expect(t, protocol.EventCollectibleCollected))
		assert.Equal(t, "a", col.PlayerID)
		assert.Equal(t, uint64(1000), col.CollectibleID)
		assert.Equal(t, uint64(1001), col.NewCollectible.ID)
		assert.Equal(t, 2, col.PlayerScore)

		up := decode[protocol.PlayerUpdate](t, fc.expect(t, protocol.EventPlayerUpdate))
		assert.Equal(t, 2, up.Score)
	}

	live := r.World().Collectibles()
	require.Len(t, live, 1)
	assert.Equal(t, uint64(1001), live[0].ID)
	assert.EqualValues(t, 1, r.Metrics().Snapshot()["collections"])
}

func TestStaleAndInvalidMovesAreSilent(t *testing.T) {
	r := newTestRoom(t)
	a := join(t, r, "a")
	a.expect(t, protocol.EventInit)

	r.OnInput(Move{ConnID: "ghost", Direction: world.DirUp, Speed: 3})
	r.OnInput(Move{ConnID: "a", Direction: world.DirNone, Speed: 3})
	syncRoom(t, r)

	// syncRoom 的加入会广播 new-player，除此之外没有任何消息
	a.expect(t, protocol.EventNewPlayer)
	a.expectNone(t)
	assert.EqualValues(t, 2, r.Metrics().Snapshot()["moves_ignored"])
}

func TestUppercaseDirectionIsSilent(t *testing.T) {
	r := newTestRoom(t)
	clearCollectibles(r)
	a := join(t, r, "a")
	a.expect(t, protocol.EventInit)
	b := join(t, r, "b")
	b.expect(t, protocol.EventInit)
	a.expect(t, protocol.EventNewPlayer)
	before, _ := r.World().Player("a")

	for _, dir := range []string{"UP", "Down", "LEFT", "Right"} {
		r.OnInput(Move{ConnID: "a", Direction: world.ParseDirection(dir), Speed: 5})
	}
	syncRoom(t, r)

	a.expect(t, protocol.EventNewPlayer)
	b.expect(t, protocol.EventNewPlayer)
	a.expectNone(t)
	b.expectNone(t)
	after, _ := r.World().Player("a")
	assert.Equal(t, before, after)
	assert.EqualValues(t, 4, r.Metrics().Snapshot()["moves_ignored"])
	assert.Zero(t, r.Metrics().Snapshot()["moves_applied"])
}

func TestLeaveNotifiesRemaining(t *testing.T) {
	r := newTestRoom(t)
	clearCollectibles(r)
	a := join(t, r, "a")
	a.expect(t, protocol.EventInit)
	b := join(t, r, "b")
	b.expect(t, protocol.EventInit)
	a.expect(t, protocol.EventNewPlayer)

	r.RequestLeave("b")
	env := a.expect(t, protocol.EventPlayerDisconnect)
	assert.Equal(t, "b", decode[string](t, env))
	assert.True(t, b.isClosed())

	_, ok := r.World().Player("b")
	assert.False(t, ok)
	b.expectNone(t)

	// 重复离开是 no-op
	r.RequestLeave("b")
	r.OnInput(Move{ConnID: "a", Direction: world.DirLeft, Speed: 1})
	up := decode[protocol.PlayerUpdate](t, a.expect(t, protocol.EventPlayerUpdate))
	assert.Equal(t, "a", up.ID)
	assert.EqualValues(t, 1, r.Metrics().Snapshot()["leaves"])

	// 后续快照不再引用离开的玩家
	_, ok = r.World().Snapshot().Players["b"]
	assert.False(t, ok)
}

func TestFailedSendDoesNotBlockOthers(t *testing.T) {
	r := newTestRoom(t)
	clearCollectibles(r)
	a := join(t, r, "a")
	a.expect(t, protocol.EventInit)
	bad := join(t, r, "bad")
	bad.expect(t, protocol.EventInit)
	a.expect(t, protocol.EventNewPlayer)
	c := join(t, r, "c")
	c.expect(t, protocol.EventInit)
	a.expect(t, protocol.EventNewPlayer)
	bad.expect(t, protocol.EventNewPlayer)

	bad.mu.Lock()
	bad.fail = true
	bad.mu.Unlock()

	r.OnInput(Move{ConnID: "a", Direction: world.DirDown, Speed: 1})
	a.expect(t, protocol.EventPlayerUpdate)
	c.expect(t, protocol.EventPlayerUpdate)
	assert.Eventually(t, func() bool {
		return r.Metrics().Snapshot()["send_failures"] == int64(1)
	}, time.Second, 5*time.Millisecond)
}

func TestSimultaneousClaimsThroughRoom(t *testing.T) {
	r := newTestRoom(t)
	a := join(t, r, "a")
	a.expect(t, protocol.EventInit)
	b := join(t, r, "b")
	b.expect(t, protocol.EventInit)
	a.expect(t, protocol.EventNewPlayer)

	// 两个玩家都移到左上角，再在那里放一个收集物
	for _, id := range []string{"a", "b"} {
		r.OnInput(Move{ConnID: id, Direction: world.DirLeft, Speed: 640})
		r.OnInput(Move{ConnID: id, Direction: world.DirUp, Speed: 480})
	}
	syncRoom(t, r)
	pa, _ := r.World().Player("a")
	pb, _ := r.World().Player("b")
	require.Equal(t, arena.Point{}, pa.Pos())
	require.Equal(t, arena.Point{}, pb.Pos())

	clearCollectibles(r)
	require.True(t, r.World().AddCollectible(world.Collectible{ID: 5000, X: 5, Y: 5, Value: 3}))

	r.OnInput(Move{ConnID: "a", Direction: world.DirRight, Speed: 0})
	r.OnInput(Move{ConnID: "b", Direction: world.DirRight, Speed: 0})
	syncRoom(t, r)

	claims := 0
	for len(a.sendCh) > 0 {
		env := a.next(t)
		if env.Event == protocol.EventCollectibleCollected && decode[protocol.Collected](t, env).CollectibleID == 5000 {
			claims++
		}
	}
	assert.Equal(t, 1, claims)
	for _, c := range r.World().Collectibles() {
		assert.NotEqual(t, uint64(5000), c.ID)
	}
	assert.Len(t, r.World().Collectibles(), 1)
}

func TestJoinAfterStopFails(t *testing.T) {
	r := NewRoom("closed", DefaultRoomOptions())
	r.Start()
	r.Stop()
	_, err := r.Join(context.Background(), "x", newFakeConn())
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestStopClosesConnections(t *testing.T) {
	r := NewRoom("closing", DefaultRoomOptions())
	r.Start()
	a := newFakeConn()
	_, err := r.Join(context.Background(), "a", a)
	require.NoError(t, err)
	r.Stop()
	assert.True(t, a.isClosed())
}

func TestInitPayloadJSONKeys(t *testing.T) {
	r := newTestRoom(t)
	a := join(t, r, "a")
	env := a.expect(t, protocol.EventInit)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	assert.Contains(t, raw, "id")
	assert.Contains(t, raw, "players")
	assert.Contains(t, raw, "collectibles")
}
