package world

import (
	"github.com/sasha-s/go-deadlock"

	"collectarena/arena"
)

// World 权威世界状态：玩家与收集物
// 所有操作在同一把锁内完成，外部观察者永远看不到“移动 + 碰撞”的中间态
type World struct {
	mu deadlock.Mutex

	gen     *arena.Generator
	players map[string]*Player

	collectibles map[uint64]*Collectible
	order        []uint64 // 收集物插入顺序，碰撞检测按此顺序“先到先得”
	nextID       uint64

	maxSpeed int
}

// Snapshot 某一时刻的不可变拷贝
type Snapshot struct {
	Players      map[string]Player
	Collectibles []Collectible
}

// New 创建世界并预先生成 initial 个收集物（至少 1 个）
func New(gen *arena.Generator, initial int) *World {
	w := &World{
		gen:          gen,
		players:      make(map[string]*Player),
		collectibles: make(map[uint64]*Collectible),
	}
	if initial < 1 {
		initial = 1
	}
	for i := 0; i < initial; i++ {
		w.spawnLocked()
	}
	return w
}

func (w *World) Bounds() arena.Bounds { return w.gen.Bounds() }

// AddPlayer 随机出生、零分；重复加入同一 id 返回已有记录
func (w *World) AddPlayer(id string) Player {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.players[id]; ok {
		return *p
	}
	sp := w.gen.SpawnPoint()
	p := &Player{ID: id, X: sp.X, Y: sp.Y}
	w.players[id] = p
	return *p
}

// RemovePlayer 返回该玩家此前是否存在
func (w *World) RemovePlayer(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.players[id]; !ok {
		return false
	}
	delete(w.players, id)
	return true
}

func (w *World) Player(id string) (Player, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

func (w *World) NumPlayers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.players)
}

// Players 玩家快照
func (w *World) Players() map[string]Player {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.playersLocked()
}

// Collectibles 收集物快照（插入顺序）
func (w *World) Collectibles() []Collectible {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.collectiblesLocked()
}

// Snapshot 在同一把锁内同时拷贝玩家与收集物
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{Players: w.playersLocked(), Collectibles: w.collectiblesLocked()}
}

// RemoveCollectible 返回是否确实删除；同一 id 只能被删除一次
func (w *World) RemoveCollectible(id uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.removeCollectibleLocked(id)
}

// AddCollectible 加入外部构造的收集物；id 已存在或已被分配过则忽略
func (w *World) AddCollectible(c Collectible) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.collectibles[c.ID]; ok || c.ID == 0 {
		return false
	}
	if c.ID <= w.nextID {
		// 低于计数器的 id 可能已经发出过
		return false
	}
	w.nextID = c.ID
	w.insertLocked(c)
	return true
}

// SpawnCollectible 从计数器分配新 id 并生成收集物
func (w *World) SpawnCollectible() Collectible {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawnLocked()
}

// MaxSpeed 服务端速度上限，0 表示不限制
func (w *World) MaxSpeed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maxSpeed
}

func (w *World) SetMaxSpeed(n int) {
	if n < 0 {
		n = 0
	}
	w.mu.Lock()
	w.maxSpeed = n
	w.mu.Unlock()
}

func (w *World) spawnLocked() Collectible {
	w.nextID++
	c := w.gen.Generate(w.nextID)
	w.insertLocked(c)
	return c
}

func (w *World) insertLocked(c Collectible) {
	cp := c
	w.collectibles[c.ID] = &cp
	w.order = append(w.order, c.ID)
}

func (w *World) removeCollectibleLocked(id uint64) bool {
	if _, ok := w.collectibles[id]; !ok {
		return false
	}
	delete(w.collectibles, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

func (w *World) playersLocked() map[string]Player {
	out := make(map[string]Player, len(w.players))
	for id, p := range w.players {
		out[id] = *p
	}
	return out
}

func (w *World) collectiblesLocked() []Collectible {
	out := make([]Collectible, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, *w.collectibles[id])
	}
	return out
}
