package ecs

// World owns the entity pool, every registered component store and the
// deferred destroy queue. Game-loop goroutine only.
type World struct {
	pool    *Pool
	stores  []Remover
	pending []EntityID
}

func NewWorld() *World {
	return &World{
		pool:    NewPool(),
		stores:  make([]Remover, 0, 8),
		pending: make([]EntityID, 0, 32),
	}
}

// Register adds a store that should be cleared when entities are destroyed.
func (w *World) Register(s Remover) {
	w.stores = append(w.stores, s)
}

func (w *World) CreateEntity() EntityID { return w.pool.Create() }

func (w *World) Alive(id EntityID) bool { return w.pool.Alive(id) }

func (w *World) Len() int { return w.pool.Len() }

// MarkForDestruction queues id; it stays alive until FlushDestroyQueue.
func (w *World) MarkForDestruction(id EntityID) {
	w.pending = append(w.pending, id)
}

// FlushDestroyQueue destroys queued entities and returns how many were removed.
// Duplicate or stale IDs in the queue are ignored.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.pending {
		if !w.pool.Alive(id) {
			continue
		}
		for _, s := range w.stores {
			s.Remove(id)
		}
		w.pool.Destroy(id)
		n++
	}
	w.pending = w.pending[:0]
	return n
}
