package ecs

import "testing"

type tag struct{ name string }

func TestCreateDestroyRecyclesWithNewGeneration(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	if a.IsZero() {
		t.Fatal("first entity must not be the zero ID")
	}
	w.MarkForDestruction(a)
	if !w.Alive(a) {
		t.Fatal("entity must stay alive until the queue is flushed")
	}
	if n := w.FlushDestroyQueue(); n != 1 {
		t.Fatalf("flushed %d, want 1", n)
	}
	if w.Alive(a) {
		t.Fatal("stale id still alive")
	}
	b := w.CreateEntity()
	if b.Index() != a.Index() {
		t.Fatalf("slot not recycled: %v vs %v", b, a)
	}
	if b.Generation() != a.Generation()+1 {
		t.Fatalf("generation = %d, want %d", b.Generation(), a.Generation()+1)
	}
}

func TestFlushStripsComponentsAndIgnoresDuplicates(t *testing.T) {
	w := NewWorld()
	tags := NewStore[tag]()
	w.Register(tags)

	id := w.CreateEntity()
	tags.Set(id, &tag{name: "chest"})
	w.MarkForDestruction(id)
	w.MarkForDestruction(id)

	if n := w.FlushDestroyQueue(); n != 1 {
		t.Fatalf("flushed %d, want 1", n)
	}
	if tags.Has(id) {
		t.Fatal("component survived destroy")
	}
	if w.Len() != 0 {
		t.Fatalf("live entities = %d, want 0", w.Len())
	}
}

func TestJoinVisitsIntersection(t *testing.T) {
	w := NewWorld()
	tags := NewStore[tag]()
	nums := NewStore[int]()

	a, b, c := w.CreateEntity(), w.CreateEntity(), w.CreateEntity()
	tags.Set(a, &tag{"a"})
	tags.Set(b, &tag{"b"})
	one, two := 1, 2
	nums.Set(b, &one)
	nums.Set(c, &two)

	seen := 0
	Join(tags, nums, func(id EntityID, tg *tag, n *int) {
		seen++
		if id != b || tg.name != "b" || *n != 1 {
			t.Errorf("unexpected join row %v %v %d", id, tg, *n)
		}
	})
	if seen != 1 {
		t.Fatalf("join visited %d rows, want 1", seen)
	}
}
