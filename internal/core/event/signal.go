package event

// Signal is a multicast callback list for one component. Unlike Bus it
// fires synchronously on the caller's goroutine.
type Signal[T any] struct {
	subs []func(T)
}

// Add registers fn and returns a handle that removes it again.
func (s *Signal[T]) Add(fn func(T)) (remove func()) {
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1
	return func() {
		if idx < len(s.subs) {
			s.subs[idx] = nil
		}
	}
}

// Broadcast calls every live subscriber in registration order.
func (s *Signal[T]) Broadcast(v T) {
	for _, fn := range s.subs {
		if fn != nil {
			fn(v)
		}
	}
}

// Len reports the number of live subscribers.
func (s *Signal[T]) Len() int {
	n := 0
	for _, fn := range s.subs {
		if fn != nil {
			n++
		}
	}
	return n
}

// Notify is a Signal without a payload.
type Notify struct {
	sig Signal[struct{}]
}

func (n *Notify) Add(fn func()) (remove func()) {
	return n.sig.Add(func(struct{}) { fn() })
}

func (n *Notify) Broadcast() { n.sig.Broadcast(struct{}{}) }

func (n *Notify) Len() int { return n.sig.Len() }
