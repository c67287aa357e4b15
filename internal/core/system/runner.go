package system

import "time"

const phaseCount = int(PhaseCleanup) + 1

// Runner executes systems in phase order each tick. Systems sharing a
// phase run in registration order.
type Runner struct {
	phases [phaseCount][]System
	n      int
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds s to its phase. A phase outside the known range panics,
// since the system would otherwise never run.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < 0 || int(p) >= phaseCount {
		panic("system: register with unknown phase " + p.String())
	}
	r.phases[p] = append(r.phases[p], s)
	r.n++
}

func (r *Runner) Len() int { return r.n }

func (r *Runner) Tick(dt time.Duration) {
	for p := range r.phases {
		for _, s := range r.phases[p] {
			s.Update(dt)
		}
	}
}

// TickPhase runs only the systems registered for phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase < 0 || int(phase) >= phaseCount {
		return
	}
	for _, s := range r.phases[phase] {
		s.Update(dt)
	}
}
