package engine

import (
	"context"
	"sync"

	"github.com/yanun0323/logs"
)

// Supervisor runs one engine per configured symbol as an independent
// goroutine. A fatal fault halts only the engine that raised it; the
// supervisor records the fault and leaves sibling symbols running.
type Supervisor struct {
	engines []*Engine

	mu     sync.Mutex
	faults []Fault
}

func NewSupervisor(engines ...*Engine) *Supervisor {
	return &Supervisor{engines: engines}
}

// Run blocks until every engine has exited, either through ctx
// cancellation or its own fatal fault.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, eng := range s.engines {
		wg.Add(1)
		go func(eng *Engine) {
			defer wg.Done()
			if err := eng.Run(ctx); err != nil {
				logs.Errorf("[%s] engine halted, err: %+v", eng.cfg.Symbol, err)
				s.mu.Lock()
				s.faults = append(s.faults, Fault{Symbol: eng.cfg.Symbol, Err: err})
				s.mu.Unlock()
			}
		}(eng)
	}
	wg.Wait()
}

// Faults returns the faults collected so far.
func (s *Supervisor) Faults() []Fault {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Fault, len(s.faults))
	copy(out, s.faults)
	return out
}
