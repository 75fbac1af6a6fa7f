package board

import "sync"

// Handler is a board event callback.
type Handler func()

// events holds registered short-circuit handlers. Handlers may be
// registered from any goroutine; they run on the goroutine that fed the
// report, in registration order.
type events struct {
	mu    sync.RWMutex
	start []Handler
	end   []Handler
	any   []Handler
}

func (e *events) register(list *[]Handler, h Handler) {
	if h == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	*list = append(*list, h)
}

func (e *events) fire(list *[]Handler) {
	e.mu.RLock()
	handlers := append([]Handler(nil), *list...)
	e.mu.RUnlock()
	for _, h := range handlers {
		h()
	}
}

// OnShortCircuitStart registers a handler fired once when a short circuit
// appears.
func (b *Breadboard) OnShortCircuitStart(h Handler) { b.events.register(&b.events.start, h) }

// OnShortCircuitEnd registers a handler fired once when the last burning
// current goes away.
func (b *Breadboard) OnShortCircuitEnd(h Handler) { b.events.register(&b.events.end, h) }

// OnShortCircuit registers a handler fired after every report that leaves a
// current burning.
func (b *Breadboard) OnShortCircuit(h Handler) { b.events.register(&b.events.any, h) }
