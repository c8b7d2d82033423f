package render

import (
	"context"
	"image"
	"sync"

	"github.com/kikiluvv/reelcore/internal/instruction"
	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// Compositor answers frame requests against an immutable program. It is
// safe for concurrent use; CancelAllPending aborts every request in flight.
type Compositor struct {
	program *instruction.Program
	eval    *Evaluator

	mu      sync.Mutex
	pending map[uint64]context.CancelFunc
	nextReq uint64
}

func NewCompositor(rc *Context, program *instruction.Program, src FrameSource) *Compositor {
	return &Compositor{
		program: program,
		eval:    NewEvaluator(rc, src),
		pending: make(map[uint64]context.CancelFunc),
	}
}

// NewRenderedFrame composites the frame shown at at. Instants outside the
// program yield a background-only frame.
func (c *Compositor) NewRenderedFrame(ctx context.Context, at mediatime.Time) (image.Image, error) {
	ctx, cancel := context.WithCancel(ctx)
	id := c.track(cancel)
	defer c.untrack(id)

	return c.eval.Evaluate(ctx, c.program.At(at), at)
}

// CancelAllPending cancels every request currently being rendered.
func (c *Compositor) CancelAllPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cancel := range c.pending {
		cancel()
		delete(c.pending, id)
	}
}

// Pending returns the number of requests in flight.
func (c *Compositor) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Compositor) track(cancel context.CancelFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextReq++
	c.pending[c.nextReq] = cancel
	return c.nextReq
}

func (c *Compositor) untrack(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.pending[id]; ok {
		cancel()
		delete(c.pending, id)
	}
}
