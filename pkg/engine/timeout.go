package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when an evaluation exceeds its time limit.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned when a newer evaluation started before
	// this one finished.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	result EvalResult
	err    error
}

// generations numbers evaluations so that a late result can tell whether
// it is still the latest one.
type generations struct {
	n atomic.Uint64
}

func (g *generations) next() uint64    { return g.n.Add(1) }
func (g *generations) current() uint64 { return g.n.Load() }

// await blocks for the result of evaluation gen. A timed-out goroutine keeps
// running; its result lands in the buffered channel and is dropped.
func (g *generations) await(ch <-chan evalResult, gen uint64, limit time.Duration) (EvalResult, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		if gen != g.current() {
			return EvalResult{}, ErrSuperseded
		}
		return res.result, res.err
	case <-timer.C:
		return EvalResult{}, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}
