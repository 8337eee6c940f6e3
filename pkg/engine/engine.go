// Package engine evaluates model-building scripts. It wraps zygomys in a
// sandboxed environment whose builtins populate a model.Model, applying the
// active drafting defaults the legacy command language relies on.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/chazu/fsmodel/pkg/model"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a geometry diagnostic found in the evaluated model.
type EvalWarning struct {
	Entity  model.EntityRef
	Code    model.DiagnosticCode
	Message string
}

func (w EvalWarning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Entity, w.Code, w.Message)
}

// EvalResult bundles the full output of an evaluation. Model is nil when
// Errors is non-empty.
type EvalResult struct {
	Model    *model.Model
	Drafting Drafting
	Errors   []EvalError
	Warnings []EvalWarning
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The same logger is handed to every
// model the engine builds unless WithModelOptions overrides it.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithModelOptions sets options applied to every model the engine builds.
func WithModelOptions(opts ...model.Option) Option {
	return func(e *Engine) { e.modelOpts = append(e.modelOpts, opts...) }
}

// Engine wraps the zygomys interpreter for model evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment and a fresh model for determinism.
type Engine struct {
	gens generations

	log       *zap.Logger
	timeout   time.Duration
	modelOpts []model.Option
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: zap.NewNop(), timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs source and returns the model it builds.
//
// Return semantics:
//   - On success: returns a result with a model, possibly with warnings
//   - On parse/eval failure: returns a result with eval errors and no model
//   - On fatal failure (timeout, panic, superseded): returns an error
func (e *Engine) Evaluate(source string) (EvalResult, error) {
	gen := e.gens.next()
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, err := e.evaluate(source)
		ch <- evalResult{result: res, err: err}
	}()

	return e.gens.await(ch, gen, e.timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (EvalResult, error) {
	start := time.Now()
	opts := append([]model.Option{model.WithLogger(e.log)}, e.modelOpts...)
	m := model.New(opts...)
	d := DefaultDrafting()

	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return EvalResult{Model: m, Drafting: d}, nil
	}
	e.log.Debug("evaluation started", zap.Int("bytes", len(source)))

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, m, &d)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return EvalResult{Errors: parseZygomysError(err)}, nil
	}
	if _, err := env.Run(); err != nil {
		return EvalResult{Errors: parseZygomysError(err)}, nil
	}

	res := EvalResult{Model: m, Drafting: d}
	for _, w := range model.Validate(m).Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Entity: w.Entity, Code: w.Code, Message: w.Message})
	}
	e.log.Debug("evaluation finished",
		zap.Int("nodes", m.Nodes().Len()),
		zap.Int("elements", m.Elements().Len()),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// No line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
