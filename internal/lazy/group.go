// Package lazy resolves entity attributes on demand.
//
// Attributes registered with the same Group share one native handle: the
// first read of any of them acquires the handle once, evaluates every
// attribute that is still unresolved, and releases the handle before
// returning. Resolved values are cached for the lifetime of the group.
package lazy

import (
	"fmt"
	"log/slog"
	"sync"

	treelineerrors "treeline.dev/treeline/internal/errors"
)

// State is the resolution state of a single attribute
type State int

const (
	// Unresolved attributes are evaluated by the next pass
	Unresolved State = iota
	// Resolving attributes are being evaluated by the current pass
	Resolving
	// Resolved attributes hold an immutable cached value
	Resolved
	// Failed attributes hold the error of their last pass
	Failed
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Lazy is a value computed on first access
type Lazy[T any] interface {
	Value() (T, error)
}

// Acquirer opens and closes the native handle a Group shares between its attributes.
// Release is called exactly once for every successful Acquire.
type Acquirer[H any] interface {
	Acquire() (H, error)
	Release(H)
}

// AcquirerFuncs adapts a pair of functions to the Acquirer interface.
// ReleaseFunc may be nil when the handle needs no cleanup.
type AcquirerFuncs[H any] struct {
	AcquireFunc func() (H, error)
	ReleaseFunc func(H)
}

// Acquire calls AcquireFunc
func (f AcquirerFuncs[H]) Acquire() (H, error) {
	return f.AcquireFunc()
}

// Release calls ReleaseFunc if set
func (f AcquirerFuncs[H]) Release(h H) {
	if f.ReleaseFunc != nil {
		f.ReleaseFunc(h)
	}
}

// Option configures a Group
type Option func(*groupOptions)

type groupOptions struct {
	logger *slog.Logger
}

// WithLogger makes the group log acquisitions and failures at debug level
func WithLogger(logger *slog.Logger) Option {
	return func(o *groupOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// member is the handle-typed view of a registered attribute
type member[H any] interface {
	state() State
	begin()
	evaluate(h H)
	failAcquisition(err error)
	abort()
	retry()
}

// Group owns the attributes of one entity and the handle they are computed from.
// It is safe for concurrent use; passes are serialised so no native work is
// ever duplicated.
type Group[H any] struct {
	identity string
	acquirer Acquirer[H]
	logger   *slog.Logger

	mu           sync.Mutex
	started      bool
	acquisitions int
	members      []member[H]
}

// NewGroup creates an empty group for the entity named by identity
func NewGroup[H any](identity string, acquirer Acquirer[H], opts ...Option) *Group[H] {
	o := groupOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Group[H]{
		identity: identity,
		acquirer: acquirer,
		logger:   o.logger,
	}
}

// Identity returns the identity the group was created for
func (g *Group[H]) Identity() string {
	return g.identity
}

// Acquisitions returns how many times the group attempted to acquire its handle
func (g *Group[H]) Acquisitions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acquisitions
}

// Retry moves attributes whose last pass failed to acquire the handle back to
// Unresolved, so the next read attempts a fresh acquisition. Attributes whose
// own evaluation failed keep their error.
func (g *Group[H]) Retry() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		m.retry()
	}
}

// Register adds an attribute computed by fn to the group.
// It panics once the group has started resolving: the attribute set of an
// entity is fixed at construction.
func Register[T, H any](g *Group[H], name string, fn func(H) (T, error)) *Attribute[T] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		panic(fmt.Sprintf("lazy: attribute %q registered on %s after resolution started", name, g.identity))
	}

	attr := &Attribute[T]{name: name, owner: g}
	g.members = append(g.members, &binding[T, H]{attr: attr, fn: fn})
	return attr
}

func (g *Group[H]) lock() {
	g.mu.Lock()
}

func (g *Group[H]) unlock() {
	g.mu.Unlock()
}

// runPass acquires the handle once and evaluates every unresolved attribute.
// Must be called with g.mu held.
func (g *Group[H]) runPass() {
	g.started = true

	var pending []member[H]
	for _, m := range g.members {
		if m.state() == Unresolved {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return
	}

	for _, m := range pending {
		m.begin()
	}
	// An evaluation that panics must not leave siblings stuck in Resolving.
	defer func() {
		for _, m := range pending {
			m.abort()
		}
	}()

	g.acquisitions++
	handle, err := g.acquirer.Acquire()
	if err != nil {
		resolutionErr := treelineerrors.NewAcquisitionError(g.identity, err)
		g.logger.Debug("lazy group acquisition failed", "identity", g.identity, "error", err)
		for _, m := range pending {
			m.failAcquisition(resolutionErr)
		}
		return
	}
	defer g.acquirer.Release(handle)

	g.logger.Debug("lazy group acquired handle", "identity", g.identity, "attributes", len(pending))
	for _, m := range pending {
		m.evaluate(handle)
	}
}

// passRunner is the part of a Group an Attribute needs; it hides the handle type
type passRunner interface {
	lock()
	unlock()
	runPass()
	Identity() string
}

// Attribute is a lazily resolved value registered with a Group
type Attribute[T any] struct {
	name  string
	owner passRunner

	st            State
	value         T
	err           error
	acquireFailed bool
}

// Name returns the attribute name given at registration
func (a *Attribute[T]) Name() string {
	return a.name
}

// State reports the current resolution state without resolving
func (a *Attribute[T]) State() State {
	a.owner.lock()
	defer a.owner.unlock()
	return a.st
}

// Value returns the cached value, resolving the whole group first if needed.
func (a *Attribute[T]) Value() (T, error) {
	a.owner.lock()
	defer a.owner.unlock()

	if a.st == Unresolved {
		a.owner.runPass()
	}

	if a.st == Resolved {
		return a.value, nil
	}
	var zero T
	return zero, a.err
}

// binding ties an attribute to the function that computes it from the handle
type binding[T, H any] struct {
	attr *Attribute[T]
	fn   func(H) (T, error)
}

func (b *binding[T, H]) state() State {
	return b.attr.st
}

func (b *binding[T, H]) begin() {
	b.attr.st = Resolving
}

func (b *binding[T, H]) evaluate(h H) {
	value, err := b.fn(h)
	if err != nil {
		b.attr.st = Failed
		b.attr.err = treelineerrors.NewResolutionError(b.attr.owner.Identity(), b.attr.name, err)
		return
	}
	b.attr.value = value
	b.attr.st = Resolved
}

func (b *binding[T, H]) failAcquisition(err error) {
	b.attr.st = Failed
	b.attr.err = err
	b.attr.acquireFailed = true
}

func (b *binding[T, H]) abort() {
	if b.attr.st == Resolving {
		b.attr.st = Unresolved
	}
}

func (b *binding[T, H]) retry() {
	if b.attr.st == Failed && b.attr.acquireFailed {
		b.attr.st = Unresolved
		b.attr.err = nil
		b.attr.acquireFailed = false
	}
}
