package reactive

import (
	"context"
	"sync"
	"time"

	"shoptrends/domain/controls"
	"shoptrends/domain/core"
	"shoptrends/internal"
	"shoptrends/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// NodeState is the freshness of a node value
type NodeState int

const (
	Clean NodeState = iota
	Dirty
)

func (s NodeState) String() string {
	if s == Dirty {
		return "dirty"
	}
	return "clean"
}

// memoLimit bounds the per-node memo; the oldest entry goes first
const memoLimit = 8

// Validator rejects a candidate state before it is committed
type Validator func(controls.FilterState) error

// Update is the result of one tick: every output recomputed in that tick, published
// together
type Update struct {
	Tick     uint64                 `json:"tick"`
	Changed  []NodeID               `json:"changed"`
	Outputs  map[NodeID]interface{} `json:"outputs"`
	Computed int                    `json:"computed"`
	Memo     int                    `json:"memo"`
	Shared   int                    `json:"shared"`
	Duration time.Duration          `json:"duration"`
}

type memoEntry struct {
	key   core.StateHash
	value interface{}
}

// Controller is the per-session reactive state. Methods are safe for concurrent use;
// Set and Tick are serialised by the controller lock.
type Controller struct {
	graph    *Graph
	catalog  *controls.Catalog
	shared   *Shared
	validate Validator
	logger   *internal.Logger
	name     string
	// namespace scopes shared cache keys, typically to one dataset
	namespace string

	mu     sync.Mutex
	state  controls.FilterState
	status map[NodeID]NodeState
	values map[NodeID]interface{}
	memo   map[NodeID][]memoEntry
	ticks  uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithShared enables the cross-session cache
func WithShared(s *Shared, namespace string) Option {
	return func(c *Controller) {
		c.shared = s
		c.namespace = namespace
	}
}

// WithValidator installs a check run on every candidate state
func WithValidator(v Validator) Option {
	return func(c *Controller) { c.validate = v }
}

// WithLogger sets the logger and the name used in log lines
func WithLogger(l *internal.Logger, name string) Option {
	return func(c *Controller) {
		c.logger = l
		c.name = name
	}
}

// NewController starts at the catalog defaults with every node dirty
func NewController(g *Graph, catalog *controls.Catalog, opts ...Option) *Controller {
	c := &Controller{
		graph:   g,
		catalog: catalog,
		logger:  internal.DefaultLogger,
		state:   catalog.Defaults(),
		status:  make(map[NodeID]NodeState, len(g.order)),
		values:  make(map[NodeID]interface{}, len(g.order)),
		memo:    make(map[NodeID][]memoEntry, len(g.order)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.markAll()
	return c
}

// State returns a copy of the current filter state
func (c *Controller) State() controls.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Set normalises value for control id and, if the state changes, marks every node
// reading id dirty. Out-of-domain ranges are clamped; unknown choices are rejected and
// leave the state untouched.
func (c *Controller) Set(id string, value interface{}) error {
	v, err := c.catalog.Normalize(id, value)
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state.With(id, v)
	if next.Equal(c.state) {
		return nil
	}
	if c.validate != nil {
		if err := c.validate(next); err != nil {
			return err
		}
	}
	c.state = next
	for _, n := range c.graph.affected[id] {
		c.status[n] = Dirty
	}
	return nil
}

// Apply is Set for a parsed control event
func (c *Controller) Apply(ch controls.Change) error {
	return c.Set(ch.Control, ch.Value)
}

// Reset restores the catalog defaults and marks every node dirty
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.catalog.Defaults()
	c.markAll()
}

func (c *Controller) markAll() {
	for _, id := range c.graph.order {
		c.status[id] = Dirty
	}
}

// NodeState reports whether a node is clean or dirty
func (c *Controller) NodeState(id NodeID) NodeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status[id]
}

// Dirty lists the dirty nodes in recompute order
func (c *Controller) Dirty() []NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []NodeID
	for _, id := range c.graph.order {
		if c.status[id] == Dirty {
			out = append(out, id)
		}
	}
	return out
}

// Value returns the last published value of a node
func (c *Controller) Value(id NodeID) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[id]
	return v, ok
}

// Outputs returns the last published value of every output node
func (c *Controller) Outputs() map[NodeID]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[NodeID]interface{})
	for _, id := range c.graph.order {
		if v, ok := c.values[id]; ok && c.graph.nodes[id].Output {
			out[id] = v
		}
	}
	return out
}

// Tick recomputes every dirty node in topological order. Values are staged and
// committed only when the whole tick succeeds, so a failing node publishes nothing and
// leaves its nodes dirty.
func (c *Controller) Tick(ctx context.Context) (*Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := otel.Tracer("shoptrends/reactive").Start(ctx, "reactive.Tick")
	defer span.End()

	start := time.Now()
	update := &Update{Tick: c.ticks + 1, Outputs: make(map[NodeID]interface{})}
	staged := make(map[NodeID]interface{})
	stagedMemo := make(map[NodeID]memoEntry)

	for _, id := range c.graph.order {
		if c.status[id] != Dirty {
			continue
		}
		node := c.graph.nodes[id]
		key := c.key(id)

		value, source, err := c.resolve(ctx, node, key, staged)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Warn("[Tick] %s: node %s failed: %v", c.name, id, err)
			return nil, err
		}
		switch source {
		case fromMemo:
			update.Memo++
		case fromShared:
			update.Shared++
		default:
			update.Computed++
		}

		staged[id] = value
		stagedMemo[id] = memoEntry{key: key, value: value}
		if node.Output {
			update.Changed = append(update.Changed, id)
			update.Outputs[id] = value
		}
	}

	for id, v := range staged {
		c.values[id] = v
		c.status[id] = Clean
		c.remember(id, stagedMemo[id])
	}
	c.ticks++
	update.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("reactive.changed", len(update.Changed)),
		attribute.Int("reactive.computed", update.Computed),
		attribute.Int("reactive.memo", update.Memo),
		attribute.Int("reactive.shared", update.Shared),
	)
	if len(staged) > 0 {
		c.logger.Debug("[Tick] %s: tick %d recomputed %d nodes (%d memo, %d shared) in %.2fms",
			c.name, update.Tick, update.Computed, update.Memo, update.Shared,
			float64(update.Duration.Nanoseconds())/1e6)
	}
	return update, nil
}

type valueSource int

const (
	fromCompute valueSource = iota
	fromMemo
	fromShared
)

func (c *Controller) resolve(ctx context.Context, node *Node, key core.StateHash, staged map[NodeID]interface{}) (interface{}, valueSource, error) {
	for _, e := range c.memo[node.ID] {
		if e.key == key {
			return e.value, fromMemo, nil
		}
	}

	compute := func() (interface{}, error) {
		deps := make(Deps, len(node.Deps))
		for _, d := range node.Deps {
			v, ok := staged[d]
			if !ok {
				v = c.values[d]
			}
			deps[d] = v
		}
		return node.Compute(ctx, c.state, deps)
	}

	if node.Decode != nil && c.shared != nil {
		v, hit, err := c.shared.Do(ctx, c.namespace+":"+key.String(), node.Decode, compute)
		if hit {
			return v, fromShared, err
		}
		return v, fromCompute, err
	}
	v, err := compute()
	return v, fromCompute, err
}

// key hashes the node id with the values of every control it transitively reads
func (c *Controller) key(id NodeID) core.StateHash {
	values := make(map[string]interface{}, len(c.graph.inputs[id]))
	for _, ctl := range c.graph.inputs[id] {
		values[ctl] = c.state.Value(ctl)
	}
	return core.ComputeStateHash(string(id), values)
}

func (c *Controller) remember(id NodeID, e memoEntry) {
	entries := c.memo[id]
	for _, old := range entries {
		if old.key == e.key {
			return
		}
	}
	entries = append(entries, e)
	if len(entries) > memoLimit {
		entries = entries[1:]
	}
	c.memo[id] = entries
}
