// Package dashboard assembles the reactive graph of the shopping trends dashboard and
// owns the per-session context: the shared Dataset plus one Controller.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shoptrends/domain/chart"
	"shoptrends/domain/controls"
	"shoptrends/domain/core"
	"shoptrends/domain/dataset"
	"shoptrends/internal"
	"shoptrends/internal/errors"
	"shoptrends/internal/filter"
	"shoptrends/internal/insights"
	"shoptrends/internal/reactive"
)

// Dashboard is the process-wide, read-only part: dataset, bound control catalog,
// evaluator and graph. It is shared by every Session.
type Dashboard struct {
	ds        *dataset.Dataset
	catalog   *controls.Catalog
	parser    *controls.EventParser
	evaluator *filter.Evaluator
	graph     *reactive.Graph
	shared    *reactive.Shared
	namespace string
	logger    *internal.Logger
}

// Options configures a Dashboard
type Options struct {
	// Shared enables the cross-session output cache
	Shared *reactive.Shared
	// Namespace scopes shared cache keys; it should identify the dataset
	Namespace string
	Logger    *internal.Logger
}

// New binds the control catalog to ds and builds the graph
func New(ds *dataset.Dataset, opts Options) (*Dashboard, error) {
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}
	if opts.Namespace == "" {
		opts.Namespace = fmt.Sprintf("rows-%d", ds.Len())
	}

	base, err := controls.LoadCatalog()
	if err != nil {
		return nil, err
	}
	catalog := base.Bind(ds)

	parser, err := controls.NewEventParser(catalog)
	if err != nil {
		return nil, err
	}
	evaluator, err := filter.NewEvaluator(ds)
	if err != nil {
		return nil, err
	}
	graph, err := buildGraph(catalog, evaluator)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("[Dashboard] %d controls, %d nodes, %d output slots over %d rows",
		len(catalog.Controls), len(graph.Order()), len(graph.Outputs()), ds.Len())
	return &Dashboard{
		ds:        ds,
		catalog:   catalog,
		parser:    parser,
		evaluator: evaluator,
		graph:     graph,
		shared:    opts.Shared,
		namespace: opts.Namespace,
		logger:    opts.Logger,
	}, nil
}

func (d *Dashboard) Dataset() *dataset.Dataset     { return d.ds }
func (d *Dashboard) Catalog() *controls.Catalog    { return d.catalog }
func (d *Dashboard) Graph() *reactive.Graph        { return d.graph }
func (d *Dashboard) Parser() *controls.EventParser { return d.parser }

// NewSession creates a session at the default filter state
func (d *Dashboard) NewSession(id core.SessionID) *Session {
	opts := []reactive.Option{
		reactive.WithLogger(d.logger, id.String()),
		reactive.WithValidator(func(s controls.FilterState) error {
			return d.evaluator.ValidateExpression(s.Expression)
		}),
	}
	if d.shared != nil {
		opts = append(opts, reactive.WithShared(d.shared, d.namespace))
	}
	now := time.Now()
	return &Session{
		ID:         id,
		Dataset:    d.ds,
		Controller: reactive.NewController(d.graph, d.catalog, opts...),
		board:      d,
		created:    now,
		lastSeen:   now,
	}
}

// Snapshot is the set of outputs published to the page after a tick
type Snapshot struct {
	Tick   uint64                   `json:"tick"`
	State  controls.FilterState     `json:"state"`
	Rows   int                      `json:"rows"`
	Charts map[string]chart.Spec    `json:"charts"`
	Texts  map[string]insights.Text `json:"texts"`
	Values map[string]ValueBox      `json:"values"`
}

func newSnapshot(tick uint64, state controls.FilterState, outputs map[reactive.NodeID]interface{}) *Snapshot {
	s := &Snapshot{
		Tick:   tick,
		State:  state,
		Charts: make(map[string]chart.Spec),
		Texts:  make(map[string]insights.Text),
		Values: make(map[string]ValueBox),
	}
	for id, v := range outputs {
		switch out := v.(type) {
		case chart.Spec:
			s.Charts[string(id)] = out
		case insights.Text:
			s.Texts[string(id)] = out
		case ValueBox:
			s.Values[string(id)] = out
		}
	}
	return s
}

// Session is one browser session: the shared dataset and a private Controller.
// Events are serialised so one tick completes before the next event is applied.
type Session struct {
	ID         core.SessionID
	Dataset    *dataset.Dataset
	Controller *reactive.Controller

	board    *Dashboard
	mu       sync.Mutex
	created  time.Time
	lastSeen time.Time
	tick     uint64
}

// Touch records activity
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last event
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Created returns the session start time
func (s *Session) Created() time.Time {
	return s.created
}

// HandleEvent parses a raw control event, applies it and ticks. The returned snapshot
// holds only the outputs that tick recomputed.
func (s *Session) HandleEvent(ctx context.Context, body []byte) (*Snapshot, error) {
	change, err := s.board.parser.Parse(body)
	if err != nil {
		return nil, err
	}
	return s.Change(ctx, change)
}

// Change applies one control change and ticks
func (s *Session) Change(ctx context.Context, ch controls.Change) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	if err := s.Controller.Apply(ch); err != nil {
		return nil, err
	}
	return s.tickLocked(ctx, false)
}

// Reset restores the default state and recomputes every output
func (s *Session) Reset(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	s.Controller.Reset()
	return s.tickLocked(ctx, true)
}

// Snapshot brings the session up to date and returns every output
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked(ctx, true)
}

func (s *Session) tickLocked(ctx context.Context, full bool) (*Snapshot, error) {
	update, err := s.Controller.Tick(ctx)
	if err != nil {
		return nil, err
	}
	if len(update.Changed) > 0 {
		s.tick++
	}

	outputs := update.Outputs
	if full {
		outputs = s.Controller.Outputs()
	}
	snap := newSnapshot(s.tick, s.Controller.State(), outputs)
	if v, ok := s.Controller.Value(NodeView); ok {
		snap.Rows = v.(*dataset.View).Len()
	}
	return snap, nil
}

// View returns the current filtered view, ticking first if needed
func (s *Session) View(ctx context.Context) (*dataset.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tickLocked(ctx, false); err != nil {
		return nil, err
	}
	v, ok := s.Controller.Value(NodeView)
	if !ok {
		return nil, errors.InternalError("filtered view is not available")
	}
	return v.(*dataset.View), nil
}

// Chart returns the current spec of one chart slot
func (s *Session) Chart(ctx context.Context, slot string) (chart.Spec, error) {
	info, ok := LookupSlot(slot)
	if !ok || info.Kind != KindChart {
		return chart.Spec{}, errors.NotFound("chart " + slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tickLocked(ctx, false); err != nil {
		return chart.Spec{}, err
	}
	v, ok := s.Controller.Value(info.ID)
	if !ok {
		return chart.Spec{}, errors.NotFound("chart " + slot)
	}
	return v.(chart.Spec), nil
}
