package query

import (
	"sort"
	"sync"
)

type TraceEventKind string

const (
	TraceEventUnresolvedAliases TraceEventKind = "unresolved_aliases"
	TraceEventResolvedProteins  TraceEventKind = "resolved_proteins"
	TraceEventRowsRetrieved     TraceEventKind = "rows_retrieved"
	TraceEventStoreCall         TraceEventKind = "store_call"
)

// TraceEvent is an extensible event envelope for query tracing.
// Additive changes to this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind TraceEventKind

	Names      []string
	ProteinIDs []string

	Table      string
	Rows       int
	Op         string
	DurationMs int64
	Error      string
}

// Tracer is a sink for query tracing events.
//
// Unresolved names are reported here instead of failing the query.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func RecordUnresolvedAliases(t Tracer, names ...string) {
	if t == nil || len(names) == 0 {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventUnresolvedAliases, Names: names})
}

func RecordResolvedProteins(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventResolvedProteins, ProteinIDs: ids})
}

func RecordRowsRetrieved(t Tracer, table string, rows int) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventRowsRetrieved, Table: table, Rows: rows})
}

func RecordStoreCall(t Tracer, op string, durationMs int64, err error) {
	if t == nil {
		return
	}
	ev := TraceEvent{Kind: TraceEventStoreCall, Op: op, DurationMs: durationMs}
	if err != nil {
		ev.Error = err.Error()
	}
	t.Record(ev)
}

// QueryTrace collects what a query run resolved, missed and retrieved.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu sync.Mutex

	unresolved map[string]struct{}
	resolved   map[string]struct{}
	rows       map[string]int
	storeCalls int
}

type QueryTraceSnapshot struct {
	UnresolvedAliases []string       `json:"unresolved_aliases"`
	ResolvedProteins  []string       `json:"resolved_proteins"`
	RowsRetrieved     map[string]int `json:"rows_retrieved"`
	StoreCalls        int            `json:"store_calls"`
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{
		unresolved: make(map[string]struct{}),
		resolved:   make(map[string]struct{}),
		rows:       make(map[string]int),
	}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Kind {
	case TraceEventUnresolvedAliases:
		for _, name := range event.Names {
			if name == "" {
				continue
			}
			t.unresolved[name] = struct{}{}
		}
	case TraceEventResolvedProteins:
		for _, id := range event.ProteinIDs {
			if id == "" {
				continue
			}
			t.resolved[id] = struct{}{}
		}
	case TraceEventRowsRetrieved:
		t.rows[event.Table] += event.Rows
	case TraceEventStoreCall:
		t.storeCalls++
	default:
		return
	}
}

func (t *QueryTrace) Snapshot() QueryTraceSnapshot {
	if t == nil {
		return QueryTraceSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := QueryTraceSnapshot{
		UnresolvedAliases: make([]string, 0, len(t.unresolved)),
		ResolvedProteins:  make([]string, 0, len(t.resolved)),
		RowsRetrieved:     make(map[string]int, len(t.rows)),
		StoreCalls:        t.storeCalls,
	}
	for name := range t.unresolved {
		s.UnresolvedAliases = append(s.UnresolvedAliases, name)
	}
	for id := range t.resolved {
		s.ResolvedProteins = append(s.ResolvedProteins, id)
	}
	for table, n := range t.rows {
		s.RowsRetrieved[table] = n
	}

	sort.Strings(s.UnresolvedAliases)
	sort.Strings(s.ResolvedProteins)

	return s
}
