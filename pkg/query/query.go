package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

// QueryError wraps a store failure of an engine operation. No partial
// result accompanies it.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Engine resolves gene names and retrieves the interactions among them.
// It holds no per-call state and is safe for concurrent use when the
// underlying storage is.
type Engine struct {
	storage   store.InteractionStorage
	preferred map[string]int
	trace     Tracer
}

type Option func(*Engine)

// WithPreferredSources ranks alias sources for conflict resolution: a match
// from an earlier source wins over a later source and over unlisted ones.
func WithPreferredSources(sources []string) Option {
	return func(e *Engine) {
		for i, src := range sources {
			if _, ok := e.preferred[src]; !ok {
				e.preferred[src] = i
			}
		}
	}
}

func WithTracer(trace Tracer) Option {
	return func(e *Engine) {
		e.trace = trace
	}
}

// NewEngine creates an engine reading from storage.
func NewEngine(storage store.InteractionStorage, opts ...Option) *Engine {
	e := &Engine{
		storage:   storage,
		preferred: make(map[string]int),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// WithRequestTracer returns a shallow copy of e that additionally reports
// to trace.
func (e *Engine) WithRequestTracer(trace Tracer) *Engine {
	if trace == nil {
		return e
	}
	c := *e
	if c.trace == nil {
		c.trace = trace
	} else {
		c.trace = MultiTracer{e.trace, trace}
	}
	return &c
}

func (e *Engine) rank(source string) int {
	if r, ok := e.preferred[source]; ok {
		return r
	}
	return len(e.preferred)
}

// preferForward reports whether candidate beats current for the same name.
func (e *Engine) preferForward(candidate, current common.Alias) bool {
	if rc, rk := e.rank(candidate.Source), e.rank(current.Source); rc != rk {
		return rc < rk
	}
	if candidate.Source != current.Source {
		return candidate.Source < current.Source
	}
	return candidate.ProteinID < current.ProteinID
}

// preferBackward reports whether candidate beats current for the same protein.
func (e *Engine) preferBackward(candidate, current common.Alias) bool {
	if rc, rk := e.rank(candidate.Source), e.rank(current.Source); rc != rk {
		return rc < rk
	}
	if candidate.Alias != current.Alias {
		return candidate.Alias < current.Alias
	}
	return candidate.Source < current.Source
}

func (e *Engine) call(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	RecordStoreCall(e.trace, op, time.Since(start).Milliseconds(), err)
	if err != nil {
		logger.Error("[Query] Store call failed", "op", op, "err", err)
		return &QueryError{Op: op, Err: err}
	}
	return nil
}

// ResolveForward maps each name to its canonical protein id. Names without a
// match are absent from the result and reported to the tracer. A name with
// several matches resolves by source preference, then the smallest source,
// then the smallest protein id.
func (e *Engine) ResolveForward(ctx context.Context, names []string) (map[string]string, error) {
	keys := store.SortedKeys(names)
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var rows []common.Alias
	err := e.call("resolve_forward", func() error {
		var err error
		rows, err = e.storage.LookupAliases(ctx, keys)
		return err
	})
	if err != nil {
		return nil, err
	}

	best := make(map[string]common.Alias, len(keys))
	for _, row := range rows {
		current, ok := best[row.Alias]
		if !ok || e.preferForward(row, current) {
			best[row.Alias] = row
		}
	}
	var unresolved []string
	for _, name := range keys {
		row, ok := best[name]
		if !ok {
			unresolved = append(unresolved, name)
			continue
		}
		out[name] = row.ProteinID
	}

	if len(unresolved) > 0 {
		logger.Debug("[Query] Unresolved aliases", "count", len(unresolved), "names", unresolved)
		RecordUnresolvedAliases(e.trace, unresolved...)
	}
	return out, nil
}

// ResolveBackward maps each protein id to one display name. When validNames
// is non-empty only those names are considered. Ids without a candidate are
// absent from the result.
func (e *Engine) ResolveBackward(ctx context.Context, ids []string, validNames []string) (map[string]string, error) {
	keys := store.SortedKeys(ids)
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var valid map[string]struct{}
	if len(validNames) > 0 {
		valid = make(map[string]struct{}, len(validNames))
		for _, n := range validNames {
			valid[n] = struct{}{}
		}
	}

	var rows []common.Alias
	err := e.call("resolve_backward", func() error {
		var err error
		rows, err = e.storage.LookupProteins(ctx, keys)
		return err
	})
	if err != nil {
		return nil, err
	}

	best := make(map[string]common.Alias, len(keys))
	for _, row := range rows {
		if valid != nil {
			if _, ok := valid[row.Alias]; !ok {
				continue
			}
		}
		current, ok := best[row.ProteinID]
		if !ok || e.preferBackward(row, current) {
			best[row.ProteinID] = row
		}
	}
	for id, row := range best {
		out[id] = row.Alias
	}
	return out, nil
}

// displayNames inverts a forward resolution. When several requested names
// share a protein the smallest name is shown.
func displayNames(forward map[string]string) map[string]string {
	out := make(map[string]string, len(forward))
	for name, id := range forward {
		if current, ok := out[id]; !ok || name < current {
			out[id] = name
		}
	}
	return out
}

func sortedIDs(display map[string]string) []string {
	ids := make([]string, 0, len(display))
	for id := range display {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// QueryActions returns the actions among genes with score strictly above
// cutoff. Both members of every row are requested genes.
func (e *Engine) QueryActions(ctx context.Context, genes []string, cutoff int) ([]common.ActionResult, error) {
	forward, err := e.ResolveForward(ctx, genes)
	if err != nil {
		return nil, err
	}
	display := displayNames(forward)
	records, err := e.fetchActions(ctx, sortedIDs(display), cutoff)
	if err != nil {
		return nil, err
	}
	out := mapActions(records, display, display)
	logger.Debug("[Query][QueryActions] Completed", "genes", len(genes), "resolved", len(display), "rows", len(out))
	return out, nil
}

// QueryEvidence returns one tuple per nonzero evidence channel of every
// evidence row among genes with combined score at or above cutoff.
func (e *Engine) QueryEvidence(ctx context.Context, genes []string, cutoff int) ([]common.EvidenceResult, error) {
	forward, err := e.ResolveForward(ctx, genes)
	if err != nil {
		return nil, err
	}
	display := displayNames(forward)
	rows, err := e.fetchEvidence(ctx, sortedIDs(display), cutoff)
	if err != nil {
		return nil, err
	}
	out := mapEvidence(rows, display, display)
	logger.Debug("[Query][QueryEvidence] Completed", "genes", len(genes), "resolved", len(display), "rows", len(out))
	return out, nil
}

// QueryActionNeighborhood returns the actions of a single gene with score
// strictly above cutoff. Partners are named through ResolveBackward and
// restricted to validNames when it is non-empty.
func (e *Engine) QueryActionNeighborhood(ctx context.Context, gene string, cutoff int, validNames []string) ([]common.ActionResult, error) {
	seed, err := e.seed(ctx, gene)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return []common.ActionResult{}, nil
	}
	records, err := e.fetchActions(ctx, []string{seed.id}, cutoff)
	if err != nil {
		return nil, err
	}
	partners := make([]string, 0, len(records))
	for _, r := range records {
		partners = append(partners, r.ItemB)
	}
	names, err := e.partnerNames(ctx, seed, partners, validNames)
	if err != nil {
		return nil, err
	}
	return mapActions(records, seed.display(), names), nil
}

// QueryEvidenceNeighborhood is the evidence counterpart of
// QueryActionNeighborhood.
func (e *Engine) QueryEvidenceNeighborhood(ctx context.Context, gene string, cutoff int, validNames []string) ([]common.EvidenceResult, error) {
	seed, err := e.seed(ctx, gene)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return []common.EvidenceResult{}, nil
	}
	rows, err := e.fetchEvidence(ctx, []string{seed.id}, cutoff)
	if err != nil {
		return nil, err
	}
	partners := make([]string, 0, len(rows))
	for _, r := range rows {
		partners = append(partners, r.Protein2)
	}
	names, err := e.partnerNames(ctx, seed, partners, validNames)
	if err != nil {
		return nil, err
	}
	return mapEvidence(rows, seed.display(), names), nil
}

type seedGene struct {
	name string
	id   string
}

func (s *seedGene) display() map[string]string {
	return map[string]string{s.id: s.name}
}

func (e *Engine) seed(ctx context.Context, gene string) (*seedGene, error) {
	forward, err := e.ResolveForward(ctx, []string{gene})
	if err != nil {
		return nil, err
	}
	id, ok := forward[gene]
	if !ok {
		return nil, nil
	}
	return &seedGene{name: gene, id: id}, nil
}

func (e *Engine) partnerNames(ctx context.Context, seed *seedGene, partners []string, validNames []string) (map[string]string, error) {
	names, err := e.ResolveBackward(ctx, partners, validNames)
	if err != nil {
		return nil, err
	}
	names[seed.id] = seed.name
	return names, nil
}

func (e *Engine) fetchActions(ctx context.Context, ids []string, cutoff int) ([]common.ActionRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	RecordResolvedProteins(e.trace, ids...)
	var records []common.ActionRecord
	err := e.call("query_actions", func() error {
		var err error
		records, err = e.storage.QueryActions(ctx, ids, cutoff)
		return err
	})
	if err != nil {
		return nil, err
	}
	RecordRowsRetrieved(e.trace, store.ActionsTable.Name, len(records))
	return records, nil
}

func (e *Engine) fetchEvidence(ctx context.Context, ids []string, cutoff int) ([]common.EvidenceRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	RecordResolvedProteins(e.trace, ids...)
	var rows []common.EvidenceRow
	err := e.call("query_evidence", func() error {
		var err error
		rows, err = e.storage.QueryEvidence(ctx, ids, cutoff)
		return err
	})
	if err != nil {
		return nil, err
	}
	RecordRowsRetrieved(e.trace, store.EvidenceTable.Name, len(rows))
	return rows, nil
}

// mapActions names both members of every record through first and second.
// Records with an unnamed member are dropped.
func mapActions(records []common.ActionRecord, first, second map[string]string) []common.ActionResult {
	out := make([]common.ActionResult, 0, len(records))
	for _, r := range records {
		g1, ok := first[r.ItemA]
		if !ok {
			continue
		}
		g2, ok := second[r.ItemB]
		if !ok {
			continue
		}
		out = append(out, common.ActionResult{
			Gene1:         g1,
			Gene2:         g2,
			Mode:          r.Mode,
			Action:        r.Action,
			IsDirectional: r.IsDirectional,
			Gene1IsActing: r.AIsActing,
			Score:         r.Score,
		})
	}
	SortActionResults(out)
	return out
}

// mapEvidence explodes wide rows into one tuple per nonzero channel.
func mapEvidence(rows []common.EvidenceRow, first, second map[string]string) []common.EvidenceResult {
	out := make([]common.EvidenceResult, 0, len(rows))
	for _, r := range rows {
		g1, ok := first[r.Protein1]
		if !ok {
			continue
		}
		g2, ok := second[r.Protein2]
		if !ok {
			continue
		}
		for i, channel := range common.EvidenceChannels {
			if r.Channels[i] == 0 {
				continue
			}
			out = append(out, common.EvidenceResult{
				Gene1:   g1,
				Gene2:   g2,
				Channel: string(channel),
				Value:   r.Channels[i],
			})
		}
	}
	SortEvidenceResults(out)
	return out
}
