package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/interactome/pkg/common"
)

type memStorage struct {
	aliases  []common.Alias
	actions  []common.ActionRecord
	evidence []common.EvidenceRow
	err      error
	calls    int
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (m *memStorage) LookupAliases(_ context.Context, names []string) ([]common.Alias, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []common.Alias
	for _, a := range m.aliases {
		if contains(names, a.Alias) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStorage) LookupProteins(_ context.Context, ids []string) ([]common.Alias, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []common.Alias
	for _, a := range m.aliases {
		if contains(ids, a.ProteinID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStorage) QueryActions(_ context.Context, ids []string, cutoff int) ([]common.ActionRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []common.ActionRecord
	for _, r := range m.actions {
		if contains(ids, r.ItemA) && r.Score > cutoff {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStorage) QueryEvidence(_ context.Context, ids []string, cutoff int) ([]common.EvidenceRow, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []common.EvidenceRow
	for _, r := range m.evidence {
		if contains(ids, r.Protein1) && r.CombinedScore >= cutoff {
			out = append(out, r)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func fixture() *memStorage {
	return &memStorage{
		aliases: []common.Alias{
			{ProteinID: "9606.P53", Alias: "TP53", Source: "Ensembl_HGNC"},
			{ProteinID: "9606.P53", Alias: "p53", Source: "BLAST_UniProt"},
			{ProteinID: "9606.MDM2", Alias: "MDM2", Source: "Ensembl_HGNC"},
			{ProteinID: "9606.ATM", Alias: "ATM", Source: "Ensembl_HGNC"},
			{ProteinID: "9606.ATMX", Alias: "ATM", Source: "BLAST_UniProt"},
			{ProteinID: "9606.CHK2", Alias: "CHEK2", Source: "Ensembl_HGNC"},
		},
		actions: []common.ActionRecord{
			{ItemA: "9606.MDM2", ItemB: "9606.P53", Mode: "inhibition", Action: strPtr("inhibition"), IsDirectional: true, AIsActing: true, Score: 900},
			{ItemA: "9606.P53", ItemB: "9606.MDM2", Mode: "binding", Score: 800},
			{ItemA: "9606.P53", ItemB: "9606.MDM2", Mode: "expression", Score: 400},
			{ItemA: "9606.P53", ItemB: "9606.CHK2", Mode: "binding", Score: 700},
			{ItemA: "9606.ATM", ItemB: "9606.P53", Mode: "ptmod", IsDirectional: true, AIsActing: true, Score: 600},
		},
		evidence: []common.EvidenceRow{
			{Protein1: "9606.P53", Protein2: "9606.MDM2", Channels: [7]int{0, 0, 0, 62, 900, 0, 950}, CombinedScore: 999},
			{Protein1: "9606.MDM2", Protein2: "9606.ATM", Channels: [7]int{0, 0, 0, 0, 0, 0, 150}, CombinedScore: 150},
			{Protein1: "9606.ATM", Protein2: "9606.MDM2", Channels: [7]int{0, 0, 0, 0, 0, 200, 0}, CombinedScore: 200},
		},
	}
}

func TestResolveForward_DeterministicConflicts(t *testing.T) {
	e := NewEngine(fixture())
	got, err := e.ResolveForward(context.Background(), []string{"ATM", "TP53", "UNKNOWN"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// BLAST_UniProt sorts before Ensembl_HGNC without preferences.
	want := map[string]string{"ATM": "9606.ATMX", "TP53": "9606.P53"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	e = NewEngine(fixture(), WithPreferredSources([]string{"Ensembl_HGNC"}))
	got, _ = e.ResolveForward(context.Background(), []string{"ATM"})
	if got["ATM"] != "9606.ATM" {
		t.Fatalf("expected preferred source to win, got %v", got)
	}
}

func TestResolveForward_TracesUnresolved(t *testing.T) {
	trace := NewQueryTrace()
	e := NewEngine(fixture(), WithTracer(trace))
	if _, err := e.ResolveForward(context.Background(), []string{"TP53", "NOPE", "ZZZ"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := trace.Snapshot()
	if !reflect.DeepEqual(snap.UnresolvedAliases, []string{"NOPE", "ZZZ"}) {
		t.Fatalf("unexpected unresolved %v", snap.UnresolvedAliases)
	}
}

func TestResolveBackward_ValidNames(t *testing.T) {
	e := NewEngine(fixture())
	got, err := e.ResolveBackward(context.Background(), []string{"9606.P53", "9606.NONE"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]string{"9606.P53": "TP53"}) {
		t.Fatalf("unexpected %v", got)
	}

	got, _ = e.ResolveBackward(context.Background(), []string{"9606.P53"}, []string{"p53"})
	if got["9606.P53"] != "p53" {
		t.Fatalf("expected valid name, got %v", got)
	}
}

func TestResolveRoundTrip(t *testing.T) {
	st := fixture()
	e := NewEngine(st)
	forward, _ := e.ResolveForward(context.Background(), []string{"TP53", "MDM2", "CHEK2"})
	ids := make([]string, 0, len(forward))
	for _, id := range forward {
		ids = append(ids, id)
	}
	backward, _ := e.ResolveBackward(context.Background(), ids, nil)
	for name, id := range forward {
		back, ok := backward[id]
		if !ok {
			t.Fatalf("%s -> %s has no backward name", name, id)
		}
		found := false
		for _, a := range st.aliases {
			if a.ProteinID == id && a.Alias == back {
				found = true
			}
		}
		if !found {
			t.Fatalf("backward name %s is not an alias of %s", back, id)
		}
	}
}

func TestQueryActions_InducedSubgraph(t *testing.T) {
	e := NewEngine(fixture())
	got, err := e.QueryActions(context.Background(), []string{"TP53", "MDM2"}, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []common.ActionResult{
		{Gene1: "MDM2", Gene2: "TP53", Mode: "inhibition", Action: strPtr("inhibition"), IsDirectional: true, Gene1IsActing: true, Score: 900},
		{Gene1: "TP53", Gene2: "MDM2", Mode: "binding", Score: 800},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestQueryEvidence_ExplodesAndFiltersCutoff(t *testing.T) {
	e := NewEngine(fixture(), WithPreferredSources([]string{"Ensembl_HGNC"}))
	got, err := e.QueryEvidence(context.Background(), []string{"TP53", "MDM2", "ATM"}, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []common.EvidenceResult{
		{Gene1: "ATM", Gene2: "MDM2", Channel: "database", Value: 200},
		{Gene1: "TP53", Gene2: "MDM2", Channel: "coexpression", Value: 62},
		{Gene1: "TP53", Gene2: "MDM2", Channel: "experimental", Value: 900},
		{Gene1: "TP53", Gene2: "MDM2", Channel: "textmining", Value: 950},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestQuery_EmptyGeneList(t *testing.T) {
	st := fixture()
	e := NewEngine(st)
	actions, err := e.QueryActions(context.Background(), nil, 0)
	if err != nil || len(actions) != 0 {
		t.Fatalf("expected empty result, got %v %v", actions, err)
	}
	evidence, err := e.QueryEvidence(context.Background(), []string{}, 0)
	if err != nil || len(evidence) != 0 {
		t.Fatalf("expected empty result, got %v %v", evidence, err)
	}
	if st.calls != 0 {
		t.Fatalf("expected no store calls, got %d", st.calls)
	}
}

func TestQuery_StoreFailure(t *testing.T) {
	st := fixture()
	st.err = errors.New("connection lost")
	e := NewEngine(st)

	got, err := e.QueryActions(context.Background(), []string{"TP53"}, 0)
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QueryError, got %v", err)
	}
	if qe.Op != "resolve_forward" || got != nil {
		t.Fatalf("unexpected %v %v", qe.Op, got)
	}
}

func TestQueryActionNeighborhood(t *testing.T) {
	e := NewEngine(fixture())
	got, err := e.QueryActionNeighborhood(context.Background(), "TP53", 500, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []common.ActionResult{
		{Gene1: "TP53", Gene2: "CHEK2", Mode: "binding", Score: 700},
		{Gene1: "TP53", Gene2: "MDM2", Mode: "binding", Score: 800},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	got, _ = e.QueryActionNeighborhood(context.Background(), "TP53", 500, []string{"MDM2"})
	if len(got) != 1 || got[0].Gene2 != "MDM2" {
		t.Fatalf("expected only MDM2 partner, got %+v", got)
	}

	got, err = e.QueryActionNeighborhood(context.Background(), "UNKNOWN", 0, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v %v", got, err)
	}
}

func TestQueryEvidenceNeighborhood(t *testing.T) {
	e := NewEngine(fixture())
	got, err := e.QueryEvidenceNeighborhood(context.Background(), "MDM2", 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []common.EvidenceResult{{Gene1: "MDM2", Gene2: "ATM", Channel: "textmining", Value: 150}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
