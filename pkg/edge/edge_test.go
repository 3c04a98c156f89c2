package edge

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/interactome/pkg/common"
)

func action(a, b, mode string, aIsActing bool, score int) common.Interaction {
	return common.Interaction{A: a, B: b, Mode: mode, IsDirectional: true, AIsActing: aIsActing, Score: score}
}

func TestAggregate_ForwardAgreement(t *testing.T) {
	rows := []common.Interaction{
		action("G1", "G2", "activation", true, 500),
		action("G2", "G1", "activation", false, 300),
	}
	s := Aggregate(rows)

	if s.Len() != 1 {
		t.Fatalf("expected 1 edge, got %d", s.Len())
	}
	p, ok := s.Edges[EdgeKey{A: "G1", B: "G2", Mode: "activation"}]
	if !ok {
		t.Fatalf("missing edge, have %v", s.Keys())
	}
	if p.Score != 500 {
		t.Fatalf("expected score 500, got %d", p.Score)
	}
	if p.Direction != DirectionForward {
		t.Fatalf("expected forward, got %s", p.Direction)
	}
	if p.ArrowType != ArrowNormal {
		t.Fatalf("expected normal arrow, got %s", p.ArrowType)
	}
}

func TestInfer_TruthTable(t *testing.T) {
	tests := []struct {
		a, b      string
		aIsActing bool
		want      Direction
	}{
		{"G1", "G2", true, DirectionForward},
		{"G2", "G1", true, DirectionBack},
		{"G1", "G2", false, DirectionBack},
		{"G2", "G1", false, DirectionForward},
	}
	for _, tt := range tests {
		_, got := infer(action(tt.a, tt.b, "ptmod", tt.aIsActing, 1))
		if got != tt.want {
			t.Fatalf("(%s,%s,%v): expected %s, got %s", tt.a, tt.b, tt.aIsActing, tt.want, got)
		}
	}
}

func TestInfer_ModeRules(t *testing.T) {
	tests := []struct {
		mode  string
		arrow ArrowType
		dir   Direction
	}{
		{"binding", ArrowNormal, DirectionNone},
		{"expression", ArrowNormal, DirectionNone},
		{"reaction", ArrowNormal, DirectionNone},
		{"inhibition", ArrowTee, DirectionForward},
		{"catalysis", ArrowNormal, DirectionForward},
		{"textmining", ArrowNormal, DirectionNone},
		{"experimental", ArrowNormal, DirectionNone},
	}
	for _, tt := range tests {
		arrow, dir := infer(action("A", "B", tt.mode, true, 1))
		if arrow != tt.arrow || dir != tt.dir {
			t.Fatalf("%s: expected (%s,%s), got (%s,%s)", tt.mode, tt.arrow, tt.dir, arrow, dir)
		}
	}
}

func TestAggregate_DisagreementBecomesBoth(t *testing.T) {
	s := Aggregate([]common.Interaction{
		action("A", "B", "inhibition", true, 100),
		action("A", "B", "inhibition", false, 200),
	})
	p := s.Edges[NewEdgeKey("B", "A", "inhibition")]
	if p == nil || p.Direction != DirectionBoth || p.ArrowType != ArrowTee || p.Score != 200 {
		t.Fatalf("unexpected property %+v", p)
	}
}

func TestAggregate_ScoreIsMaximum(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		n := 1 + r.IntN(20)
		rows := make([]common.Interaction, n)
		best := -1
		for i := range rows {
			score := r.IntN(1000)
			best = max(best, score)
			if r.IntN(2) == 0 {
				rows[i] = action("X", "Y", "binding", r.IntN(2) == 0, score)
			} else {
				rows[i] = action("Y", "X", "binding", r.IntN(2) == 0, score)
			}
		}
		s := Aggregate(rows)
		if s.Len() != 1 {
			t.Fatalf("expected 1 edge, got %d", s.Len())
		}
		if got := s.Edges[NewEdgeKey("X", "Y", "binding")].Score; got != best {
			t.Fatalf("expected max %d, got %d", best, got)
		}
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	rowX := action("B", "A", "activation", true, 700)
	rowY := action("A", "B", "activation", true, 250)
	rowZ := action("A", "C", "binding", false, 400)

	first := Aggregate([]common.Interaction{rowX, rowY, rowZ})
	second := Aggregate([]common.Interaction{rowZ, rowY, rowX})

	if !reflect.DeepEqual(first.Edges, second.Edges) {
		t.Fatalf("aggregation depends on order:\n%v\n%v", first.Edges, second.Edges)
	}
}

func TestAggregate_PenWidthRange(t *testing.T) {
	rows := []common.Interaction{
		action("A", "B", "activation", true, 150),
		action("A", "C", "activation", true, 999),
		action("B", "C", "binding", true, 400),
	}
	s := Aggregate(rows)
	for k, p := range s.Edges {
		if p.PenWidth < 1 || p.PenWidth > 2 {
			t.Fatalf("%v: pen width %f outside [1, 2]", k, p.PenWidth)
		}
	}
	if got := s.Edges[NewEdgeKey("A", "B", "activation")].PenWidth; got != 1 {
		t.Fatalf("expected min score width 1, got %f", got)
	}
	if got := s.Edges[NewEdgeKey("A", "C", "activation")].PenWidth; got != 2 {
		t.Fatalf("expected max score width 2, got %f", got)
	}
}

func TestAggregate_EqualScoresClampToOne(t *testing.T) {
	s := Aggregate([]common.Interaction{
		action("A", "B", "activation", true, 300),
		action("C", "D", "binding", true, 300),
	})
	for k, p := range s.Edges {
		if p.PenWidth != 1 {
			t.Fatalf("%v: expected width 1, got %f", k, p.PenWidth)
		}
	}
}

func TestAggregate_LoopsAndEmpty(t *testing.T) {
	s := Aggregate([]common.Interaction{
		action("TP53", "TP53", "binding", true, 10),
		action("A", "B", "binding", true, 10),
		action("TP53", "TP53", "binding", false, 20),
	})
	want := []EdgeKey{{A: "TP53", B: "TP53", Mode: "binding"}}
	if !reflect.DeepEqual(s.Looping, want) {
		t.Fatalf("expected loops %v, got %v", want, s.Looping)
	}
	if _, ok := s.Edges[want[0]]; !ok {
		t.Fatal("loop must stay in the edge map")
	}

	empty := Aggregate(nil)
	if empty.Len() != 0 || len(empty.Looping) != 0 {
		t.Fatalf("expected empty set, got %+v", empty)
	}
}

func TestAggregate_EvidenceRows(t *testing.T) {
	rows := common.FromEvidenceResults([]common.EvidenceResult{
		{Gene1: "B", Gene2: "A", Channel: "textmining", Value: 300},
		{Gene1: "A", Gene2: "B", Channel: "textmining", Value: 500},
		{Gene1: "A", Gene2: "B", Channel: "experimental", Value: 100},
	})
	s := Aggregate(rows)
	if s.Len() != 2 {
		t.Fatalf("expected 2 edges, got %d", s.Len())
	}
	p := s.Edges[NewEdgeKey("A", "B", "textmining")]
	if p.Score != 500 || p.Direction != DirectionNone || p.ArrowType != ArrowNormal {
		t.Fatalf("unexpected property %+v", p)
	}
}
