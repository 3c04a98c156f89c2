package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/interactome/pkg/common"
)

type fakeRuns struct {
	started  []common.LoadRun
	finished map[string]common.LoadStatus
	errMsg   map[string]string
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{finished: map[string]common.LoadStatus{}, errMsg: map[string]string{}}
}

func (f *fakeRuns) StartLoadRun(_ context.Context, run common.LoadRun) error {
	f.started = append(f.started, run)
	return nil
}

func (f *fakeRuns) FinishLoadRun(_ context.Context, id string, status common.LoadStatus, _ []common.TableLoad, errMsg string) error {
	f.finished[id] = status
	f.errMsg[id] = errMsg
	return nil
}

func (f *fakeRuns) ListLoadRuns(context.Context, int) ([]common.LoadRun, error) { return nil, nil }

func (f *fakeRuns) GetLoadRun(context.Context, string) (*common.LoadRun, error) { return nil, nil }

func (f *fakeRuns) FailStaleLoadRuns(context.Context, string) (int64, error) { return 0, nil }

type fakeRunner struct {
	tables []common.TableLoad
	err    error
}

func (r fakeRunner) Load(context.Context, common.LoadSources) ([]common.TableLoad, error) {
	return r.tables, r.err
}

func TestRecordedLoad_Completed(t *testing.T) {
	runs := newFakeRuns()
	tables := []common.TableLoad{{Table: "alias", Rows: 3, Batches: 1}}

	run, err := RecordedLoad(context.Background(), runs, fakeRunner{tables: tables}, "", common.LoadSources{Aliases: "a.txt"})
	if err != nil {
		t.Fatalf("RecordedLoad() error = %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected a generated run id")
	}
	if len(runs.started) != 1 || runs.started[0].Status != common.LoadStatusRunning {
		t.Fatalf("started = %+v", runs.started)
	}
	if runs.finished[run.ID] != common.LoadStatusCompleted {
		t.Fatalf("status = %q, want completed", runs.finished[run.ID])
	}
	if run.FinishedAt == nil || len(run.Tables) != 1 {
		t.Fatalf("run = %+v", run)
	}
}

func TestRecordedLoad_FailedKeepsReport(t *testing.T) {
	runs := newFakeRuns()
	boom := errors.New("boom")
	tables := []common.TableLoad{{Table: "alias", Rows: 3, Batches: 1}}

	run, err := RecordedLoad(context.Background(), runs, fakeRunner{tables: tables, err: boom}, "run-1", common.LoadSources{})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if run.ID != "run-1" || run.Status != common.LoadStatusFailed {
		t.Fatalf("run = %+v", run)
	}
	if runs.finished["run-1"] != common.LoadStatusFailed || runs.errMsg["run-1"] != "boom" {
		t.Fatalf("finished = %v, errMsg = %v", runs.finished, runs.errMsg)
	}
	if len(run.Tables) != 1 {
		t.Fatalf("tables = %+v, want partial report", run.Tables)
	}
}

func TestRecordedLoad_ClosesRecordAfterCancel(t *testing.T) {
	runs := newFakeRuns()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RecordedLoad(ctx, runs, fakeRunner{err: context.Canceled}, "run-2", common.LoadSources{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if runs.finished["run-2"] != common.LoadStatusFailed {
		t.Fatalf("status = %q, want failed", runs.finished["run-2"])
	}
}
