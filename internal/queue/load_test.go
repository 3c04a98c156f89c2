package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/leaselock"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
)

type memRuns struct {
	mu    sync.Mutex
	runs  map[string]common.LoadRun
	stale int64
}

func newMemRuns() *memRuns {
	return &memRuns{runs: map[string]common.LoadRun{}}
}

func (m *memRuns) StartLoadRun(_ context.Context, run common.LoadRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *memRuns) FinishLoadRun(_ context.Context, id string, status common.LoadStatus, tables []common.TableLoad, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[id]
	run.Status, run.Tables, run.Error = status, tables, errMsg
	m.runs[id] = run
	return nil
}

func (m *memRuns) ListLoadRuns(context.Context, int) ([]common.LoadRun, error) { return nil, nil }

func (m *memRuns) GetLoadRun(_ context.Context, id string) (*common.LoadRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (m *memRuns) FailStaleLoadRuns(context.Context, string) (int64, error) {
	m.stale++
	return 1, nil
}

type stubRunner struct {
	err error
}

func (r stubRunner) Load(context.Context, common.LoadSources) ([]common.TableLoad, error) {
	return []common.TableLoad{{Table: "alias", Rows: 1, Batches: 1}}, r.err
}

func message(t *testing.T, req LoadRequest) []byte {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return b
}

func TestProcessLoadMessage_RecordsRun(t *testing.T) {
	runs := newMemRuns()
	var gotSource string
	p := NewProcessor(runs, func(_ context.Context, source string) (loader.Runner, error) {
		gotSource = source
		return stubRunner{}, nil
	})

	err := p.ProcessLoadMessage(context.Background(), message(t, LoadRequest{
		RunID:   "run-1",
		Source:  "s3",
		Sources: common.LoadSources{Aliases: "aliases.txt.gz"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "s3", gotSource)

	run, _ := runs.GetLoadRun(context.Background(), "run-1")
	require.NotNil(t, run)
	assert.Equal(t, common.LoadStatusCompleted, run.Status)
	assert.Equal(t, "aliases.txt.gz", run.Sources.Aliases)
}

func TestProcessLoadMessage_OpenerFailureIsRecorded(t *testing.T) {
	runs := newMemRuns()
	p := NewProcessor(runs, func(context.Context, string) (loader.Runner, error) {
		return nil, errors.New("no bucket")
	})

	err := p.ProcessLoadMessage(context.Background(), message(t, LoadRequest{RunID: "run-2"}))
	require.Error(t, err)

	run, _ := runs.GetLoadRun(context.Background(), "run-2")
	require.NotNil(t, run)
	assert.Equal(t, common.LoadStatusFailed, run.Status)
	assert.Equal(t, "no bucket", run.Error)
}

func TestProcessLoadMessage_InvalidBody(t *testing.T) {
	p := NewProcessor(newMemRuns(), nil)
	assert.Error(t, p.ProcessLoadMessage(context.Background(), []byte("{")))
}

type fakeAcknowledger struct {
	acked, nacked, requeued bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func (a *fakeAcknowledger) Reject(uint64, bool) error { return nil }

type fakePublisher struct {
	queues []string
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, queueName string, _ []byte) error {
	p.queues = append(p.queues, queueName)
	return p.err
}

func TestHandleDelivery(t *testing.T) {
	ok := func(context.Context, []byte) error { return nil }
	fail := func(context.Context, []byte) error { return errors.New("boom") }

	tests := []struct {
		name     string
		process  func(context.Context, []byte) error
		pubErr   error
		wantDLQ  bool
		wantAck  bool
		wantNack bool
	}{
		{name: "success acks", process: ok, wantAck: true},
		{name: "failure goes to dlq", process: fail, wantDLQ: true, wantAck: true},
		{name: "dlq failure requeues", process: fail, pubErr: errors.New("closed"), wantDLQ: true, wantNack: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			pub := &fakePublisher{err: tt.pubErr}
			HandleDelivery(context.Background(), amqp091.Delivery{Acknowledger: ack, Body: []byte("{}")}, pub, tt.process)

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantNack, ack.nacked)
			if tt.wantNack {
				assert.True(t, ack.requeued)
			}
			if tt.wantDLQ {
				assert.Equal(t, []string{LoadQueueDLQ}, pub.queues)
			} else {
				assert.Empty(t, pub.queues)
			}
		})
	}
}

func TestRecoverStaleLoadRuns_SkipsWhileLeased(t *testing.T) {
	runs := newMemRuns()
	locker := leaselock.NewLocal()
	ctx := context.Background()

	err := locker.WithLease(ctx, loader.LeaseKey, func(ctx context.Context) error {
		return RecoverStaleLoadRuns(ctx, runs, locker)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), runs.stale)

	require.NoError(t, RecoverStaleLoadRuns(ctx, runs, locker))
	assert.Equal(t, int64(1), runs.stale)
}
