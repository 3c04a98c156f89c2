package loader

import (
	"context"
	"errors"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

// Runner loads sources, typically a *BulkLoader.
type Runner interface {
	Load(ctx context.Context, sources common.LoadSources) ([]common.TableLoad, error)
}

// NewRunID returns a fresh load run id.
func NewRunID() (string, error) {
	return gonanoid.New()
}

// RecordedLoad runs l and keeps its LoadRun record in runs up to date. An
// empty id is replaced by a fresh one. The returned run reflects the final
// state also when the load failed.
func RecordedLoad(ctx context.Context, runs store.LoadRunStorage, l Runner, id string, sources common.LoadSources) (common.LoadRun, error) {
	if id == "" {
		var err error
		if id, err = NewRunID(); err != nil {
			return common.LoadRun{}, err
		}
	}
	run := common.LoadRun{
		ID:        id,
		Status:    common.LoadStatusRunning,
		Sources:   sources,
		StartedAt: time.Now().UTC(),
	}
	if err := runs.StartLoadRun(ctx, run); err != nil {
		return run, err
	}
	logger.Info("[Loader] Load run started", "id", id)

	tables, loadErr := l.Load(ctx, sources)

	run.Tables = tables
	run.Status = common.LoadStatusCompleted
	if loadErr != nil {
		run.Status = common.LoadStatusFailed
		run.Error = loadErr.Error()
	}
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	// The caller's context may be cancelled; the record still has to be closed.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := runs.FinishLoadRun(finishCtx, id, run.Status, tables, run.Error); err != nil {
		return run, errors.Join(loadErr, err)
	}

	if loadErr != nil {
		logger.Error("[Loader] Load run failed", "id", id, "err", loadErr)
		return run, loadErr
	}
	logger.Info("[Loader] Load run completed", "id", id, "tables", len(tables))
	return run, nil
}
