package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/membercard/backend/internal/domain/contact"
	"github.com/membercard/backend/internal/domain/shared"
	"github.com/membercard/backend/internal/domain/sync"
)

// DefaultAdapterTimeout bounds each adapter call when no explicit timeout is
// configured.
const DefaultAdapterTimeout = 30 * time.Second

// exportBatchSize is how many contacts are pushed per adapter call
const exportBatchSize = 200

// JobLocker serializes job runs per configuration. TryLock returns
// sync.ErrJobAlreadyRunning when another run holds the lock; on success the
// returned release function must be called exactly once.
type JobLocker interface {
	TryLock(ctx context.Context, configID uuid.UUID) (release func(), err error)
}

// SyncJobOrchestrator drives one job run for one configuration: it resolves
// the platform adapter, feeds each fetched record through matching and
// reconciliation, pushes local contacts for export directions, and finalizes
// the run in the job log.
type SyncJobOrchestrator struct {
	configs        sync.ConfigRepository
	contacts       contact.Repository
	adapters       sync.AdapterRegistry
	matcher        *sync.ContactMatcher
	engine         *sync.ReconciliationEngine
	logs           sync.LogRecorder
	locks          JobLocker
	logger         *zap.Logger
	adapterTimeout time.Duration
}

// NewSyncJobOrchestrator creates a new SyncJobOrchestrator
func NewSyncJobOrchestrator(
	configs sync.ConfigRepository,
	contacts contact.Repository,
	adapters sync.AdapterRegistry,
	logs sync.LogRecorder,
	locks JobLocker,
	logger *zap.Logger,
	adapterTimeout time.Duration,
) *SyncJobOrchestrator {
	if adapterTimeout <= 0 {
		adapterTimeout = DefaultAdapterTimeout
	}
	return &SyncJobOrchestrator{
		configs:        configs,
		contacts:       contacts,
		adapters:       adapters,
		matcher:        sync.NewContactMatcher(contacts),
		engine:         sync.NewReconciliationEngine(),
		logs:           logs,
		locks:          locks,
		logger:         logger,
		adapterTimeout: adapterTimeout,
	}
}

// ---------------------------------------------------------------------------
// Job Control
// ---------------------------------------------------------------------------

// Trigger runs one sync job for the configuration. The direction parameter
// overrides the configured direction when non-empty. Only one run per
// configuration executes at a time; a concurrent trigger fails fast with
// sync.ErrJobAlreadyRunning instead of queueing.
//
// A run that aborts on a connection failure still returns a JobResultResponse
// (status "error") with a nil error: the job executed and its outcome is the
// result. Errors are reserved for runs that never started.
func (o *SyncJobOrchestrator) Trigger(ctx context.Context, userID, configID uuid.UUID, direction sync.Direction) (*JobResultResponse, error) {
	config, err := o.configs.FindByID(ctx, configID)
	if err != nil {
		return nil, err
	}
	if config.UserID != userID {
		return nil, shared.ErrUnauthorized
	}
	if !config.IsActive {
		return nil, sync.ErrConfigNotActive
	}

	if direction == "" {
		direction = config.Direction
	}
	if !direction.IsValid() {
		return nil, sync.ErrInvalidDirection
	}

	adapter, err := o.adapters.Get(config.Platform)
	if err != nil {
		return nil, err
	}

	release, err := o.locks.TryLock(ctx, config.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	run := sync.NewSyncJobRun(config, direction)
	o.logger.Info("sync job started",
		zap.String("job_id", run.ID.String()),
		zap.String("config_id", config.ID.String()),
		zap.String("platform", config.Platform.String()),
		zap.String("direction", direction.String()),
	)

	if direction.Imports() {
		if err := o.runImport(ctx, adapter, config, run); err != nil {
			return o.abort(ctx, run, err)
		}
	}
	if direction.Exports() && ctx.Err() == nil {
		if err := o.runExport(ctx, adapter, config, run); err != nil {
			return o.abort(ctx, run, err)
		}
	}

	// Cancellation before any record was processed behaves like an abort;
	// afterwards the partial counts stand and the run completes.
	if ctx.Err() != nil && run.RecordsSeen == 0 && run.RecordsPushed == 0 {
		return o.abort(ctx, run, ctx.Err())
	}

	return o.complete(ctx, run, config)
}

// Execute runs one job for a due configuration on behalf of the interval
// scheduler, using the configured direction.
func (o *SyncJobOrchestrator) Execute(ctx context.Context, config *sync.SyncConfiguration) error {
	_, err := o.Trigger(ctx, config.UserID, config.ID, config.Direction)
	return err
}

// Status returns the most recent run summaries for the configuration
func (o *SyncJobOrchestrator) Status(ctx context.Context, userID, configID uuid.UUID, limit int) ([]JobResultResponse, error) {
	config, err := o.configs.FindByID(ctx, configID)
	if err != nil {
		return nil, err
	}
	if config.UserID != userID {
		return nil, shared.ErrUnauthorized
	}

	runs, err := o.logs.Recent(ctx, configID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]JobResultResponse, 0, len(runs))
	for i := range runs {
		responses = append(responses, ToJobResultResponse(&runs[i]))
	}
	return responses, nil
}

// ---------------------------------------------------------------------------
// Import Pass
// ---------------------------------------------------------------------------

func (o *SyncJobOrchestrator) runImport(ctx context.Context, adapter sync.PlatformAdapter, config *sync.SyncConfiguration, run *sync.SyncJobRun) error {
	fetchCtx, cancel := context.WithTimeout(ctx, o.adapterTimeout)
	defer cancel()

	raws, err := adapter.FetchRemoteContacts(fetchCtx, config)
	if err != nil {
		if sync.IsConnectionError(err) {
			return err
		}
		// Anything the fetch returns is stream-level by definition
		return sync.NewConnectionError(config.Platform, err)
	}

	provenance := config.Platform.ProvenanceTag()
	for _, raw := range raws {
		if ctx.Err() != nil {
			o.logger.Warn("sync job cancelled mid-import",
				zap.String("job_id", run.ID.String()),
				zap.Int("records_seen", run.RecordsSeen),
			)
			return nil
		}
		run.RecordsSeen++
		o.importOne(ctx, config, run, raw, provenance)
	}
	return nil
}

// importOne reconciles a single raw record. Failures are recorded on the run
// and never stop the batch: each record gets an independent write.
func (o *SyncJobOrchestrator) importOne(ctx context.Context, config *sync.SyncConfiguration, run *sync.SyncJobRun, raw sync.RawExternalContact, provenance string) {
	if raw.ParseFailure != "" {
		// The adapter already diagnosed this record; keep its message
		o.recordFailure(run, raw.Reference(), errors.New(raw.ParseFailure))
		return
	}

	existing, err := o.matcher.Find(ctx, config.UserID, raw)
	if err != nil {
		o.recordFailure(run, raw.Reference(), err)
		return
	}

	result, err := o.engine.Reconcile(config.UserID, existing, raw, provenance)
	if err != nil {
		o.recordFailure(run, raw.Reference(), err)
		return
	}

	if err := o.contacts.Save(ctx, result.Record); err != nil {
		o.recordFailure(run, raw.Reference(), err)
		return
	}

	switch result.Action {
	case sync.ActionCreated:
		run.RecordsCreated++
	case sync.ActionUpdated:
		run.RecordsUpdated++
	}
}

// ---------------------------------------------------------------------------
// Export Pass
// ---------------------------------------------------------------------------

func (o *SyncJobOrchestrator) runExport(ctx context.Context, adapter sync.PlatformAdapter, config *sync.SyncConfiguration, run *sync.SyncJobRun) error {
	filter := shared.Filter{Page: 1, PageSize: exportBatchSize, OrderBy: "created_at", OrderDir: "asc"}

	for {
		if ctx.Err() != nil {
			o.logger.Warn("sync job cancelled mid-export",
				zap.String("job_id", run.ID.String()),
				zap.Int("records_pushed", run.RecordsPushed),
			)
			return nil
		}

		batch, err := o.contacts.FindByUser(ctx, config.UserID, filter)
		if err != nil {
			return sync.NewConnectionError(config.Platform, err)
		}
		if len(batch) == 0 {
			return nil
		}

		pushCtx, cancel := context.WithTimeout(ctx, o.adapterTimeout)
		acks, err := adapter.PushLocalContacts(pushCtx, config, batch)
		cancel()
		if err != nil {
			if sync.IsConnectionError(err) {
				return err
			}
			return sync.NewConnectionError(config.Platform, err)
		}

		for _, ack := range acks {
			if ack.OK {
				run.RecordsPushed++
				continue
			}
			reference := "(unknown record)"
			if ack.Record != nil {
				reference = ack.Record.Name
			}
			o.recordFailure(run, reference, errors.New(ack.Message))
		}

		if len(batch) < exportBatchSize {
			return nil
		}
		filter.Page++
	}
}

// ---------------------------------------------------------------------------
// Finalization
// ---------------------------------------------------------------------------

func (o *SyncJobOrchestrator) recordFailure(run *sync.SyncJobRun, reference string, err error) {
	recordErr := sync.NewRecordError(reference, err.Error())
	if addErr := run.AddError(recordErr); addErr != nil {
		o.logger.Error("failed to record sync error", zap.Error(addErr))
		return
	}
	o.logger.Warn("sync record failed",
		zap.String("job_id", run.ID.String()),
		zap.String("reference", reference),
		zap.Error(err),
	)
}

func (o *SyncJobOrchestrator) complete(ctx context.Context, run *sync.SyncJobRun, config *sync.SyncConfiguration) (*JobResultResponse, error) {
	// Finalization must survive a caller cancellation mid-run
	finalCtx := context.WithoutCancel(ctx)

	if err := run.Complete(); err != nil {
		return nil, err
	}
	config.MarkSynced(*run.FinishedAt)
	if err := o.configs.Save(finalCtx, config); err != nil {
		o.logger.Error("failed to update configuration after sync",
			zap.String("config_id", config.ID.String()),
			zap.Error(err),
		)
	}
	if err := o.logs.Append(finalCtx, run); err != nil {
		o.logger.Error("failed to append sync job log",
			zap.String("job_id", run.ID.String()),
			zap.Error(err),
		)
	}

	o.logger.Info("sync job finished",
		zap.String("job_id", run.ID.String()),
		zap.String("status", run.Status.String()),
		zap.Int("records_seen", run.RecordsSeen),
		zap.Int("records_created", run.RecordsCreated),
		zap.Int("records_updated", run.RecordsUpdated),
		zap.Int("records_pushed", run.RecordsPushed),
		zap.Int("record_errors", len(run.Errors)),
		zap.Duration("duration", run.Duration()),
	)

	response := ToJobResultResponse(run)
	return &response, nil
}

func (o *SyncJobOrchestrator) abort(ctx context.Context, run *sync.SyncJobRun, cause error) (*JobResultResponse, error) {
	finalCtx := context.WithoutCancel(ctx)

	if err := run.Fail(cause.Error()); err != nil {
		return nil, err
	}
	if err := o.logs.Append(finalCtx, run); err != nil {
		o.logger.Error("failed to append sync job log",
			zap.String("job_id", run.ID.String()),
			zap.Error(err),
		)
	}

	o.logger.Warn("sync job aborted",
		zap.String("job_id", run.ID.String()),
		zap.String("platform", run.Platform.String()),
		zap.Error(cause),
	)

	response := ToJobResultResponse(run)
	return &response, nil
}
