package syncx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ddanilovs/campuslink/internal/common"
	"github.com/ddanilovs/campuslink/internal/logging"
	"github.com/ddanilovs/campuslink/internal/models"
	"github.com/ddanilovs/campuslink/internal/stream"
)

// Cache is the slice of the local store the orchestrator needs. The
// orchestrator is the only writer of sync metadata (Dirty/SyncedAt/Version).
type Cache interface {
	// GetAll returns every row of the collection, tombstones included.
	GetAll(ctx context.Context, c models.Collection) ([]models.Document, error)

	// GetDirty returns the rows with unsynced local mutations.
	GetDirty(ctx context.Context, c models.Collection) ([]models.Document, error)

	// Upsert atomically replaces-or-inserts one row.
	Upsert(ctx context.Context, d models.Document) error

	// MarkSynced clears the dirty flag and stamps sync metadata for one row.
	MarkSynced(ctx context.Context, c models.Collection, id string, version int64, syncedAt int64) error
}

// Remote is the slice of the remote data source the orchestrator needs.
type Remote interface {
	FetchAll(ctx context.Context, c models.Collection) ([]models.Document, error)
	Write(ctx context.Context, c models.Collection, d models.Document) (models.Document, error)
}

// Probe reports current network reachability.
type Probe interface {
	IsAvailable() bool
}

// Identity yields the current user id, or "" when nobody is signed in.
// An absent user is a normal condition: push is skipped, not failed.
type Identity interface {
	CurrentUserID() string
}

// Update is published after a pass persists reconciled documents, so
// UI-facing readers re-read the cache.
type Update struct {
	Collection models.Collection
	Documents  int
}

// Orchestrator drives synchronization passes for document collections.
// One Orchestrator serves all collections; passes for different collections
// may run concurrently.
type Orchestrator struct {
	cache     Cache
	remote    Remote
	probe     Probe
	identity  Identity
	strategy  Strategy
	telemetry TelemetrySink
	logger    logging.Logger
	updates   *stream.Broadcaster[Update]
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStrategy overrides the default LastWriteWins resolution strategy.
func WithStrategy(s Strategy) Option {
	return func(o *Orchestrator) { o.strategy = s }
}

// WithTelemetry installs a telemetry sink.
func WithTelemetry(t TelemetrySink) Option {
	return func(o *Orchestrator) { o.telemetry = t }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(cache Cache, remote Remote, probe Probe, identity Identity, logger logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:     cache,
		remote:    remote,
		probe:     probe,
		identity:  identity,
		strategy:  LastWriteWins,
		telemetry: NopSink{},
		logger:    logger,
		updates:   stream.New[Update](),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Updates returns the broadcaster publishing post-pass cache updates.
// Subscribers receive the latest update on subscribe.
func (o *Orchestrator) Updates() *stream.Broadcaster[Update] {
	return o.updates
}

// RunPass performs one full synchronization pass for the collection:
// reachability check, pull, push of dirty rows, reconcile, persist.
//
// Per-record push failures leave that record dirty and do not abort the
// pass. A pull failure aborts the pass before any cache write, so cached
// data is never corrupted by a partial pull.
func (o *Orchestrator) RunPass(ctx context.Context, collection models.Collection) Outcome {
	log := o.logger.With("collection", collection)

	if !o.probe.IsAvailable() {
		log.Debug(ctx, "skipping sync pass, network unavailable")
		return failure(RetryableNetwork, common.ErrNetworkUnavailable)
	}

	o.telemetry.Emit(ctx, EventSyncStarted, "collection", collection)

	remoteSet, err := o.remote.FetchAll(ctx, collection)
	if err != nil {
		out := failure(classify(err), fmt.Errorf("pull: %w", err))
		o.reportFailure(ctx, collection, out)
		return out
	}

	dirty, err := o.cache.GetDirty(ctx, collection)
	if err != nil {
		out := failure(FatalSchema, fmt.Errorf("%w: %w", common.ErrLocalStore, err))
		o.reportFailure(ctx, collection, out)
		return out
	}

	acks, out := o.pushDirty(ctx, collection, dirty, log)
	if out.Code != Success {
		o.reportFailure(ctx, collection, out)
		return out
	}

	// The pull predates the push, so for every acked record the pulled
	// copy is stale. Fold the acks in by id; the ack is the authoritative
	// stored representation and must win over the pre-push snapshot.
	remoteSet = overlayAcks(remoteSet, acks)

	// Push is complete (or failed per-record) before local state is
	// re-read, so reconciliation sees a consistent dirty flag per row.
	localSet, err := o.cache.GetAll(ctx, collection)
	if err != nil {
		out := failure(FatalSchema, fmt.Errorf("%w: %w", common.ErrLocalStore, err))
		o.reportFailure(ctx, collection, out)
		return out
	}

	merged, err := Merge(localSet, remoteSet, o.strategy, o.now())
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			out := failure(ManualConflict, err)
			o.reportFailure(ctx, collection, out)
			return out
		}
		out := failure(FatalSchema, err)
		o.reportFailure(ctx, collection, out)
		return out
	}

	for _, d := range merged {
		if err := o.cache.Upsert(ctx, d); err != nil {
			out := failure(FatalSchema, fmt.Errorf("%w: %w", common.ErrLocalStore, err))
			o.reportFailure(ctx, collection, out)
			return out
		}
	}

	o.updates.Publish(Update{Collection: collection, Documents: len(merged)})
	o.telemetry.Emit(ctx, EventSyncSucceeded, "collection", collection, "documents", len(merged))
	return success()
}

// pushDirty attempts a remote write for each dirty document and returns the
// acks for the successful ones. A transient per-record failure is logged and
// the record stays dirty for the next pass; an auth failure aborts, since
// every remaining write would fail too.
func (o *Orchestrator) pushDirty(ctx context.Context, collection models.Collection, dirty []models.Document, log logging.Logger) ([]models.Document, Outcome) {
	if len(dirty) == 0 {
		return nil, success()
	}

	userID := o.identity.CurrentUserID()
	if userID == "" {
		log.Debug(ctx, "no signed-in user, skipping push", "pending", len(dirty))
		return nil, success()
	}

	acks := make([]models.Document, 0, len(dirty))
	for _, d := range dirty {
		if d.Owner == "" {
			d.Owner = userID
		}
		ack, err := o.remote.Write(ctx, collection, d)
		if err != nil {
			code := classify(err)
			if !code.Retryable() {
				return nil, failure(code, fmt.Errorf("push %s: %w", d.ID, err))
			}
			log.Warn(ctx, "push failed, record stays dirty", "id", d.ID, "error", err)
			continue
		}
		if err := o.cache.MarkSynced(ctx, collection, d.ID, ack.Version, o.now().UnixMilli()); err != nil {
			return nil, failure(FatalSchema, fmt.Errorf("%w: %w", common.ErrLocalStore, err))
		}
		acks = append(acks, ack)
	}
	return acks, success()
}

// overlayAcks replaces (or appends) each acked document in the remote set.
func overlayAcks(remoteSet, acks []models.Document) []models.Document {
	if len(acks) == 0 {
		return remoteSet
	}
	index := make(map[string]int, len(remoteSet))
	for i, d := range remoteSet {
		index[d.ID] = i
	}
	for _, ack := range acks {
		if i, ok := index[ack.ID]; ok {
			remoteSet[i] = ack
			continue
		}
		remoteSet = append(remoteSet, ack)
	}
	return remoteSet
}

func (o *Orchestrator) reportFailure(ctx context.Context, collection models.Collection, out Outcome) {
	event := EventSyncFailed
	if out.Code.Retryable() {
		event = EventSyncRetried
	}
	o.telemetry.Emit(ctx, event, "collection", collection, "code", out.Code.String(), "error", out.Err)
}

// classify maps a remote error onto an outcome code via the common
// sentinels attached by the transport layer.
func classify(err error) Code {
	switch {
	case errors.Is(err, common.ErrServerUnavailable):
		return RetryableNetwork
	case errors.Is(err, common.ErrUnauthorized):
		return FatalAuth
	case errors.Is(err, common.ErrUnknownCollection):
		return FatalSchema
	case errors.Is(err, context.DeadlineExceeded):
		return RetryableNetwork
	default:
		return RetryableServer
	}
}
