// Package reconcile decides, per enriched record, what mutation to apply
// to the external roster store. Records are processed strictly
// sequentially so a later record observes the writes of an earlier one
// when they share a key.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crewdeck/roster-sync/internal/roster"
)

// Store is the injected capability the engine reconciles against. One
// read and zero or more writes happen per record; the engine never caches
// persisted records across runs.
type Store interface {
	// LookupByKey returns every persisted record matching the full
	// composite key, regardless of owner.
	LookupByKey(ctx context.Context, key roster.CompositeKey) ([]roster.Persisted, error)

	// LookupByDate returns the given owner's persisted records for a
	// scraped date.
	LookupByDate(ctx context.Context, date, ownerID string) ([]roster.Persisted, error)

	// Insert creates a record and returns its store-assigned id.
	Insert(ctx context.Context, rec roster.Enriched) (string, error)

	// Update overwrites the record with the given id in place.
	Update(ctx context.Context, id string, rec roster.Enriched) error

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error
}

// Action is the mutation decided for a record.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionSkip   Action = "skip"
)

// Directive is one emitted store mutation (or the decision not to make
// one), in the order it was applied.
type Directive struct {
	Action Action
	ID     string // store id for update/delete
	Key    roster.CompositeKey
	Owner  string
}

// Failure reports a store operation that failed for one record, with
// enough context to retry manually. The batch continues past it.
type Failure struct {
	Op    Action
	Key   roster.CompositeKey
	Owner string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s owner=%s: %v", f.Op, f.Key, f.Owner, f.Err)
}

// Summary is the run-level account of what happened. There are no silent
// partial failures: every record lands in at least one counter.
type Summary struct {
	Records  int
	Inserted int
	Updated  int
	Deleted  int
	Skipped  int
	Flagged  int
	Failed   int
}

// Result carries the applied directives, the summary and the per-record
// failures of one reconciliation pass.
type Result struct {
	Directives []Directive
	Failures   []Failure
	Summary    Summary
}

// Engine reconciles enriched records against the store.
type Engine struct {
	store Store
	log   *slog.Logger
}

// New creates a reconciliation engine around the injected store.
func New(store Store) *Engine {
	return &Engine{
		store: store,
		log:   slog.With("component", "reconcile"),
	}
}

// Reconcile processes the batch in scrape order. Per-record store
// failures are recorded and the batch continues; only context
// cancellation aborts the remaining records, leaving already-applied
// mutations in place.
func (e *Engine) Reconcile(ctx context.Context, records []roster.Enriched) (*Result, error) {
	res := &Result{}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("reconcile aborted at record %d: %w", i, err)
		}

		res.Summary.Records++
		if rec.Flagged {
			res.Summary.Flagged++
		}

		if roster.IsBlank(rec.Activity) {
			e.reconcileBlank(ctx, rec, res)
			continue
		}

		e.reconcileActive(ctx, rec, res)
	}

	return res, nil
}

// reconcileBlank handles a record whose Activity is empty: the scraped
// schedule no longer shows an activity for that day, so any persisted
// record of this owner for the same date is a cancellation and gets
// deleted. With no match there is no store operation at all.
func (e *Engine) reconcileBlank(ctx context.Context, rec roster.Enriched, res *Result) {
	res.Summary.Skipped++

	existing, err := e.store.LookupByDate(ctx, rec.Date, rec.OwnerID)
	if err != nil {
		e.fail(res, Failure{Op: ActionSkip, Key: rec.Key(), Owner: rec.OwnerID, Err: err})
		return
	}
	if len(existing) == 0 {
		res.Directives = append(res.Directives, Directive{Action: ActionSkip, Key: rec.Key(), Owner: rec.OwnerID})
		return
	}

	for _, p := range existing {
		if err := e.store.Delete(ctx, p.ID); err != nil {
			e.fail(res, Failure{Op: ActionDelete, Key: p.Key(), Owner: rec.OwnerID, Err: err})
			continue
		}
		res.Summary.Deleted++
		res.Directives = append(res.Directives, Directive{Action: ActionDelete, ID: p.ID, Key: p.Key(), Owner: rec.OwnerID})
		e.log.Info("deleted cancelled entry", "date", rec.Date, "owner", rec.OwnerID, "id", p.ID)
	}
}

// reconcileActive applies the lookup/update/insert state machine for a
// record that carries an activity.
func (e *Engine) reconcileActive(ctx context.Context, rec roster.Enriched, res *Result) {
	key := rec.Key()

	matches, err := e.store.LookupByKey(ctx, key)
	if err != nil {
		e.fail(res, Failure{Op: ActionInsert, Key: key, Owner: rec.OwnerID, Err: err})
		return
	}

	// Every match belonging to this owner is updated in place; more than
	// one means a prior run wrote duplicates, and updating all of them
	// heals that rather than erroring.
	var own []roster.Persisted
	for _, p := range matches {
		if p.OwnerID == rec.OwnerID {
			own = append(own, p)
		}
	}
	if len(own) > 0 {
		for _, p := range own {
			if err := e.store.Update(ctx, p.ID, rec); err != nil {
				e.fail(res, Failure{Op: ActionUpdate, Key: key, Owner: rec.OwnerID, Err: err})
				continue
			}
			res.Summary.Updated++
			res.Directives = append(res.Directives, Directive{Action: ActionUpdate, ID: p.ID, Key: key, Owner: rec.OwnerID})
		}
		return
	}

	// No match for this owner: matches held by other owners are distinct
	// entries (crew sharing a flight) and must not merge.
	id, err := e.store.Insert(ctx, rec)
	if err != nil {
		e.fail(res, Failure{Op: ActionInsert, Key: key, Owner: rec.OwnerID, Err: err})
		return
	}
	res.Summary.Inserted++
	res.Directives = append(res.Directives, Directive{Action: ActionInsert, ID: id, Key: key, Owner: rec.OwnerID})
}

func (e *Engine) fail(res *Result, f Failure) {
	res.Summary.Failed++
	res.Failures = append(res.Failures, f)
	e.log.Warn("store operation failed",
		"op", string(f.Op),
		"key", f.Key.String(),
		"owner", f.Owner,
		"error", f.Err,
	)
}
