package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"flashcards/internal/lock"
	"flashcards/internal/model"
	"flashcards/internal/ordering"
	"flashcards/internal/repository"
)

// partitionState is one partition as read inside a transaction: the
// normalized sequence and the positions currently stored.
type partitionState struct {
	p       model.Partition
	seq     []uint
	current map[uint]int
}

// NormalizeReport summarizes an integrity sweep.
type NormalizeReport struct {
	Partitions int `json:"partitions"`
	Repaired   int `json:"repaired"`
	Cards      int `json:"cards"`
}

// Reconciler keeps card positions dense per partition. Every write goes
// through one transaction per operation while the partition lock is held.
type Reconciler struct {
	store  *repository.Store
	locker lock.Locker
	log    zerolog.Logger
}

func NewReconciler(store *repository.Store, locker lock.Locker, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, locker: locker, log: log.With().Str("component", "reconciler").Logger()}
}

// load reads partition p through tx.
func (r *Reconciler) load(ctx context.Context, tx *repository.Store, p model.Partition) (*partitionState, error) {
	cards, err := tx.Cards.ListPartition(ctx, p)
	if err != nil {
		return nil, err
	}
	entries := make([]ordering.Entry, len(cards))
	for i, c := range cards {
		entries[i] = ordering.Entry{ID: c.ID, SortOrder: c.SortOrder}
	}
	return &partitionState{
		p:       p,
		seq:     ordering.Normalize(entries),
		current: ordering.Positions(entries),
	}, nil
}

// commit renumbers next and writes the positions that changed.
func (r *Reconciler) commit(ctx context.Context, tx *repository.Store, st *partitionState, next []uint) (int, error) {
	changed := ordering.Renumber(next, st.current)
	if err := tx.Cards.ApplyOrder(ctx, changed); err != nil {
		return 0, err
	}
	for _, e := range changed {
		st.current[e.ID] = e.SortOrder
	}
	st.seq = next
	return len(changed), nil
}

// Reconcile renumbers one partition in place, repairing gaps, duplicates and
// unset positions. It returns how many cards moved.
func (r *Reconciler) Reconcile(ctx context.Context, p model.Partition) (int, error) {
	unlock, err := r.locker.Lock(ctx, p.Key())
	if err != nil {
		return 0, persistenceError("lock partition", err)
	}
	defer unlock()

	var changed int
	err = r.store.Atomic(ctx, func(tx *repository.Store) error {
		st, err := r.load(ctx, tx, p)
		if err != nil {
			return err
		}
		changed, err = r.commit(ctx, tx, st, st.seq)
		return err
	})
	if err != nil {
		return 0, persistenceError(fmt.Sprintf("reconcile %s", p), err)
	}
	return changed, nil
}

// NormalizeAll walks every partition and reconciles the ones whose stored
// positions are not exactly 1..N. Legacy cards without a position keep the
// order they were created in, after any positioned cards.
func (r *Reconciler) NormalizeAll(ctx context.Context) (NormalizeReport, error) {
	var report NormalizeReport

	cards, err := r.store.Cards.ListAll(ctx)
	if err != nil {
		return report, persistenceError("load cards", err)
	}

	var order []string
	parts := make(map[string]model.Partition)
	entries := make(map[string][]ordering.Entry)
	for _, c := range cards {
		p := c.Partition()
		key := p.Key()
		if _, ok := parts[key]; !ok {
			order = append(order, key)
			parts[key] = p
		}
		entries[key] = append(entries[key], ordering.Entry{ID: c.ID, SortOrder: c.SortOrder})
	}

	report.Partitions = len(order)
	var errs []error
	for _, key := range order {
		if ordering.IsDense(entries[key]) {
			continue
		}
		changed, err := r.Reconcile(ctx, parts[key])
		if err != nil {
			r.log.Error().Err(err).Str("partition", parts[key].String()).Msg("normalize partition")
			errs = append(errs, err)
			continue
		}
		if changed > 0 {
			report.Repaired++
			report.Cards += changed
		}
	}

	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	return report, nil
}
