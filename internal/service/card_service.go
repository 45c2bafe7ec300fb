package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"flashcards/internal/lock"
	"flashcards/internal/model"
	"flashcards/internal/ordering"
	"flashcards/internal/repository"
)

// A card is looked up before its partition can be locked. If it moved in
// between, the operation starts over this many times.
const maxPartitionAttempts = 3

var errPartitionChanged = errors.New("card changed partition")

// CardInput holds the content of a new card.
type CardInput struct {
	Word       string `validate:"required,max=100" label:"word"`
	Image      string `validate:"max=1024" label:"image"`
	AudioURL   string `validate:"max=1024" label:"audio url"`
	CategoryID *uint  `validate:"-"`
}

// CardPatch changes any subset of a card. SetCategory distinguishes "move to
// uncategorized" (SetCategory with a nil CategoryID) from "keep category".
type CardPatch struct {
	Word        *string
	Image       *string
	AudioURL    *string
	SetCategory bool
	CategoryID  *uint
	Position    *int
}

// DeleteResult reports an idempotent delete.
type DeleteResult struct {
	Found bool `json:"found"`
}

// BulkDeleteResult reports a bulk card delete.
type BulkDeleteResult struct {
	Deleted int64  `json:"deleted"`
	Missing []uint `json:"missing"`
}

// CardService manages cards and keeps their positions dense.
type CardService struct {
	store  *repository.Store
	locker lock.Locker
	rec    *Reconciler
}

func NewCardService(store *repository.Store, locker lock.Locker, rec *Reconciler) *CardService {
	return &CardService{store: store, locker: locker, rec: rec}
}

// CreateCard appends a card to the end of its partition.
func (s *CardService) CreateCard(ctx context.Context, scope model.Scope, in CardInput) (*model.Card, error) {
	in.Word = strings.TrimSpace(in.Word)
	in.Image = strings.TrimSpace(in.Image)
	in.AudioURL = strings.TrimSpace(in.AudioURL)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	p := model.Partition{Scope: scope, CategoryID: in.CategoryID}
	unlock, err := s.locker.Lock(ctx, p.Key())
	if err != nil {
		return nil, persistenceError("lock partition", err)
	}
	defer unlock()

	card := model.Card{
		Word:       in.Word,
		Image:      in.Image,
		AudioURL:   in.AudioURL,
		CategoryID: in.CategoryID,
		ClassID:    scope.Ref(),
	}
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		if in.CategoryID != nil {
			if err := requireCategory(ctx, tx, scope, *in.CategoryID); err != nil {
				return err
			}
		}
		st, err := s.rec.load(ctx, tx, p)
		if err != nil {
			return err
		}
		if _, err := s.rec.commit(ctx, tx, st, st.seq); err != nil {
			return err
		}
		card.SortOrder = len(st.seq) + 1
		return tx.Cards.Create(ctx, &card)
	})
	if err != nil {
		return nil, persistenceError("create card", err)
	}
	return &card, nil
}

func (s *CardService) GetCard(ctx context.Context, id uint) (*model.Card, error) {
	card, err := s.store.Cards.GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, newError(ErrNotFound, "card %d does not exist", id)
	}
	if err != nil {
		return nil, persistenceError("get card", err)
	}
	return card, nil
}

// ListCards returns every card of the scope in position order.
func (s *CardService) ListCards(ctx context.Context, scope model.Scope) ([]model.Card, error) {
	cards, err := s.store.Cards.ListByScope(ctx, scope)
	if err != nil {
		return nil, persistenceError("list cards", err)
	}
	return cards, nil
}

// UpdateCard applies patch. A category change moves the card to the other
// partition (appended, or at Position when given); a position alone moves
// it inside its partition.
func (s *CardService) UpdateCard(ctx context.Context, id uint, patch CardPatch) (*model.Card, error) {
	content := CardInput{Word: "-"}
	if patch.Word != nil {
		w := strings.TrimSpace(*patch.Word)
		patch.Word, content.Word = &w, w
	}
	if patch.Image != nil {
		img := strings.TrimSpace(*patch.Image)
		patch.Image, content.Image = &img, img
	}
	if patch.AudioURL != nil {
		audio := strings.TrimSpace(*patch.AudioURL)
		patch.AudioURL, content.AudioURL = &audio, audio
	}
	if err := validateInput(content); err != nil {
		return nil, err
	}

	target := func(c *model.Card) []model.Partition {
		if !patch.SetCategory {
			return nil
		}
		return []model.Partition{{Scope: model.ScopeOf(c.ClassID), CategoryID: patch.CategoryID}}
	}

	var updated model.Card
	err := s.withCard(ctx, "update card", id, target, func(tx *repository.Store, card *model.Card) error {
		if patch.Word != nil {
			card.Word = *patch.Word
		}
		if patch.Image != nil {
			card.Image = *patch.Image
		}
		if patch.AudioURL != nil {
			card.AudioURL = *patch.AudioURL
		}
		if patch.Word != nil || patch.Image != nil || patch.AudioURL != nil {
			if err := tx.Cards.UpdateContent(ctx, card); err != nil {
				return err
			}
		}

		from := card.Partition()
		switch {
		case patch.SetCategory && !from.Equal(model.Partition{Scope: from.Scope, CategoryID: patch.CategoryID}):
			to := model.Partition{Scope: from.Scope, CategoryID: patch.CategoryID}
			pos, err := s.moveAcross(ctx, tx, card.ID, from, to, patch.Position)
			if err != nil {
				return err
			}
			card.CategoryID, card.SortOrder = to.CategoryID, pos
		case patch.Position != nil:
			pos, err := s.moveWithin(ctx, tx, card.ID, from, *patch.Position)
			if err != nil {
				return err
			}
			card.SortOrder = pos
		}
		updated = *card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// MoveCard moves a card to position inside its current partition. Moving to
// the current position changes nothing.
func (s *CardService) MoveCard(ctx context.Context, id uint, position int) (*model.Card, error) {
	return s.UpdateCard(ctx, id, CardPatch{Position: &position})
}

// DeleteCard removes a card and closes the gap it leaves. Deleting a missing
// card reports Found false.
func (s *CardService) DeleteCard(ctx context.Context, id uint) (DeleteResult, error) {
	err := s.withCard(ctx, "delete card", id, nil, func(tx *repository.Store, card *model.Card) error {
		st, err := s.rec.load(ctx, tx, card.Partition())
		if err != nil {
			return err
		}
		if _, err := tx.Cards.Delete(ctx, card.ID); err != nil {
			return err
		}
		_, err = s.rec.commit(ctx, tx, st, ordering.Remove(st.seq, card.ID))
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return DeleteResult{Found: false}, nil
	}
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Found: true}, nil
}

// DeleteCards removes a set of cards and renumbers each affected partition
// once. Ids that do not exist are reported back.
func (s *CardService) DeleteCards(ctx context.Context, ids []uint) (*BulkDeleteResult, error) {
	ids = uniqueIDs(ids)
	for attempt := 0; attempt < maxPartitionAttempts; attempt++ {
		res, err := s.deleteCardsOnce(ctx, ids)
		if errors.Is(err, errPartitionChanged) {
			continue
		}
		if err != nil {
			return nil, persistenceError("delete cards", err)
		}
		return res, nil
	}
	return nil, persistenceError("delete cards", errPartitionChanged)
}

func (s *CardService) deleteCardsOnce(ctx context.Context, ids []uint) (*BulkDeleteResult, error) {
	cards, err := s.store.Cards.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]model.Partition, len(cards))
	parts := make(map[string]model.Partition)
	keys := make([]string, 0)
	for _, c := range cards {
		p := c.Partition()
		seen[c.ID] = p
		if _, ok := parts[p.Key()]; !ok {
			parts[p.Key()] = p
			keys = append(keys, p.Key())
		}
	}
	res := &BulkDeleteResult{Missing: []uint{}}
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			res.Missing = append(res.Missing, id)
		}
	}
	if len(cards) == 0 {
		return res, nil
	}

	unlock, err := lock.LockAll(ctx, s.locker, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		current, err := tx.Cards.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(current) != len(cards) {
			return errPartitionChanged
		}
		removed := make(map[string][]uint)
		for _, c := range current {
			p, ok := seen[c.ID]
			if !ok || !p.Equal(c.Partition()) {
				return errPartitionChanged
			}
			removed[p.Key()] = append(removed[p.Key()], c.ID)
		}

		sort.Strings(keys)
		for _, key := range keys {
			st, err := s.rec.load(ctx, tx, parts[key])
			if err != nil {
				return err
			}
			next := st.seq
			for _, id := range removed[key] {
				next = ordering.Remove(next, id)
			}
			n, err := tx.Cards.DeleteIDs(ctx, removed[key])
			if err != nil {
				return err
			}
			res.Deleted += n
			if _, err := s.rec.commit(ctx, tx, st, next); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// withCard locks the partition of card id (plus any partitions extra names
// for it) and runs fn in a transaction once the card is confirmed to still
// live there. Failures are reported under op.
func (s *CardService) withCard(ctx context.Context, op string, id uint, extra func(*model.Card) []model.Partition, fn func(tx *repository.Store, card *model.Card) error) error {
	for attempt := 0; attempt < maxPartitionAttempts; attempt++ {
		seen, err := s.store.Cards.GetByID(ctx, id)
		if repository.IsNotFound(err) {
			return newError(ErrNotFound, "card %d does not exist", id)
		}
		if err != nil {
			return persistenceError("get card", err)
		}

		home := seen.Partition()
		keys := []string{home.Key()}
		if extra != nil {
			for _, p := range extra(seen) {
				keys = append(keys, p.Key())
			}
		}

		err = s.lockedCard(ctx, id, home, keys, fn)
		if errors.Is(err, errPartitionChanged) {
			continue
		}
		return persistenceError(op, err)
	}
	return persistenceError(op, errPartitionChanged)
}

func (s *CardService) lockedCard(ctx context.Context, id uint, home model.Partition, keys []string, fn func(tx *repository.Store, card *model.Card) error) error {
	unlock, err := lock.LockAll(ctx, s.locker, keys...)
	if err != nil {
		return err
	}
	defer unlock()

	return s.store.Atomic(ctx, func(tx *repository.Store) error {
		card, err := tx.Cards.GetByID(ctx, id)
		if repository.IsNotFound(err) {
			return newError(ErrNotFound, "card %d does not exist", id)
		}
		if err != nil {
			return err
		}
		if !card.Partition().Equal(home) {
			return errPartitionChanged
		}
		return fn(tx, card)
	})
}

func (s *CardService) moveWithin(ctx context.Context, tx *repository.Store, id uint, p model.Partition, position int) (int, error) {
	st, err := s.rec.load(ctx, tx, p)
	if err != nil {
		return 0, err
	}
	next, err := ordering.MoveWithin(st.seq, id, position)
	if err != nil {
		return 0, positionError(err)
	}
	if _, err := s.rec.commit(ctx, tx, st, next); err != nil {
		return 0, err
	}
	return position, nil
}

// moveAcross takes the card out of from and inserts it into to, at position
// or at the end. Both partitions are renumbered.
func (s *CardService) moveAcross(ctx context.Context, tx *repository.Store, id uint, from, to model.Partition, position *int) (int, error) {
	if to.CategoryID != nil {
		if err := requireCategory(ctx, tx, to.Scope, *to.CategoryID); err != nil {
			return 0, err
		}
	}
	src, err := s.rec.load(ctx, tx, from)
	if err != nil {
		return 0, err
	}
	dst, err := s.rec.load(ctx, tx, to)
	if err != nil {
		return 0, err
	}

	pos := len(dst.seq) + 1
	if position != nil {
		pos = *position
	}
	next, err := ordering.Insert(dst.seq, id, pos)
	if err != nil {
		return 0, positionError(err)
	}

	if err := tx.Cards.Place(ctx, id, to, pos); err != nil {
		return 0, err
	}
	dst.current[id] = pos
	if _, err := s.rec.commit(ctx, tx, src, ordering.Remove(src.seq, id)); err != nil {
		return 0, err
	}
	if _, err := s.rec.commit(ctx, tx, dst, next); err != nil {
		return 0, err
	}
	return pos, nil
}

func requireCategory(ctx context.Context, tx *repository.Store, scope model.Scope, id uint) error {
	_, err := tx.Categories.GetByID(ctx, scope, id)
	if repository.IsNotFound(err) {
		return newError(ErrNotFound, "category %d does not exist in %s", id, scope)
	}
	return err
}

func positionError(err error) error {
	var rerr *ordering.RangeError
	if errors.As(err, &rerr) {
		return &Error{Kind: ErrOutOfRange, Reason: rerr.Error(), Err: err}
	}
	return err
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
