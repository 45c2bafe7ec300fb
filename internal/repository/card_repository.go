package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"flashcards/internal/model"
	"flashcards/internal/ordering"
)

// CardRepository manages flashcards and their stored positions.
type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

// cardOrder is the display and reconciliation order of cards.
func cardOrder(q *gorm.DB) *gorm.DB {
	return q.Order("sort_order ASC").Order("created_at ASC").Order("id ASC")
}

func (r *CardRepository) Create(ctx context.Context, card *model.Card) error {
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (r *CardRepository) GetByID(ctx context.Context, id uint) (*model.Card, error) {
	var card model.Card
	if err := r.db.WithContext(ctx).First(&card, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *CardRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.Card, error) {
	var cards []model.Card
	if len(ids) == 0 {
		return cards, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("list cards by id: %w", err)
	}
	return cards, nil
}

func (r *CardRepository) partition(ctx context.Context, p model.Partition) *gorm.DB {
	q := p.Scope.Apply(r.db.WithContext(ctx).Model(&model.Card{}))
	if p.CategoryID == nil {
		return q.Where("category_id IS NULL")
	}
	return q.Where("category_id = ?", *p.CategoryID)
}

// ListPartition returns the cards of one partition in position order.
func (r *CardRepository) ListPartition(ctx context.Context, p model.Partition) ([]model.Card, error) {
	var cards []model.Card
	if err := cardOrder(r.partition(ctx, p)).Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("list partition %s: %w", p, err)
	}
	return cards, nil
}

func (r *CardRepository) CountPartition(ctx context.Context, p model.Partition) (int64, error) {
	var n int64
	if err := r.partition(ctx, p).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count partition %s: %w", p, err)
	}
	return n, nil
}

// ListByScope returns every card of the scope in position order.
func (r *CardRepository) ListByScope(ctx context.Context, scope model.Scope) ([]model.Card, error) {
	var cards []model.Card
	if err := cardOrder(scope.Apply(r.db.WithContext(ctx))).Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// ListAll returns every card in storage order, the read order used when
// normalizing legacy rows.
func (r *CardRepository) ListAll(ctx context.Context) ([]model.Card, error) {
	var cards []model.Card
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("list all cards: %w", err)
	}
	return cards, nil
}

// UpdateContent writes the editable content fields.
func (r *CardRepository) UpdateContent(ctx context.Context, card *model.Card) error {
	err := r.db.WithContext(ctx).Model(&model.Card{}).
		Where("id = ?", card.ID).
		Updates(map[string]any{"word": card.Word, "image": card.Image, "audio_url": card.AudioURL}).Error
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return nil
}

// Place assigns a card to a partition and position.
func (r *CardRepository) Place(ctx context.Context, id uint, p model.Partition, sortOrder int) error {
	err := r.db.WithContext(ctx).Model(&model.Card{}).
		Where("id = ?", id).
		Updates(map[string]any{"class_id": p.Scope.Ref(), "category_id": p.CategoryID, "sort_order": sortOrder}).Error
	if err != nil {
		return fmt.Errorf("place card %d: %w", id, err)
	}
	return nil
}

// ApplyOrder writes the given positions. Callers run it inside the
// transaction that read the partition.
func (r *CardRepository) ApplyOrder(ctx context.Context, entries []ordering.Entry) error {
	db := r.db.WithContext(ctx)
	for _, e := range entries {
		if err := db.Model(&model.Card{}).Where("id = ?", e.ID).Update("sort_order", e.SortOrder).Error; err != nil {
			return fmt.Errorf("set position of card %d: %w", e.ID, err)
		}
	}
	return nil
}

func (r *CardRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.Card{}, id)
	if res.Error != nil {
		return 0, fmt.Errorf("delete card: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *CardRepository) DeleteIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Card{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete cards: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *CardRepository) ReassignClass(ctx context.Context, scope model.Scope, classID string) (int64, error) {
	res := scope.Apply(r.db.WithContext(ctx).Model(&model.Card{})).Update("class_id", classID)
	if res.Error != nil {
		return 0, fmt.Errorf("reassign cards: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *CardRepository) CountByScope(ctx context.Context, scope model.Scope) (int64, error) {
	var n int64
	if err := scope.Apply(r.db.WithContext(ctx).Model(&model.Card{})).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

func (r *CardRepository) DeleteByScope(ctx context.Context, scope model.Scope) (int64, error) {
	res := scope.Apply(r.db.WithContext(ctx)).Delete(&model.Card{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete cards: %w", res.Error)
	}
	return res.RowsAffected, nil
}
