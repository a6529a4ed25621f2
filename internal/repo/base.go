package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base provides generic CRUD over one model type. Domain repositories embed
// it and add bespoke finders expressed as filter compositions.
type Base[T any] struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase[T any](db *gorm.DB) *Base[T] {
	return &Base[T]{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (b *Base[T]) WithTx(tx *gorm.DB) *Base[T] {
	if tx == nil {
		return b
	}
	return &Base[T]{db: tx}
}

// DB returns the GORM connection bound to the supplied context.
func (b *Base[T]) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// FindAll returns the rows matching opts. The returned count is the total
// matching rows before pagination when opts.WithCount is set, otherwise -1.
func (b *Base[T]) FindAll(ctx context.Context, opts Options) ([]T, int64, error) {
	var model T
	tx := b.DB(ctx).Model(&model)

	tx, err := ApplyFilters(tx, opts.Filters)
	if err != nil {
		return nil, 0, err
	}

	total := int64(-1)
	if opts.WithCount {
		if err := tx.Count(&total).Error; err != nil {
			return nil, 0, err
		}
	}

	tx, err = applySorts(tx, opts.Sorts)
	if err != nil {
		return nil, 0, err
	}

	if opts.Page != nil {
		if opts.Page.Limit <= 0 {
			return nil, 0, fmt.Errorf("page limit must be positive")
		}
		tx = tx.Offset(opts.Page.Number * opts.Page.Limit).Limit(opts.Page.Limit)
	}

	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindByID loads a single row by primary key.
func (b *Base[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var row T
	if err := b.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindWhere returns every row matching the filters, without sort/pagination.
func (b *Base[T]) FindWhere(ctx context.Context, filters ...Filter) ([]T, error) {
	var model T
	tx, err := ApplyFilters(b.DB(ctx).Model(&model), filters)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindOne returns the single row matching the filters.
func (b *Base[T]) FindOne(ctx context.Context, filters ...Filter) (*T, error) {
	var model T
	tx, err := ApplyFilters(b.DB(ctx).Model(&model), filters)
	if err != nil {
		return nil, err
	}
	var row T
	if err := tx.First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts the record.
func (b *Base[T]) Create(ctx context.Context, record *T) (*T, error) {
	if err := b.DB(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Update applies a column patch to the row with the given id and reloads it.
// Missing rows surface as gorm.ErrRecordNotFound.
func (b *Base[T]) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*T, error) {
	var model T
	res := b.DB(ctx).Model(&model).Where("id = ?", id).Updates(patch)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return b.FindByID(ctx, id)
}

// Save writes the full record, last write wins.
func (b *Base[T]) Save(ctx context.Context, record *T) error {
	return b.DB(ctx).Save(record).Error
}

// Delete removes the row with the given id.
func (b *Base[T]) Delete(ctx context.Context, id uuid.UUID) error {
	var model T
	res := b.DB(ctx).Where("id = ?", id).Delete(&model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the number of rows matching the filters.
func (b *Base[T]) Count(ctx context.Context, filters ...Filter) (int64, error) {
	var model T
	tx, err := ApplyFilters(b.DB(ctx).Model(&model), filters)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Select is the raw escape hatch for joined or aggregated reads the DSL
// cannot express.
func (b *Base[T]) Select(ctx context.Context, dest any, query string, args ...any) error {
	return b.DB(ctx).Raw(query, args...).Scan(dest).Error
}
