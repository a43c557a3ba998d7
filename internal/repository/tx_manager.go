package repository

import (
	"context"
	"errors"
	"fmt"

	"garage/internal/workflow"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type contextKey string

const txKey contextKey = "gorm_tx"

// TransactionManager manages database transactions via context injection.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

// RunInTx joins an outer transaction when ctx already carries one, so a
// service command can be composed into a larger unit of work.
func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
}

// GetDB extracts the transaction DB from context if present, otherwise returns root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}

// saveVersioned writes every column of entity guarded by its version.
// version points at the entity's Version field and is bumped on success.
// Zero affected rows means somebody else committed first.
func saveVersioned(db *gorm.DB, entity interface{}, version *int64) error {
	prev := *version
	*version = prev + 1
	res := db.Model(entity).
		Select("*").
		Omit(clause.Associations, "created_at").
		Where("version = ?", prev).
		Updates(entity)
	if res.Error != nil {
		*version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		*version = prev
		return workflow.ErrConflict
	}
	return nil
}

// notFound maps gorm's missing-row error onto the workflow taxonomy
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.ErrNotFound
	}
	return err
}

// duplicate maps a unique-key violation onto as. Needs TranslateError on the
// gorm config.
func duplicate(err, as error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", as, err)
	}
	return err
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
