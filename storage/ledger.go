package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raid-guild/x402-tip-links/types"
)

// PostgresLedger stores settlements in the tip_settlements table. The transaction hash
// is the primary key, so a hash settles at most one tip across all instances.
type PostgresLedger struct {
	db *gorm.DB
}

func NewPostgresLedger(db *gorm.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Get(ctx context.Context, txHash string) (types.Settlement, bool, error) {
	var model settlementModel
	err := l.db.WithContext(ctx).Where("tx_hash = ?", strings.ToLower(txHash)).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Settlement{}, false, nil
	}
	if err != nil {
		return types.Settlement{}, false, fmt.Errorf("select settlement %s: %w", txHash, err)
	}
	return model.toDomain(), true, nil
}

func (l *PostgresLedger) Claim(ctx context.Context, s types.Settlement) (types.Settlement, bool, error) {
	s.TxHash = strings.ToLower(s.TxHash)
	model := settlementFromDomain(s)

	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tx_hash"}}, DoNothing: true}).
		Create(&model)
	if result.Error != nil && !isUniqueViolation(result.Error) {
		return types.Settlement{}, false, fmt.Errorf("insert settlement %s: %w", s.TxHash, result.Error)
	}
	if result.Error == nil && result.RowsAffected == 1 {
		return model.toDomain(), true, nil
	}

	// The hash was settled first by another request
	stored, found, err := l.Get(ctx, s.TxHash)
	if err != nil {
		return types.Settlement{}, false, err
	}
	if !found {
		return types.Settlement{}, false, fmt.Errorf("settlement %s conflicted but was not found", s.TxHash)
	}
	return stored, false, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
