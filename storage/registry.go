package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/raid-guild/x402-tip-links/types"
)

// PostgresRegistry stores tip configurations in the tip_configs table.
type PostgresRegistry struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostgresRegistry(db *gorm.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db, now: time.Now}
}

func (r *PostgresRegistry) Create(ctx context.Context, creatorAddress, defaultAmount string) (types.TipConfig, error) {
	model := tipConfigModel{
		ID:             NewTipID(),
		CreatorAddress: creatorAddress,
		DefaultAmount:  defaultAmount,
		CreatedAt:      r.now().UnixMilli(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return types.TipConfig{}, fmt.Errorf("insert tip config: %w", err)
	}
	return model.toDomain(), nil
}

func (r *PostgresRegistry) Get(ctx context.Context, id string) (types.TipConfig, bool, error) {
	var model tipConfigModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.TipConfig{}, false, nil
	}
	if err != nil {
		return types.TipConfig{}, false, fmt.Errorf("select tip config %s: %w", id, err)
	}
	return model.toDomain(), true, nil
}
