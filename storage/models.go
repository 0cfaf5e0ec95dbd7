package storage

import (
	"time"

	"github.com/raid-guild/x402-tip-links/types"
)

type tipConfigModel struct {
	ID             string `gorm:"column:id;primaryKey"`
	CreatorAddress string `gorm:"column:creator_address"`
	DefaultAmount  string `gorm:"column:default_amount"`
	CreatedAt      int64  `gorm:"column:created_at;autoCreateTime:false"`
}

func (tipConfigModel) TableName() string { return "tip_configs" }

func (m tipConfigModel) toDomain() types.TipConfig {
	return types.TipConfig{
		ID:             m.ID,
		CreatorAddress: m.CreatorAddress,
		DefaultAmount:  m.DefaultAmount,
		CreatedAt:      m.CreatedAt,
	}
}

type settlementModel struct {
	TxHash         string    `gorm:"column:tx_hash;primaryKey"`
	TipID          string    `gorm:"column:tip_id"`
	TipperAddress  string    `gorm:"column:tipper_address"`
	CreatorAddress string    `gorm:"column:creator_address"`
	Amount         string    `gorm:"column:amount"`
	BaseUnits      string    `gorm:"column:base_units"`
	Token          string    `gorm:"column:token"`
	ChainID        int64     `gorm:"column:chain_id"`
	SettledAt      time.Time `gorm:"column:settled_at"`
}

func (settlementModel) TableName() string { return "tip_settlements" }

func settlementFromDomain(s types.Settlement) settlementModel {
	return settlementModel{
		TxHash:         s.TxHash,
		TipID:          s.TipID,
		TipperAddress:  s.TipperAddress,
		CreatorAddress: s.CreatorAddress,
		Amount:         s.Amount,
		BaseUnits:      s.BaseUnits,
		Token:          s.Token,
		ChainID:        s.ChainID,
		SettledAt:      s.SettledAt,
	}
}

func (m settlementModel) toDomain() types.Settlement {
	return types.Settlement{
		TxHash:         m.TxHash,
		TipID:          m.TipID,
		TipperAddress:  m.TipperAddress,
		CreatorAddress: m.CreatorAddress,
		Amount:         m.Amount,
		BaseUnits:      m.BaseUnits,
		Token:          m.Token,
		ChainID:        m.ChainID,
		SettledAt:      m.SettledAt.UTC(),
	}
}
