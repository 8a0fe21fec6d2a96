// Package gormstore implements store.PoolStore over a GORM-managed SQL
// table, the production counterpart to internal/store/memory. Pool
// documents don't decompose cleanly into relational columns (nested rosters,
// a variable-width tradable-picks matrix, a large day-keyed scoring blob),
// so the document itself is kept as a JSON column — the same technique the
// teacher uses for GlossaryTerm.Examples/AIRecommendation.Request/Response —
// with name/owner/status/season promoted to real indexed columns so
// ListPools and lookups by name don't need to deserialize every row.
package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// poolRecord is the GORM model backing the pools table.
type poolRecord struct {
	Name      string `gorm:"primaryKey;size:200"`
	Owner     string `gorm:"size:200;index"`
	Status    string `gorm:"size:20;index"`
	Season    uint32 `gorm:"index"`
	Document  datatypes.JSON
	UpdatedAt time.Time
}

func (poolRecord) TableName() string { return "pools" }
