package models

import (
	"time"

	"gorm.io/datatypes"
)

// KISRawSnapshot archives the raw body of one brokerage response so dated
// rows can be audited against what the API actually returned.
type KISRawSnapshot struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	Endpoint  string         `gorm:"type:varchar(200);not null;index"`
	TrID      string         `gorm:"column:tr_id;type:varchar(20);not null"`
	FetchedAt time.Time      `gorm:"type:timestamptz;not null;index"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
}

func (KISRawSnapshot) TableName() string {
	return "kis_raw_snapshots"
}
