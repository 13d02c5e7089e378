package model

import "time"

// Track represents one acquired audio asset, either uploaded directly or
// downloaded from a source URL. A row is written once and never mutated.
type Track struct {
	ID               string    `json:"id" gorm:"column:id;type:varchar(36);primaryKey"`
	OriginalFilename string    `json:"originalFilename" gorm:"column:original_filename;type:varchar(512);not null"`
	StoredFilename   string    `json:"-" gorm:"column:stored_filename;type:varchar(512);not null"` // physical file under the upload dir, not exposed in API directly
	Mimetype         string    `json:"mimetype" gorm:"column:mimetype;type:varchar(128)"`
	Size             int64     `json:"size" gorm:"column:size"`
	DurationSeconds  *float64  `json:"durationSeconds,omitempty" gorm:"column:duration_seconds"`
	CreatedAt        time.Time `json:"createdAt" gorm:"column:created_at;not null"`
}

// TableName maps Track to the tracks table.
func (Track) TableName() string { return "tracks" }
