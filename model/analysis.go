package model

import "time"

// Analysis is one derived musical analysis for a Track. Many analyses may
// reference one track; current flows create exactly one per track. Rows are
// immutable once written; chords_json and tabs_json are stored opaque and
// only interpreted, tolerantly, by the read projector.
type Analysis struct {
	ID         string    `json:"id" gorm:"column:id;type:varchar(36);primaryKey"`
	TrackID    string    `json:"trackId" gorm:"column:track_id;type:varchar(36);not null;index"`
	ChordsJSON string    `json:"-" gorm:"column:chords_json;type:longtext;not null"`
	TabsJSON   string    `json:"-" gorm:"column:tabs_json;type:longtext;not null"`
	Summary    string    `json:"summary" gorm:"column:summary;type:text"`
	CreatedAt  time.Time `json:"createdAt" gorm:"column:created_at;not null"`
}

// TableName maps Analysis to the analyses table.
func (Analysis) TableName() string { return "analyses" }

// ChordEvent is a single timed chord inside the serialized chord structure.
// Events are produced in ascending time order; the store does not enforce it.
type ChordEvent struct {
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Chord    string  `json:"chord"`
	Section  string  `json:"section"`
}

// Tablature is a full-song six-string tab plus optional simplified
// single-string alternatives, as produced by the analyzer.
type Tablature struct {
	Tuning              string            `json:"tuning"`
	AllStrings          []string          `json:"allStrings"`
	SingleStringOptions []TabStringOption `json:"singleStringOptions"`
}

// TabStringOption is one simplified single-string rendition.
type TabStringOption struct {
	String string `json:"string"`
	Tab    string `json:"tab"`
}
