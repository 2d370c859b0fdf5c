// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/petspace/petemotion/internal/domain/emotion"
)

// AnalysisRecord is one stored emotion analysis. JSON names follow the
// emotion_history table.
type AnalysisRecord struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	PetID           *string        `json:"pet_id"`
	ImageURL        string         `json:"image_url"`
	EmotionAnalysis emotion.Scores `json:"emotion_analysis"`
	Memo            *string        `json:"memo"`
	Provider        string         `json:"provider"`
	CreatedAt       time.Time      `json:"created_at"`
}

// AnalysisEvent announces a stored analysis to downstream consumers.
type AnalysisEvent struct {
	RecordID  string         `json:"record_id"`
	UserID    string         `json:"user_id"`
	PetID     *string        `json:"pet_id,omitempty"`
	Provider  string         `json:"provider"`
	Dominant  string         `json:"dominant"`
	Scores    emotion.Scores `json:"scores"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAnalysisEvent derives the event for a stored record.
func NewAnalysisEvent(rec AnalysisRecord) AnalysisEvent { //nolint:gocritic // hugeParam: record is passed by value between layers
	return AnalysisEvent{
		RecordID:  rec.ID,
		UserID:    rec.UserID,
		PetID:     rec.PetID,
		Provider:  rec.Provider,
		Dominant:  rec.EmotionAnalysis.Dominant(),
		Scores:    rec.EmotionAnalysis,
		CreatedAt: rec.CreatedAt,
	}
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
