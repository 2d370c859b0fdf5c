package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/petspace/petemotion/internal/domain/emotion"
	model "github.com/petspace/petemotion/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewAnalysisEvent(t *testing.T) {
	convey.Convey("Given a stored record", t, func() {
		ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		rec := model.AnalysisRecord{
			ID:              "rec-1",
			UserID:          "user-1",
			PetID:           model.StringPtr("pet-1"),
			ImageURL:        "https://cdn/x.jpg",
			EmotionAnalysis: emotion.Scores{Happiness: 0.1, Sadness: 0.1, Anxiety: 0.1, Sleepiness: 0.1, Curiosity: 0.6},
			Provider:        "gemini",
			CreatedAt:       ts,
		}

		convey.Convey("When the event is derived", func() {
			ev := model.NewAnalysisEvent(rec)

			convey.Convey("Then it carries the record identity and dominant emotion", func() {
				convey.So(ev.RecordID, convey.ShouldEqual, "rec-1")
				convey.So(ev.UserID, convey.ShouldEqual, "user-1")
				convey.So(*ev.PetID, convey.ShouldEqual, "pet-1")
				convey.So(ev.Provider, convey.ShouldEqual, "gemini")
				convey.So(ev.Dominant, convey.ShouldEqual, "curiosity")
				convey.So(ev.CreatedAt, convey.ShouldEqual, ts)
			})
		})

		convey.Convey("When the record is encoded", func() {
			b, err := json.Marshal(rec)

			convey.Convey("Then it uses the table column names", func() {
				convey.So(err, convey.ShouldBeNil)
				s := string(b)
				convey.So(s, convey.ShouldContainSubstring, `"user_id":"user-1"`)
				convey.So(s, convey.ShouldContainSubstring, `"emotion_analysis":{"happiness":0.1`)
				convey.So(s, convey.ShouldContainSubstring, `"memo":null`)
			})
		})
	})

	convey.Convey("StringPtr maps empty to nil", t, func() {
		convey.So(model.StringPtr(""), convey.ShouldBeNil)
		convey.So(*model.StringPtr("x"), convey.ShouldEqual, "x")
	})
}
