package reply_test

import (
	"errors"
	"testing"

	"github.com/petspace/petemotion/internal/adapters/provider/reply"
	"github.com/petspace/petemotion/internal/domain/emotion"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractJSON(t *testing.T) {
	Convey("Given prose around a JSON block", t, func() {
		block, ok := reply.ExtractJSON("Sure! Here you go:\n```json\n{\"happiness\": 0.5}\n```\nand {\"x\":1}")

		Convey("Then the first block is returned", func() {
			So(ok, ShouldBeTrue)
			So(block, ShouldEqual, `{"happiness": 0.5}`)
		})
	})

	Convey("Given text without braces", t, func() {
		_, ok := reply.ExtractJSON("I cannot see an animal.")
		So(ok, ShouldBeFalse)
	})
}

func TestParseScores(t *testing.T) {
	Convey("Given a complete reply wrapped in prose", t, func() {
		text := "Analysis follows.\n{\"happiness\": 0.3, \"sadness\": 0.1, \"anxiety\": 0.2, \"sleepiness\": 0.1, \"curiosity\": 0.3}\nThanks."
		got, err := reply.ParseScores(text)

		Convey("Then the values are kept and normalized", func() {
			So(err, ShouldBeNil)
			So(got, ShouldResemble, emotion.Scores{Happiness: 0.3, Sadness: 0.1, Anxiety: 0.2, Sleepiness: 0.1, Curiosity: 0.3})
		})
	})

	Convey("Given a reply with missing, string and junk values", t, func() {
		got, err := reply.ParseScores(`{"happiness": "0.6", "sadness": "lots", "anxiety": -1, "curiosity": null}`)

		Convey("Then unusable values default to 0.2", func() {
			So(err, ShouldBeNil)
			// raw {0.6, 0.2, 0.2, 0.2, 0.2} sums to 1.4
			So(got, ShouldResemble, emotion.Scores{Happiness: 0.429, Sadness: 0.143, Anxiety: 0.143, Sleepiness: 0.143, Curiosity: 0.143})
			So(got.Valid(), ShouldBeTrue)
		})
	})

	Convey("Given string values that parse to NaN or infinity", t, func() {
		got, err := reply.ParseScores(`{"happiness": "NaN", "sadness": "Inf", "anxiety": "-Inf", "sleepiness": "1e400", "curiosity": 0.2}`)

		Convey("Then each one defaults to 0.2", func() {
			So(err, ShouldBeNil)
			So(got, ShouldResemble, emotion.Uniform())
		})
	})

	Convey("Given an empty object", t, func() {
		got, err := reply.ParseScores(`{}`)

		Convey("Then the uniform vector results", func() {
			So(err, ShouldBeNil)
			So(got, ShouldResemble, emotion.Uniform())
		})
	})

	Convey("Given an explicit zero", t, func() {
		got, err := reply.ParseScores(`{"happiness": 0, "sadness": 0.2, "anxiety": 0.2, "sleepiness": 0.2, "curiosity": 0.4}`)

		Convey("Then it stays zero", func() {
			So(err, ShouldBeNil)
			So(got.Happiness, ShouldEqual, 0)
			So(got.Curiosity, ShouldEqual, 0.4)
		})
	})

	Convey("Given all explicit zeros", t, func() {
		_, err := reply.ParseScores(`{"happiness": 0, "sadness": 0, "anxiety": 0, "sleepiness": 0, "curiosity": 0}`)
		So(errors.Is(err, emotion.ErrNoSignal), ShouldBeTrue)
	})

	Convey("Given no block at all", t, func() {
		_, err := reply.ParseScores("The image does not contain a pet.")
		So(errors.Is(err, reply.ErrNoJSON), ShouldBeTrue)
	})

	Convey("Given a block that is not JSON", t, func() {
		_, err := reply.ParseScores("{happiness: high}")
		So(errors.Is(err, reply.ErrMalformed), ShouldBeTrue)
	})

	Convey("The prompt names every emotion", t, func() {
		for _, name := range emotion.Names {
			So(reply.Prompt, ShouldContainSubstring, name)
		}
	})
}
