package emotion_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/petspace/petemotion/internal/domain/emotion"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given a raw vision vector", t, func() {
		raw := emotion.Scores{Happiness: 0.9, Sadness: 0.1, Anxiety: 0.1, Sleepiness: 0, Curiosity: 0.7}

		Convey("When it is normalized", func() {
			got, err := emotion.Normalize(raw)

			Convey("Then each value is divided by the sum and rounded", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, emotion.Scores{
					Happiness: 0.5, Sadness: 0.056, Anxiety: 0.056, Sleepiness: 0, Curiosity: 0.389,
				})
				So(got.Valid(), ShouldBeTrue)
				So(got.Dominant(), ShouldEqual, "happiness")
			})
		})
	})

	Convey("Given an all-zero vector", t, func() {
		_, err := emotion.Normalize(emotion.Scores{})

		Convey("Then there is no signal", func() {
			So(errors.Is(err, emotion.ErrNoSignal), ShouldBeTrue)
		})
	})

	Convey("Given negative and non-finite components", t, func() {
		raw := emotion.Scores{Happiness: -3, Sadness: math.NaN(), Anxiety: math.Inf(1), Sleepiness: 1, Curiosity: 1}
		got, err := emotion.Normalize(raw)

		Convey("Then they count as zero", func() {
			So(err, ShouldBeNil)
			So(got, ShouldResemble, emotion.Scores{Sleepiness: 0.5, Curiosity: 0.5})
		})
	})

	Convey("Given only invalid components", t, func() {
		_, err := emotion.Normalize(emotion.Scores{Happiness: -1, Sadness: math.NaN()})

		Convey("Then there is no signal", func() {
			So(errors.Is(err, emotion.ErrNoSignal), ShouldBeTrue)
		})
	})

	Convey("Given many random non-negative vectors", t, func() {
		rng := rand.New(rand.NewSource(7))

		Convey("Then every normalized result is a valid distribution", func() {
			for i := 0; i < 1000; i++ {
				raw := emotion.FromSlice([]float64{
					rng.Float64() * 10, rng.Float64(), rng.Float64() * 3, rng.Float64(), rng.Float64() * 0.01,
				})
				got, err := emotion.Normalize(raw)
				So(err, ShouldBeNil)
				So(got.Valid(), ShouldBeTrue)
			}
		})
	})
}

func TestRound(t *testing.T) {
	Convey("Round keeps three decimals half away from zero", t, func() {
		So(emotion.Round(0.1235), ShouldEqual, 0.124)
		So(emotion.Round(0.1234), ShouldEqual, 0.123)
		So(emotion.Round(1.0/3.0), ShouldEqual, 0.333)
		So(emotion.Round(0.0005), ShouldEqual, 0.001)
	})
}

func TestScoresHelpers(t *testing.T) {
	Convey("Given the uniform vector", t, func() {
		u := emotion.Uniform()

		Convey("Then it is valid and ties resolve to the first emotion", func() {
			So(u.Valid(), ShouldBeTrue)
			So(u.Sum(), ShouldAlmostEqual, 1.0, 1e-9)
			So(u.Dominant(), ShouldEqual, "happiness")
		})
	})

	Convey("Given vectors that are not distributions", t, func() {
		So(emotion.Scores{Happiness: 0.5}.Valid(), ShouldBeFalse)
		So(emotion.Scores{Happiness: 1.2, Sadness: -0.2}.Valid(), ShouldBeFalse)
		So(emotion.Scores{Happiness: 0.12345, Sadness: 0.87655}.Valid(), ShouldBeFalse)
	})

	Convey("FromSlice and Values keep canonical order", t, func() {
		s := emotion.FromSlice([]float64{1, 2, 3, 4, 5, 6})
		So(s.Values(), ShouldResemble, [5]float64{1, 2, 3, 4, 5})
		So(s.Dominant(), ShouldEqual, "curiosity")
	})
}
