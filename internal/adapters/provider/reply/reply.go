// Package reply holds what the generative providers share: the instruction
// prompt and the parser that turns free-text model output into scores.
package reply

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/petspace/petemotion/internal/domain/emotion"
)

// DefaultScore replaces a missing or unusable value in a model reply.
const DefaultScore = 0.2

// Prompt asks a vision-capable model for the five scores as bare JSON.
const Prompt = `Analyze the emotion of the animal (dog or cat) in this image.

Give each of the following five emotions a score between 0.0 and 1.0 (all values must add up to 1.0):

1. happiness: wagging tail, open mouth, relaxed expression
2. sadness: drooping ears, droopy eyes, gloomy expression
3. anxiety: watchful look, tense posture, signs of stress
4. sleepiness: closing eyes, resting posture, languid look
5. curiosity: ears up, focused look, exploring posture

Respond only with JSON in exactly this format:
{
  "happiness": 0.3,
  "sadness": 0.1,
  "anxiety": 0.2,
  "sleepiness": 0.1,
  "curiosity": 0.3
}

If no animal is visible or the image is unclear, distribute evenly (0.2 each).`

var objectPattern = regexp.MustCompile(`\{[^}]*\}`)

// ExtractJSON returns the first brace-delimited block without nested braces.
func ExtractJSON(text string) (string, bool) {
	m := objectPattern.FindString(text)
	return m, m != ""
}

// ParseScores extracts the emotion object from a model reply and normalizes
// it. Each emotion defaults to DefaultScore when it is missing, not numeric or
// negative; numeric strings are accepted and an explicit 0 stays 0.
func ParseScores(text string) (emotion.Scores, error) {
	block, ok := ExtractJSON(text)
	if !ok {
		return emotion.Scores{}, ErrNoJSON
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return emotion.Scores{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	raw := make([]float64, len(emotion.Names))
	for i, name := range emotion.Names {
		raw[i] = number(fields[name])
	}
	return emotion.Normalize(emotion.FromSlice(raw))
}

func number(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return DefaultScore
		}
		f = parsed
	default:
		return DefaultScore
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultScore
	}
	return f
}
