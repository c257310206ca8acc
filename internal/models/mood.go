package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/diary/internal/common"
)

// Mood tags how the author felt about the day.
type Mood string

const (
	MoodNeutral      Mood = "Neutral"
	MoodHappy        Mood = "Happy"
	MoodAngry        Mood = "Angry"
	MoodBored        Mood = "Bored"
	MoodCalm         Mood = "Calm"
	MoodDepressed    Mood = "Depressed"
	MoodDisappointed Mood = "Disappointed"
	MoodHumorous     Mood = "Humorous"
	MoodLonely       Mood = "Lonely"
	MoodMysterious   Mood = "Mysterious"
	MoodRomantic     Mood = "Romantic"
	MoodShameful     Mood = "Shameful"
	MoodAwful        Mood = "Awful"
	MoodSurprised    Mood = "Surprised"
	MoodSuspicious   Mood = "Suspicious"
	MoodTense        Mood = "Tense"
)

// Moods lists every mood in picker order.
var Moods = []Mood{
	MoodNeutral, MoodHappy, MoodAngry, MoodBored, MoodCalm, MoodDepressed,
	MoodDisappointed, MoodHumorous, MoodLonely, MoodMysterious, MoodRomantic,
	MoodShameful, MoodAwful, MoodSurprised, MoodSuspicious, MoodTense,
}

// ParseMood matches name case-insensitively. An empty name is Neutral.
func ParseMood(name string) (Mood, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return MoodNeutral, nil
	}
	for _, m := range Moods {
		if strings.EqualFold(string(m), name) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrInvalidMood, name)
}

// Valid reports whether m is one of the canonical moods.
func (m Mood) Valid() bool {
	for _, known := range Moods {
		if m == known {
			return true
		}
	}
	return false
}
