// Package srs implements the SM-2 style spaced repetition scheduler used for letter,
// diacritic pattern and word practice.
package srs

import (
	"encoding"
	"encoding/json"
	"fmt"
)

const (
	// Day is one day in milliseconds.
	Day int64 = 24 * 60 * 60 * 1000

	// MinInterval is the shortest non-zero review interval (1 day).
	MinInterval = Day
	// MaxInterval is the longest review interval (365 days).
	MaxInterval = 365 * Day

	// MinEaseFactor is the floor applied after every ease factor adjustment.
	MinEaseFactor = 1.3
	// InitialEaseFactor is the ease factor of a freshly created item.
	InitialEaseFactor = 2.5

	// LearnedThreshold is the consecutive correct count at which an item counts as learned.
	LearnedThreshold = 5
)

// ReviewItem is one learnable unit subject to spaced repetition.
// All timestamps and intervals are in milliseconds.
type ReviewItem struct {
	ID                 string   `json:"id"`
	Type               ItemType `json:"type"`
	Content            string   `json:"content"`
	Level              int      `json:"level"`
	LastReviewed       int64    `json:"last_reviewed"` // 0 if never reviewed
	NextReview         int64    `json:"next_review"`
	Interval           int64    `json:"interval"`
	EaseFactor         float64  `json:"ease_factor"`
	ConsecutiveCorrect int      `json:"consecutive_correct"`
}

// StatusReport summarizes where an item stands relative to now.
type StatusReport struct {
	DaysUntilReview int     `json:"days_until_review"`
	Status          Status  `json:"status"`
	Progress        float64 `json:"progress"` // percentage toward LearnedThreshold
}

// ItemType is the category of a review item.
type ItemType int

const (
	Letter ItemType = iota + 1
	Pattern
	Word
)

var (
	itemTypeNames = [...]string{Letter: "letter", Pattern: "pattern", Word: "word"}
	itemTypeByName = map[string]ItemType{
		"letter":  Letter,
		"pattern": Pattern,
		"word":    Word,
	}
)

var (
	_ fmt.Stringer             = ItemType(0)
	_ json.Marshaler           = ItemType(0)
	_ json.Unmarshaler         = (*ItemType)(nil)
	_ encoding.TextMarshaler   = ItemType(0)
	_ encoding.TextUnmarshaler = (*ItemType)(nil)
)

// IsValid reports whether t is one of letter, pattern or word.
func (t ItemType) IsValid() bool {
	return t >= Letter && t <= Word
}

func (t ItemType) String() string {
	if t.IsValid() {
		return itemTypeNames[t]
	}
	return fmt.Sprintf("ItemType(%d)", int(t))
}

// ParseItemType converts "letter", "pattern" or "word" to an ItemType.
func ParseItemType(s string) (ItemType, error) {
	v, ok := itemTypeByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidItemType, s)
	}
	return v, nil
}

// MarshalText implements encoding.TextMarshaler.
func (t ItemType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidItemType, int(t))
	}
	return []byte(itemTypeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ItemType) UnmarshalText(text []byte) error {
	v, err := ParseItemType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalJSON implements json.Marshaler. ItemType serializes as a JSON string.
func (t ItemType) MarshalJSON() ([]byte, error) {
	text, err := t.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *ItemType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidItemType, data)
	}
	return t.UnmarshalText([]byte(s))
}

// Quality is the learner's 0-5 recall rating: 5 is perfect recall, 0 is complete failure.
type Quality int

const (
	QualityBlackout Quality = iota // no recall at all
	QualityWrong                   // wrong, but the answer felt familiar
	QualityHard                    // wrong, the answer seemed easy once shown
	QualityDifficult               // correct after serious effort
	QualityHesitant                // correct after some hesitation
	QualityPerfect                 // correct without hesitation
)

// PassingQuality is the lowest rating that counts as a successful recall.
const PassingQuality = QualityDifficult

// IsValid reports whether q is within 0..5.
func (q Quality) IsValid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// Passed reports whether q counts as a successful recall.
func (q Quality) Passed() bool {
	return q >= PassingQuality
}

var qualityNames = [...]string{
	QualityBlackout:  "blackout",
	QualityWrong:     "wrong",
	QualityHard:      "hard",
	QualityDifficult: "difficult",
	QualityHesitant:  "hesitant",
	QualityPerfect:   "perfect",
}

var (
	_ fmt.Stringer             = Quality(0)
	_ json.Marshaler           = Quality(0)
	_ json.Unmarshaler         = (*Quality)(nil)
	_ encoding.TextMarshaler   = Quality(0)
	_ encoding.TextUnmarshaler = (*Quality)(nil)
)

func (q Quality) String() string {
	if q.IsValid() {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ParseQuality accepts a rating name ("blackout" through "perfect") or its digit.
func ParseQuality(s string) (Quality, error) {
	for q, name := range qualityNames {
		if s == name {
			return Quality(q), nil
		}
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '5' {
		return Quality(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, s)
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	if !q.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}
	return []byte(qualityNames[q]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quality) UnmarshalText(text []byte) error {
	v, err := ParseQuality(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// MarshalJSON implements json.Marshaler. Quality is a JSON number, as learners submit it.
func (q Quality) MarshalJSON() ([]byte, error) {
	if !q.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, int(q))
	}
	return json.Marshal(int(q))
}

// UnmarshalJSON implements json.Unmarshaler. Both the number and the name are accepted.
func (q *Quality) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if v := Quality(n); v.IsValid() {
			*q = v
			return nil
		}
		return fmt.Errorf("%w: %d", ErrInvalidQuality, n)
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuality, data)
	}
	return q.UnmarshalText([]byte(s))
}

// Status is the derived review state of an item.
type Status string

const (
	StatusDue      Status = "due"
	StatusUpcoming Status = "upcoming"
	StatusLearned  Status = "learned"
)

var (
	_ fmt.Stringer             = Status("")
	_ json.Unmarshaler         = (*Status)(nil)
	_ encoding.TextMarshaler   = Status("")
	_ encoding.TextUnmarshaler = (*Status)(nil)
)

// IsValid reports whether s is due, upcoming or learned.
func (s Status) IsValid() bool {
	switch s {
	case StatusDue, StatusUpcoming, StatusLearned:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// MarshalText implements encoding.TextMarshaler. encoding/json uses it for the wire form.
func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	v := Status(text)
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(text))
	}
	*s = v
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, data)
	}
	return s.UnmarshalText([]byte(str))
}

// Phase is the position of an item in its learning cycle. It is derived, never stored.
type Phase string

const (
	PhaseNew      Phase = "new"
	PhaseLearning Phase = "learning"
	PhaseLearned  Phase = "learned"
)

var (
	_ fmt.Stringer             = Phase("")
	_ json.Unmarshaler         = (*Phase)(nil)
	_ encoding.TextMarshaler   = Phase("")
	_ encoding.TextUnmarshaler = (*Phase)(nil)
)

// IsValid reports whether p is new, learning or learned.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseNew, PhaseLearning, PhaseLearned:
		return true
	}
	return false
}

func (p Phase) String() string {
	return string(p)
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhase, string(p))
	}
	return []byte(p), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	v := Phase(text)
	if !v.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPhase, string(text))
	}
	*p = v
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPhase, data)
	}
	return p.UnmarshalText([]byte(str))
}
