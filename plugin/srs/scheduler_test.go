package srs

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestConstants(t *testing.T) {
	if MinInterval != 86400000 {
		t.Errorf("MinInterval = %d, want 86400000", MinInterval)
	}
	if MaxInterval != 31536000000 {
		t.Errorf("MaxInterval = %d, want 31536000000", MaxInterval)
	}
	if MinEaseFactor != 1.3 {
		t.Errorf("MinEaseFactor = %f, want 1.3", MinEaseFactor)
	}
	if InitialEaseFactor != 2.5 {
		t.Errorf("InitialEaseFactor = %f, want 2.5", InitialEaseFactor)
	}
}

func TestNewReviewItem(t *testing.T) {
	item := NewReviewItem("alif", Letter, "ا", 1, testNow)

	if item.ID != "alif" || item.Type != Letter || item.Content != "ا" || item.Level != 1 {
		t.Errorf("identity fields not preserved: %+v", item)
	}
	if item.LastReviewed != 0 {
		t.Errorf("LastReviewed = %d, want 0", item.LastReviewed)
	}
	if item.NextReview != testNow.UnixMilli() {
		t.Errorf("NextReview = %d, want %d", item.NextReview, testNow.UnixMilli())
	}
	if item.Interval != 0 {
		t.Errorf("Interval = %d, want 0", item.Interval)
	}
	if item.EaseFactor != 2.5 {
		t.Errorf("EaseFactor = %f, want 2.5", item.EaseFactor)
	}
	if item.ConsecutiveCorrect != 0 {
		t.Errorf("ConsecutiveCorrect = %d, want 0", item.ConsecutiveCorrect)
	}
}

func TestNewReviewItem_StatusRoundTrip(t *testing.T) {
	item := NewReviewItem("ba", Letter, "ب", 1, testNow)
	report := ReviewStatus(item, testNow)

	if report.Status != StatusDue {
		t.Errorf("Status = %s, want due", report.Status)
	}
	if report.Progress != 0 {
		t.Errorf("Progress = %f, want 0", report.Progress)
	}
	if report.DaysUntilReview != 0 {
		t.Errorf("DaysUntilReview = %d, want 0", report.DaysUntilReview)
	}
}

func TestCalculateNextReview_FirstPerfectRecall(t *testing.T) {
	item := NewReviewItem("alif", Letter, "ا", 1, testNow)

	got, err := CalculateNextReview(item, QualityPerfect, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Interval != 86400000 {
		t.Errorf("Interval = %d, want 86400000", got.Interval)
	}
	if got.ConsecutiveCorrect != 1 {
		t.Errorf("ConsecutiveCorrect = %d, want 1", got.ConsecutiveCorrect)
	}
	if !approxEqual(got.EaseFactor, 2.6) {
		t.Errorf("EaseFactor = %f, want 2.6", got.EaseFactor)
	}
}

func TestCalculateNextReview_FailureResets(t *testing.T) {
	item := ReviewItem{
		ID:                 "ta",
		Type:               Letter,
		Content:            "ت",
		Interval:           86400000,
		EaseFactor:         2.5,
		ConsecutiveCorrect: 1,
	}

	got, err := CalculateNextReview(item, QualityHard, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Interval != 86400000 {
		t.Errorf("Interval = %d, want 86400000 (reset to min)", got.Interval)
	}
	if got.ConsecutiveCorrect != 0 {
		t.Errorf("ConsecutiveCorrect = %d, want 0", got.ConsecutiveCorrect)
	}
	if got.EaseFactor >= 2.5 {
		t.Errorf("EaseFactor = %f, want < 2.5", got.EaseFactor)
	}
	if !approxEqual(got.EaseFactor, 2.18) {
		t.Errorf("EaseFactor = %f, want 2.18", got.EaseFactor)
	}
}

func TestCalculateNextReview_IntervalCappedAtOneYear(t *testing.T) {
	item := ReviewItem{
		ID:                 "tha",
		Interval:           315360000000,
		EaseFactor:         2.5,
		ConsecutiveCorrect: 9,
	}

	got, err := CalculateNextReview(item, QualityPerfect, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Interval > 31536000000 {
		t.Errorf("Interval = %d, exceeds 365 day cap", got.Interval)
	}
	if got.Interval != MaxInterval {
		t.Errorf("Interval = %d, want %d", got.Interval, MaxInterval)
	}
}

func TestCalculateNextReview_SubDayIntervalClamped(t *testing.T) {
	item := ReviewItem{ID: "jim", Interval: 1000, EaseFactor: 2.5}

	got, err := CalculateNextReview(item, QualityHesitant, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Interval != MinInterval {
		t.Errorf("Interval = %d, want %d", got.Interval, MinInterval)
	}
}

func TestCalculateNextReview_GrowsByEaseFactor(t *testing.T) {
	tests := []struct {
		name     string
		quality  Quality
		interval int64
		ef       float64
	}{
		{"difficult recall", QualityDifficult, 3 * Day, 2.5},
		{"hesitant recall", QualityHesitant, 6 * Day, 2.5},
		{"perfect recall", QualityPerfect, 10 * Day, 1.3},
		{"perfect recall high ease", QualityPerfect, 40 * Day, 3.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := ReviewItem{ID: "x", Interval: tt.interval, EaseFactor: tt.ef, ConsecutiveCorrect: 2}
			got, err := CalculateNextReview(item, tt.quality, testNow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := int64(math.Min(math.Round(float64(tt.interval)*got.EaseFactor), float64(MaxInterval)))
			if got.Interval != want {
				t.Errorf("Interval = %d, want %d", got.Interval, want)
			}
			if got.EaseFactor >= 1 && got.Interval < tt.interval {
				t.Errorf("Interval shrank from %d to %d", tt.interval, got.Interval)
			}
			if got.ConsecutiveCorrect != 3 {
				t.Errorf("ConsecutiveCorrect = %d, want 3", got.ConsecutiveCorrect)
			}
		})
	}
}

func TestCalculateNextReview_Invariants(t *testing.T) {
	starts := []ReviewItem{
		NewReviewItem("new", Word, "بَيْت", 2, testNow),
		{ID: "weak", Interval: 5 * Day, EaseFactor: 1.3, ConsecutiveCorrect: 0},
		{ID: "strong", Interval: 200 * Day, EaseFactor: 2.9, ConsecutiveCorrect: 7},
	}

	for _, start := range starts {
		for q := QualityBlackout; q <= QualityPerfect; q++ {
			got, err := CalculateNextReview(start, q, testNow)
			if err != nil {
				t.Fatalf("%s q=%d: unexpected error: %v", start.ID, q, err)
			}
			if got.EaseFactor < MinEaseFactor {
				t.Errorf("%s q=%d: EaseFactor = %f, below floor", start.ID, q, got.EaseFactor)
			}
			if got.NextReview != got.LastReviewed+got.Interval {
				t.Errorf("%s q=%d: NextReview %d != LastReviewed %d + Interval %d",
					start.ID, q, got.NextReview, got.LastReviewed, got.Interval)
			}
			if got.LastReviewed != testNow.UnixMilli() {
				t.Errorf("%s q=%d: LastReviewed = %d, want now", start.ID, q, got.LastReviewed)
			}
			if got.Interval < MinInterval || got.Interval > MaxInterval {
				t.Errorf("%s q=%d: Interval %d out of range", start.ID, q, got.Interval)
			}
			if q < 3 && (got.Interval != MinInterval || got.ConsecutiveCorrect != 0) {
				t.Errorf("%s q=%d: failed recall must reset, got interval=%d streak=%d",
					start.ID, q, got.Interval, got.ConsecutiveCorrect)
			}
			if got.ID != start.ID || got.Type != start.Type || got.Content != start.Content || got.Level != start.Level {
				t.Errorf("%s q=%d: identity fields changed", start.ID, q)
			}
		}
	}
}

func TestCalculateNextReview_DoesNotMutateInput(t *testing.T) {
	item := ReviewItem{ID: "dal", Interval: 4 * Day, EaseFactor: 2.2, ConsecutiveCorrect: 3, NextReview: 42}
	before := item

	if _, err := CalculateNextReview(item, QualityPerfect, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item != before {
		t.Errorf("input mutated: %+v, want %+v", item, before)
	}
}

func TestCalculateNextReview_RejectsOutOfRangeQuality(t *testing.T) {
	item := NewReviewItem("dhal", Letter, "ذ", 1, testNow)

	for _, q := range []Quality{-1, 6, 100} {
		_, err := CalculateNextReview(item, q, testNow)
		if !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("quality %d: err = %v, want ErrInvalidQuality", q, err)
		}
	}
}

func TestCalculateNextReview_EaseFactorAdjustment(t *testing.T) {
	tests := []struct {
		quality Quality
		want    float64
	}{
		{QualityBlackout, 1.7},
		{QualityWrong, 1.96},
		{QualityHard, 2.18},
		{QualityDifficult, 2.36},
		{QualityHesitant, 2.5},
		{QualityPerfect, 2.6},
	}

	for _, tt := range tests {
		item := ReviewItem{ID: "ra", Interval: Day, EaseFactor: 2.5}
		got, err := CalculateNextReview(item, tt.quality, testNow)
		if err != nil {
			t.Fatalf("quality %d: unexpected error: %v", tt.quality, err)
		}
		if !approxEqual(got.EaseFactor, tt.want) {
			t.Errorf("quality %d: EaseFactor = %f, want %f", tt.quality, got.EaseFactor, tt.want)
		}
	}
}

func TestCalculateNextReview_EaseFactorFloor(t *testing.T) {
	item := ReviewItem{ID: "zay", Interval: Day, EaseFactor: 1.35}

	got, err := CalculateNextReview(item, QualityBlackout, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.EaseFactor != MinEaseFactor {
		t.Errorf("EaseFactor = %f, want %f", got.EaseFactor, MinEaseFactor)
	}
}

func TestDueItems(t *testing.T) {
	nowMs := testNow.UnixMilli()
	items := []ReviewItem{
		{ID: "future", NextReview: nowMs + Day},
		{ID: "now", NextReview: nowMs},
		{ID: "old", NextReview: nowMs - 3*Day},
		{ID: "older", NextReview: nowMs - 5*Day},
		{ID: "yesterday", NextReview: nowMs - Day},
	}
	original := append([]ReviewItem(nil), items...)

	due := DueItems(items, testNow)

	wantOrder := []string{"older", "old", "yesterday", "now"}
	if len(due) != len(wantOrder) {
		t.Fatalf("len(due) = %d, want %d", len(due), len(wantOrder))
	}
	for i, id := range wantOrder {
		if due[i].ID != id {
			t.Errorf("due[%d] = %s, want %s", i, due[i].ID, id)
		}
	}
	for i := 1; i < len(due); i++ {
		if due[i-1].NextReview > due[i].NextReview {
			t.Errorf("due not sorted at %d", i)
		}
	}
	for i := range items {
		if items[i] != original[i] {
			t.Errorf("input reordered or mutated at %d", i)
		}
	}
}

func TestDueItems_Empty(t *testing.T) {
	if due := DueItems(nil, testNow); len(due) != 0 {
		t.Errorf("len(due) = %d, want 0", len(due))
	}
}

func TestReviewStatus(t *testing.T) {
	nowMs := testNow.UnixMilli()
	tests := []struct {
		name         string
		item         ReviewItem
		wantStatus   Status
		wantDays     int
		wantProgress float64
	}{
		{"overdue with long streak is still due", ReviewItem{NextReview: nowMs - Day, ConsecutiveCorrect: 8}, StatusDue, 0, 100},
		{"exactly now is due", ReviewItem{NextReview: nowMs, ConsecutiveCorrect: 2}, StatusDue, 0, 40},
		{"learned", ReviewItem{NextReview: nowMs + 10*Day, ConsecutiveCorrect: 5}, StatusLearned, 10, 100},
		{"upcoming partial day rounds up", ReviewItem{NextReview: nowMs + Day + 1, ConsecutiveCorrect: 1}, StatusUpcoming, 2, 20},
		{"upcoming one millisecond", ReviewItem{NextReview: nowMs + 1, ConsecutiveCorrect: 3}, StatusUpcoming, 1, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReviewStatus(tt.item, testNow)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.DaysUntilReview != tt.wantDays {
				t.Errorf("DaysUntilReview = %d, want %d", got.DaysUntilReview, tt.wantDays)
			}
			if !approxEqual(got.Progress, tt.wantProgress) {
				t.Errorf("Progress = %f, want %f", got.Progress, tt.wantProgress)
			}
		})
	}
}

func TestPhaseOf(t *testing.T) {
	if p := PhaseOf(NewReviewItem("a", Letter, "ا", 1, testNow)); p != PhaseNew {
		t.Errorf("PhaseOf(new) = %s, want new", p)
	}
	if p := PhaseOf(ReviewItem{Interval: Day, ConsecutiveCorrect: 2}); p != PhaseLearning {
		t.Errorf("PhaseOf(learning) = %s, want learning", p)
	}
	if p := PhaseOf(ReviewItem{Interval: 30 * Day, ConsecutiveCorrect: 5}); p != PhaseLearned {
		t.Errorf("PhaseOf(learned) = %s, want learned", p)
	}
}

func TestLearnedItemRevertsOnFailure(t *testing.T) {
	item := ReviewItem{ID: "sin", Interval: 60 * Day, EaseFactor: 2.7, ConsecutiveCorrect: 6}

	got, err := CalculateNextReview(item, QualityWrong, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := PhaseOf(got); p != PhaseLearning {
		t.Errorf("PhaseOf = %s, want learning", p)
	}
}

func TestItemTypeJSON(t *testing.T) {
	data, err := json.Marshal(ReviewItem{ID: "a", Type: Pattern})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "pattern" {
		t.Errorf("type = %v, want pattern", decoded["type"])
	}

	var it ItemType
	if err := json.Unmarshal([]byte(`"verse"`), &it); !errors.Is(err, ErrInvalidItemType) {
		t.Errorf("err = %v, want ErrInvalidItemType", err)
	}
	if _, err := json.Marshal(ItemType(9)); err == nil {
		t.Error("expected error marshaling invalid item type")
	}
}

func TestQualityEncoding(t *testing.T) {
	if got := QualityHesitant.String(); got != "hesitant" {
		t.Errorf("String() = %q, want hesitant", got)
	}
	if got := Quality(7).String(); got != "Quality(7)" {
		t.Errorf("String() = %q, want Quality(7)", got)
	}

	data, err := json.Marshal(QualityPerfect)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "5" {
		t.Errorf("json = %s, want 5", data)
	}

	for _, in := range []string{`4`, `"hesitant"`, `"4"`} {
		var q Quality
		if err := json.Unmarshal([]byte(in), &q); err != nil {
			t.Errorf("unmarshal %s: %v", in, err)
			continue
		}
		if q != QualityHesitant {
			t.Errorf("unmarshal %s = %v, want hesitant", in, q)
		}
	}

	for _, in := range []string{`6`, `-1`, `"sublime"`, `"45"`, `true`} {
		var q Quality
		if err := json.Unmarshal([]byte(in), &q); !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("unmarshal %s err = %v, want ErrInvalidQuality", in, err)
		}
	}
	if _, err := Quality(-1).MarshalText(); !errors.Is(err, ErrInvalidQuality) {
		t.Errorf("MarshalText err = %v, want ErrInvalidQuality", err)
	}
	if _, err := json.Marshal(Quality(9)); err == nil {
		t.Error("expected error marshaling invalid quality")
	}
}

func TestStatusAndPhaseJSON(t *testing.T) {
	data, err := json.Marshal(StatusReport{Status: StatusLearned, Progress: 100})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var report StatusReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.Status != StatusLearned {
		t.Errorf("status = %v, want learned", report.Status)
	}

	var s Status
	if err := json.Unmarshal([]byte(`"overdue"`), &s); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
	if _, err := json.Marshal(StatusReport{}); err == nil {
		t.Error("expected error marshaling an empty status")
	}

	var p Phase
	if err := json.Unmarshal([]byte(`"learning"`), &p); err != nil || p != PhaseLearning {
		t.Errorf("phase = %v, err = %v, want learning", p, err)
	}
	if err := json.Unmarshal([]byte(`"mastered"`), &p); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("err = %v, want ErrInvalidPhase", err)
	}
	if err := json.Unmarshal([]byte(`3`), &p); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("err = %v, want ErrInvalidPhase", err)
	}
	if got := PhaseLearned.String(); got != "learned" {
		t.Errorf("String() = %q, want learned", got)
	}
}
