package cook

import (
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/stats"
)

func rangeEvents() []model.CookedEvent {
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	return CookReviews([]model.ReviewRecord{
		{Timestamp: base.Add(-time.Hour), SubjectID: 1, SRSStage: 1},
		{Timestamp: base.Add(9 * time.Hour), SubjectID: 2, SRSStage: 1},
		{Timestamp: base.Add(33 * time.Hour), SubjectID: 3, SRSStage: 2},
		{Timestamp: base.Add(57 * time.Hour), SubjectID: 4, SRSStage: 2},
		{Timestamp: base.Add(80 * time.Hour), SubjectID: 5, SRSStage: 3},
	})
}

func TestAggregateRangeFiltersAndFolds(t *testing.T) {
	clock := stats.NewDayClock(0, time.UTC)
	now := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)

	sum := AggregateRange(rangeEvents(), from, to, clock, now)
	if sum.Counts["reviews"] != 3 {
		t.Fatalf("expected 3 reviews, got %d", sum.Counts["reviews"])
	}
	if got := sum.IDs["reviews-ids"]; !reflect.DeepEqual(got, []int64{2, 3, 4}) {
		t.Fatalf("unexpected ids: %v", got)
	}
	if len(sum.Minimap) != 3 {
		t.Fatalf("expected 3 minimap events, got %d", len(sum.Minimap))
	}
	for _, ev := range sum.Minimap {
		if ev.Time.Year() != 2024 || ev.Time.Month() != 4 || ev.Time.Day() != 10 {
			t.Fatalf("minimap event not on anchor day: %v", ev.Time)
		}
	}
	if sum.Hours[9] != 3 {
		t.Fatalf("expected 3 events at 09:00, got %v", sum.Hours)
	}
}

func TestAggregateRangeEndpointOrder(t *testing.T) {
	clock := stats.NewDayClock(0, time.UTC)
	now := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	a := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 4, 4, 0, 0, 0, 0, time.UTC)

	forward := AggregateRange(rangeEvents(), a, b, clock, now)
	backward := AggregateRange(rangeEvents(), b, a, clock, now)
	if !reflect.DeepEqual(forward, backward) {
		t.Fatalf("expected identical summaries:\n%+v\n%+v", forward, backward)
	}
	if forward.Counts["reviews"] != 4 {
		t.Fatalf("expected 4 reviews, got %d", forward.Counts["reviews"])
	}
}

func TestAggregateRangeEmpty(t *testing.T) {
	clock := stats.NewDayClock(0, time.UTC)
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sum := AggregateRange(rangeEvents(), day, day, clock, day)
	if len(sum.Counts) != 0 || len(sum.IDs) != 0 || len(sum.Minimap) != 0 {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
}

func TestDetailBreakdown(t *testing.T) {
	clock := stats.NewDayClock(0, time.UTC)
	now := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	events := CookReviews([]model.ReviewRecord{
		{Timestamp: base.Add(time.Hour), SubjectID: 1, SRSStage: 4},
		{Timestamp: base.Add(2 * time.Hour), SubjectID: 2, SRSStage: 5, IncorrectReading: 1},
		{Timestamp: base.Add(3 * time.Hour), SubjectID: 3, SRSStage: 8},
	})
	subjects := map[int64]model.Subject{
		1: {ID: 1, Type: "radical", Level: 1},
		2: {ID: 2, Type: "kanji", Level: 12},
		3: {ID: 3, Type: "vocabulary", Level: 12},
	}
	sum := AggregateRange(events, base, base, clock, now)
	d := Detail(sum, model.KindReviews, subjects)

	if d.Items != 3 {
		t.Fatalf("expected 3 items, got %d", d.Items)
	}
	if d.Levels[1] != 1 || d.Levels[12] != 2 || d.LevelBlocks[0] != 1 || d.LevelBlocks[1] != 2 {
		t.Fatalf("unexpected levels: %v %v", d.Levels, d.LevelBlocks)
	}
	if d.Types != (ItemTypes{Radicals: 1, Kanji: 1, Vocabulary: 1}) {
		t.Fatalf("unexpected types: %+v", d.Types)
	}
	// 4->5, 5->3, 8->9
	if d.NetProgress != 0 {
		t.Fatalf("expected net progress 0, got %d", d.NetProgress)
	}
	if d.Groups[0] != (BeforeAfter{Before: 1, After: 1}) || d.Groups[1] != (BeforeAfter{Before: 1, After: 1}) {
		t.Fatalf("unexpected groups: %+v", d.Groups)
	}
	if d.Groups[3] != (BeforeAfter{Before: 1}) || d.Groups[4] != (BeforeAfter{After: 1}) {
		t.Fatalf("unexpected groups: %+v", d.Groups)
	}
	if d.Pass != (Ratio{Right: 2, Wrong: 1, Accuracy: 66}) {
		t.Fatalf("unexpected pass ratio: %+v", d.Pass)
	}
	if d.Answers != (Ratio{Right: 5, Wrong: 1, Accuracy: 83}) {
		t.Fatalf("unexpected answers ratio: %+v", d.Answers)
	}
}

func TestDetailWithoutReviews(t *testing.T) {
	d := Detail(model.RangeSummary{}, model.KindLessons, nil)
	if d.Items != 0 || d.Pass.Accuracy != 0 || d.Answers.Accuracy != 0 {
		t.Fatalf("unexpected breakdown: %+v", d)
	}
}

func TestAggregateRangeMatchesBucketWithDayStart(t *testing.T) {
	clock := stats.NewDayClock(4, time.UTC)
	now := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	events := CookReviews([]model.ReviewRecord{
		{Timestamp: time.Date(2024, 4, 4, 12, 0, 0, 0, time.UTC), SubjectID: 4, SRSStage: 1},
		{Timestamp: time.Date(2024, 4, 5, 3, 0, 0, 0, time.UTC), SubjectID: 7, SRSStage: 1},
		{Timestamp: time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC), SubjectID: 5, SRSStage: 1},
		{Timestamp: time.Date(2024, 4, 6, 2, 0, 0, 0, time.UTC), SubjectID: 6, SRSStage: 1},
	})
	days := Index(BucketByDay(events, clock))

	cases := []struct {
		day  time.Time
		want []int64
	}{
		{time.Date(2024, 4, 4, 0, 0, 0, 0, time.UTC), []int64{4, 7}},
		{time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC), []int64{5, 6}},
	}
	for _, tc := range cases {
		sum := AggregateRange(events, tc.day, tc.day, clock, now)
		if !sum.Start.Equal(tc.day) || !sum.End.Equal(tc.day) {
			t.Fatalf("%s: range moved to %v - %v", tc.day.Format(stats.DayKeyLayout), sum.Start, sum.End)
		}
		got := sum.IDs[IDsKey(model.KindReviews)]
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected ids %v, got %v", tc.day.Format(stats.DayKeyLayout), tc.want, got)
		}
		bucket := days[tc.day.Format(stats.DayKeyLayout)].IDs[IDsKey(model.KindReviews)]
		if !reflect.DeepEqual(got, bucket) {
			t.Fatalf("%s: range ids %v differ from bucket ids %v", tc.day.Format(stats.DayKeyLayout), got, bucket)
		}
	}
}
