package rotation

import (
	"testing"
	"time"

	"github.com/jmckenna/chorewheel/internal/model"
)

func ts(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestDue(t *testing.T) {
	// 2026-01-04 and 2026-01-11 are Sundays; weeks 1 and 2 of the year.
	sundayOdd := ts(2026, time.January, 4, 0)
	sundayEven := ts(2026, time.January, 11, 0)
	wednesday := ts(2026, time.January, 7, 0)

	tests := []struct {
		name string
		freq model.Frequency
		last *time.Time
		now  time.Time
		want bool
	}{
		{"daily never reset", model.FreqDaily, nil, wednesday, true},
		{"daily reset yesterday", model.FreqDaily, ptr(ts(2026, time.January, 6, 23)), wednesday, true},
		{"daily already reset today", model.FreqDaily, ptr(ts(2026, time.January, 7, 0)), wednesday.Add(8 * time.Hour), false},

		{"weekly on sunday", model.FreqWeekly, nil, sundayOdd, true},
		{"weekly on wednesday", model.FreqWeekly, nil, wednesday, false},
		{"weekly already reset this sunday", model.FreqWeekly, ptr(sundayOdd), sundayOdd.Add(6 * time.Hour), false},
		{"weekly reset last sunday", model.FreqWeekly, ptr(sundayOdd), sundayEven, true},

		{"biweekly odd week", model.FreqBiweekly, nil, sundayOdd, false},
		{"biweekly even week", model.FreqBiweekly, nil, sundayEven, true},
		{"biweekly even week non-sunday", model.FreqBiweekly, nil, ts(2026, time.January, 12, 0), false},
		{"biweekly already reset", model.FreqBiweekly, ptr(sundayEven), sundayEven.Add(time.Hour), false},

		{"monthly on the 1st", model.FreqMonthly, nil, ts(2026, time.February, 1, 0), true},
		{"monthly mid-month", model.FreqMonthly, nil, ts(2026, time.February, 15, 0), false},
		{"monthly already reset", model.FreqMonthly, ptr(ts(2026, time.February, 1, 0)), ts(2026, time.February, 1, 9), false},

		{"quarterly april 1st", model.FreqQuarterly, nil, ts(2026, time.April, 1, 0), true},
		{"quarterly july 1st", model.FreqQuarterly, nil, ts(2026, time.July, 1, 0), true},
		{"quarterly february 1st", model.FreqQuarterly, nil, ts(2026, time.February, 1, 0), false},
		{"quarterly april 2nd", model.FreqQuarterly, nil, ts(2026, time.April, 2, 0), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Due(tc.freq, tc.last, tc.now); got != tc.want {
				t.Errorf("Due(%s, %v, %s) = %v, want %v", tc.freq, tc.last, tc.now.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}

func TestDueSetAndAnyDue(t *testing.T) {
	wednesday := ts(2026, time.January, 7, 8)
	records := map[model.Frequency]model.ResetRecord{
		model.FreqDaily:  {Frequency: model.FreqDaily, LastReset: ptr(ts(2026, time.January, 6, 0))},
		model.FreqWeekly: {Frequency: model.FreqWeekly},
	}

	due := DueSet(records, wednesday)
	if !due[model.FreqDaily] {
		t.Error("daily should be due on a new day")
	}
	if due[model.FreqWeekly] {
		t.Error("weekly should not be due on a wednesday")
	}
	if !AnyDue(due) {
		t.Error("AnyDue = false with daily due")
	}

	sameDay := map[model.Frequency]model.ResetRecord{
		model.FreqDaily: {Frequency: model.FreqDaily, LastReset: ptr(wednesday)},
	}
	if AnyDue(DueSet(sameDay, wednesday.Add(time.Hour))) {
		t.Error("AnyDue = true when everything already ran today")
	}
}

func TestStartOfWeek(t *testing.T) {
	wednesday := time.Date(2026, time.January, 7, 15, 30, 0, 0, time.UTC)
	want := time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC)
	if got := StartOfWeek(wednesday); !got.Equal(want) {
		t.Errorf("StartOfWeek(wed) = %v, want %v", got, want)
	}

	sunday := time.Date(2026, time.January, 4, 23, 0, 0, 0, time.UTC)
	if got := StartOfWeek(sunday); !got.Equal(want) {
		t.Errorf("StartOfWeek(sun) = %v, want %v", got, want)
	}
}
