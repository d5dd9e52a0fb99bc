package rotation

import (
	"time"

	"github.com/jmckenna/chorewheel/internal/model"
)

// Due reports whether a frequency class is due for reset at now. A class is
// never due twice on the same calendar day: the stored timestamp's date must
// differ from today's (or be absent entirely).
func Due(freq model.Frequency, lastReset *time.Time, now time.Time) bool {
	switch freq {
	case model.FreqDaily:
		return newDay(lastReset, now)
	case model.FreqWeekly:
		return now.Weekday() == time.Sunday && newDay(lastReset, now)
	case model.FreqBiweekly:
		return now.Weekday() == time.Sunday && weekOfYear(now)%2 == 0 && newDay(lastReset, now)
	case model.FreqMonthly:
		return now.Day() == 1 && newDay(lastReset, now)
	case model.FreqQuarterly:
		if now.Day() != 1 {
			return false
		}
		switch now.Month() {
		case time.January, time.April, time.July, time.October:
			return newDay(lastReset, now)
		}
		return false
	}
	return false
}

// DueSet evaluates every frequency class against the persisted reset records.
func DueSet(records map[model.Frequency]model.ResetRecord, now time.Time) map[model.Frequency]bool {
	due := make(map[model.Frequency]bool, len(model.Frequencies))
	for _, freq := range model.Frequencies {
		rec := records[freq]
		due[freq] = Due(freq, rec.LastReset, now)
	}
	return due
}

// AnyDue reports whether at least one class in the set is due.
func AnyDue(due map[model.Frequency]bool) bool {
	for _, d := range due {
		if d {
			return true
		}
	}
	return false
}

func newDay(lastReset *time.Time, now time.Time) bool {
	if lastReset == nil {
		return true
	}
	last := lastReset.In(now.Location())
	return last.Year() != now.Year() || last.YearDay() != now.YearDay()
}

// weekOfYear counts whole weeks elapsed since January 1 (UTC day arithmetic),
// one-based. Biweekly resets fire on even weeks.
func weekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(jan1)/(7*24*time.Hour)) + 1
}

// StartOfWeek returns midnight of the most recent Sunday in now's location.
func StartOfWeek(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -int(now.Weekday()))
}
