package rotation

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jmckenna/chorewheel/internal/model"
)

// DefaultTarget is the total number of rotating chores each person should end
// up with when the pool is big enough.
const DefaultTarget = 4

// Partitioner distributes the rotating chore pool across people. Rand is
// injectable so tests can fix the shuffle; NewID mints the stable instance id
// each assignment carries.
type Partitioner struct {
	Rand   *rand.Rand
	Target int
	NewID  func() string
}

// NewPartitioner returns a production partitioner: time-seeded shuffle, UUID
// instance ids, default target.
func NewPartitioner() *Partitioner {
	return &Partitioner{
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		Target: DefaultTarget,
		NewID:  uuid.NewString,
	}
}

func (p *Partitioner) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

// fill pool order for topping people up to the target. Daily is deliberately
// excluded: everyone already has exactly one daily chore from the first pass.
var fillOrder = []model.Frequency{model.FreqMonthly, model.FreqWeekly, model.FreqBiweekly}

// Partition assigns the rotating pool to people. Each person is guaranteed one
// daily, one biweekly, and one weekly chore (supply permitting, in that pass
// order), then topped up to the target from the monthly/weekly/biweekly pools.
// A task name is assigned at most once per run across all people, so the total
// never exceeds the distinct-task-name count.
func (p *Partitioner) Partition(defs []model.ChoreDef, personIDs []int64, now time.Time) map[int64][]model.Assignment {
	target := p.Target
	if target <= 0 {
		target = DefaultTarget
	}

	buckets := make(map[model.Frequency][]model.ChoreDef, len(model.Frequencies))
	for _, def := range defs {
		if !def.Frequency.Valid() {
			continue
		}
		buckets[def.Frequency] = append(buckets[def.Frequency], def)
	}
	for freq := range buckets {
		bucket := buckets[freq]
		p.Rand.Shuffle(len(bucket), func(i, j int) {
			bucket[i], bucket[j] = bucket[j], bucket[i]
		})
	}

	assigned := make(map[int64][]model.Assignment, len(personIDs))
	for _, id := range personIDs {
		assigned[id] = []model.Assignment{}
	}
	taken := make(map[string]bool)

	take := func(freq model.Frequency) *model.ChoreDef {
		for _, def := range buckets[freq] {
			if !taken[def.Task] {
				taken[def.Task] = true
				return &def
			}
		}
		return nil
	}

	grant := func(personID int64, def *model.ChoreDef) {
		assigned[personID] = append(assigned[personID], model.Assignment{
			ID:         p.newID(),
			PersonID:   personID,
			Task:       def.Task,
			Frequency:  def.Frequency,
			Origin:     model.OriginRotating,
			AssignedAt: now,
		})
	}

	// Guaranteed passes: one chore per person per class, skipping people once
	// the bucket is exhausted.
	for _, freq := range []model.Frequency{model.FreqDaily, model.FreqBiweekly, model.FreqWeekly} {
		for _, personID := range personIDs {
			def := take(freq)
			if def == nil {
				break
			}
			grant(personID, def)
		}
	}

	// Fill to target from the remaining pools.
	for _, personID := range personIDs {
		for _, freq := range fillOrder {
			for len(assigned[personID]) < target {
				def := take(freq)
				if def == nil {
					break
				}
				grant(personID, def)
			}
			if len(assigned[personID]) >= target {
				break
			}
		}
	}

	return assigned
}
