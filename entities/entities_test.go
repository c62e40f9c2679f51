package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s)
	if err != nil {
		t.Fatalf("ParseDay(%q): %v", s, err)
	}
	return d
}

func TestGrowthProgressBoundsAndMonotonic(t *testing.T) {
	t.Parallel()
	c := &PlantedCrop{PlantingDate: day(t, "2026-03-01"), HarvestDate: day(t, "2026-05-30")}

	assert.Equal(t, 0, c.GrowthProgress(day(t, "2026-02-01")), "before planting")
	assert.Equal(t, 0, c.GrowthProgress(c.PlantingDate))
	assert.Equal(t, 100, c.GrowthProgress(c.HarvestDate), "exactly at harvest")
	assert.Equal(t, 100, c.GrowthProgress(day(t, "2027-01-01")))
	assert.Less(t, c.GrowthProgress(AddDays(c.HarvestDate, -1)), 100)

	prev := -1
	for d := AddDays(c.PlantingDate, -5); !d.After(AddDays(c.HarvestDate, 5)); d = AddDays(d, 1) {
		p := c.GrowthProgress(d)
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
		assert.GreaterOrEqual(t, p, prev, "progress must not decrease on %s", d.Format(DayLayout))
		prev = p
	}
}

func TestGrowthProgressLongSeasonHitsFullOnlyAtHarvest(t *testing.T) {
	t.Parallel()
	for _, days := range []int{200, 365, 400} {
		c := &PlantedCrop{PlantingDate: day(t, "2026-01-01")}
		c.HarvestDate = AddDays(c.PlantingDate, days)

		assert.Equal(t, 99, c.GrowthProgress(AddDays(c.HarvestDate, -1)), "%d-day season, day before harvest", days)
		assert.Equal(t, 100, c.GrowthProgress(c.HarvestDate), "%d-day season at harvest", days)

		prev := -1
		for d := c.PlantingDate; !d.After(c.HarvestDate); d = AddDays(d, 1) {
			p := c.GrowthProgress(d)
			assert.GreaterOrEqual(t, p, prev)
			if d.Before(c.HarvestDate) {
				assert.Less(t, p, 100, "%d-day season on %s", days, d.Format(DayLayout))
			}
			prev = p
		}
	}
}

func TestEffectiveStatus(t *testing.T) {
	t.Parallel()
	c := &PlantedCrop{Status: CropGrowing, PlantingDate: day(t, "2026-01-01"), HarvestDate: day(t, "2026-04-01")}
	assert.Equal(t, CropGrowing, c.EffectiveStatus(day(t, "2026-03-31")))
	assert.Equal(t, CropReady, c.EffectiveStatus(day(t, "2026-04-01")))
	c.Status = CropRemoved
	assert.Equal(t, CropRemoved, c.EffectiveStatus(day(t, "2026-04-01")))
}

func TestTaskState(t *testing.T) {
	t.Parallel()
	task := &IrrigationTask{DueDate: day(t, "2026-06-10")}
	assert.Equal(t, TaskScheduled, task.State(day(t, "2026-06-09")))
	assert.Equal(t, TaskDue, task.State(day(t, "2026-06-10")))
	assert.Equal(t, TaskDue, task.State(day(t, "2026-06-20")))
	task.Completed = true
	assert.Equal(t, TaskCompleted, task.State(day(t, "2026-06-20")))
}

func TestDayOfUsesLocalCalendarDay(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2026, 7, 1, 23, 30, 0, 0, loc)
	assert.Equal(t, "2026-07-01", DayKey(late))
	assert.Equal(t, "2026-07-01", DayKey(late.UTC().Add(-time.Hour)))
	assert.Equal(t, 9, DaysBetween(day(t, "2026-07-01"), day(t, "2026-07-10")))
	assert.Equal(t, -3, DaysBetween(day(t, "2026-07-10"), day(t, "2026-07-07")))
}

func TestCategoryOrDefault(t *testing.T) {
	t.Parallel()
	c := &PlantedCrop{}
	assert.Equal(t, DefaultCategory, c.CategoryOrDefault())
	cat := "Cereal"
	c.Category = &cat
	assert.Equal(t, "Cereal", c.CategoryOrDefault())
}
