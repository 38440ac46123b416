package experiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickSchedulerRunsDueTasks(t *testing.T) {
	s := NewTickScheduler()
	t0 := time.Unix(0, 0)

	var runs []time.Time
	task := s.Every(10*time.Millisecond, func(now time.Time) { runs = append(runs, now) })

	s.Advance(t0) // arms
	s.Advance(t0.Add(5 * time.Millisecond))
	s.Advance(t0.Add(10 * time.Millisecond))
	s.Advance(t0.Add(15 * time.Millisecond))
	s.Advance(t0.Add(50 * time.Millisecond))
	assert.Equal(t, []time.Time{t0.Add(10 * time.Millisecond), t0.Add(50 * time.Millisecond)}, runs)
	assert.Equal(t, 1, s.Pending())

	task.Cancel()
	s.Advance(t0.Add(time.Second))
	assert.Len(t, runs, 2)
	assert.Equal(t, 0, s.Pending())
}

func TestTickSchedulerSelfCancel(t *testing.T) {
	s := NewTickScheduler()
	t0 := time.Unix(0, 0)

	var task Task
	count := 0
	task = s.Every(time.Millisecond, func(time.Time) {
		count++
		if count == 3 {
			task.Cancel()
		}
	})

	for i := 0; i < 10; i++ {
		s.Advance(t0.Add(time.Duration(i) * time.Millisecond))
	}
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, s.Pending())
}

func TestTickSchedulerScheduleFromCallback(t *testing.T) {
	s := NewTickScheduler()
	t0 := time.Unix(0, 0)

	inner := 0
	var outer Task
	outer = s.Every(time.Millisecond, func(time.Time) {
		outer.Cancel()
		s.Every(time.Millisecond, func(time.Time) { inner++ })
	})

	s.Advance(t0)
	s.Advance(t0.Add(time.Millisecond))
	assert.Equal(t, 1, s.Pending())

	s.Advance(t0.Add(2 * time.Millisecond)) // arms inner
	s.Advance(t0.Add(3 * time.Millisecond))
	assert.Equal(t, 1, inner)
}
