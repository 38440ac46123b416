package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidityThreshold(t *testing.T) {
	cases := []struct {
		radius float64
		want   float64
	}{
		{5, 40},
		{10.5, 40},
		{13, 40},
		{20, 60},
		{42, 126},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ValidityThreshold(c.radius), "radius %v", c.radius)
	}
}

func TestEvaluateStage(t *testing.T) {
	target := Target{X: 100, Y: 100, Radius: 10}

	onCenter := EvaluateStage(target, 5, Point{X: 100, Y: 100}, 250)
	assert.True(t, onCenter.Valid)
	assert.True(t, onCenter.InTarget)
	assert.True(t, onCenter.InBuffer)
	assert.Equal(t, 250.0, onCenter.T)

	edge := EvaluateStage(target, 5, Point{X: 110, Y: 100}, 0)
	assert.True(t, edge.InTarget)

	inBuffer := EvaluateStage(target, 5, Point{X: 114, Y: 100}, 0)
	assert.False(t, inBuffer.InTarget)
	assert.True(t, inBuffer.InBuffer)
	assert.True(t, inBuffer.Valid)

	nearGate := EvaluateStage(target, 5, Point{X: 139.9, Y: 100}, 0)
	assert.True(t, nearGate.Valid)
	assert.False(t, nearGate.InBuffer)

	far := EvaluateStage(target, 5, Point{X: 140, Y: 100}, 0)
	assert.False(t, far.Valid)
	assert.InDelta(t, 40.0, far.Distance, 1e-9)
}

func TestResolve(t *testing.T) {
	in := Stage{Valid: true, InTarget: true, InBuffer: true}
	buffer := Stage{Valid: true, InBuffer: true}
	miss := Stage{Valid: true}
	invalid := Stage{}

	cases := []struct {
		name     string
		down, up Stage
		want     Resolution
	}{
		{"both invalid", invalid, invalid, Resolution{Discarded: true}},
		{"clean hit", in, in, Resolution{Success: true, SuccessDown: true, SuccessUp: true, InsideBuffer: true}},
		{"pressed inside, released outside", in, miss, Resolution{Success: true, SuccessDown: true, InsideBuffer: true}},
		{"pressed outside, released inside", miss, in, Resolution{Success: true, SuccessUp: true, InsideBuffer: true}},
		{"invalid press, valid release", invalid, in, Resolution{Success: true, SuccessUp: true, InsideBuffer: true}},
		{"buffer only", buffer, miss, Resolution{InsideBuffer: true}},
		{"miss", miss, invalid, Resolution{}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Resolve(c.down, c.up), c.name)
	}
}

func TestResolutionApply(t *testing.T) {
	rec := &TrialRecord{}
	down := Stage{T: 400, Valid: true, InTarget: true}
	up := Stage{T: 520, Valid: true}
	Resolve(down, up).apply(rec, down, up)

	assert.True(t, rec.Success)
	assert.True(t, rec.SuccessDown)
	assert.False(t, rec.SuccessUp)
	assert.Equal(t, 120.0, rec.ClickDuration)
	assert.Equal(t, 520.0, rec.ConfirmationTime)
	assert.Equal(t, &down, rec.IndicationDown)
	assert.Equal(t, &up, rec.IndicationUp)
}
