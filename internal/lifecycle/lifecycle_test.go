package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeline_SortedByTime(t *testing.T) {
	m := NewManager()
	t0 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	// Recorded out of order on purpose.
	m.RecordEvent("P1", StageBirth, "delivery", "or_1", []string{"D001"}, t0.Add(9*time.Hour))
	m.RecordEvent("P1", StageConception, "ivf transfer", "or_2", nil, t0)
	m.RecordEvent("P1", StagePrenatal, "20-week scan", "ward_1", nil, t0.Add(4*time.Hour))

	timeline := m.Timeline("P1")
	if assert.Len(t, timeline, 3) {
		assert.Equal(t, StageConception, timeline[0].Stage)
		assert.Equal(t, StagePrenatal, timeline[1].Stage)
		assert.Equal(t, StageBirth, timeline[2].Stage)
	}
}

func TestStageEvents_FiltersByStage(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.RecordEvent("P1", StageNeonatal, "apgar check", "ward_1", nil, now)
	m.RecordEvent("P1", StageNeonatal, "first feed", "ward_1", nil, now)
	m.RecordEvent("P1", StageBirth, "delivery", "or_1", nil, now)

	assert.Len(t, m.StageEvents("P1", StageNeonatal), 2)
	assert.Len(t, m.StageEvents("P1", StagePreConception), 0)
	assert.Len(t, m.StageEvents("P2", StageNeonatal), 0)
}

func TestRegisterMaterial(t *testing.T) {
	m := NewManager()
	id := m.RegisterMaterial("embryo", "DN42", map[string]string{"karyotype": "46,XX"}, time.Now())

	mat, ok := m.Material(id)
	assert.True(t, ok)
	assert.Equal(t, "embryo", mat.MaterialType)
	assert.Equal(t, "DN42", mat.DonorID)

	_, ok = m.Material("missing")
	assert.False(t, ok)
}
