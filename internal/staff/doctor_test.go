package staff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiagnose(t *testing.T) {
	r := NewRoster()
	doc := r.CreateDoctor("Dr. Test", "Cardiology", 10)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	confidence := doc.Diagnose(now, "P1", "Chest pain")

	assert.InDelta(t, 1.0, confidence, 1e-9) // 0.5 + 0.05*10, capped
	last := doc.Memories[len(doc.Memories)-1]
	assert.Contains(t, last.Description, "P1")
	assert.Equal(t, 0.7, last.Importance)
}

func TestScheduleProcedure(t *testing.T) {
	r := NewRoster()
	doc := r.CreateDoctor("Dr. Test", "General Surgery", 5)
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	plan := doc.ScheduleProcedure(start, start.Add(time.Hour), "Appendectomy", "or_1", "P1")

	assert.Equal(t, ProcedurePriority, plan.Priority)
	assert.Equal(t, "Perform Appendectomy", plan.Action)
	assert.Equal(t, []string{"P1"}, plan.RelatedAgents)

	// The procedure outranks routine plans once due.
	doc.AddPlan(&Plan{Start: start, End: start.Add(time.Hour), Action: "Paperwork", Priority: 3})
	next := doc.NextAction(start)
	if assert.NotNil(t, next) {
		assert.Equal(t, plan, next)
	}
}

func TestPerformRounds(t *testing.T) {
	r := NewRoster()
	doc := r.CreateDoctor("Dr. Test", "Pulmonology", 8)
	doc.AssignPatient("P1")
	doc.AssignPatient("P2")
	doc.AssignPatient("P3")
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	seen := doc.PerformRounds(now, 0.8)

	assert.Equal(t, 3, seen)
	assert.InDelta(t, 3*RoundsFatigue, doc.Fatigue, 1e-9)

	visited := 0
	for _, m := range doc.Memories {
		if len(m.RelatedAgents) == 1 {
			visited++
		}
	}
	assert.Equal(t, 3, visited)
}

func TestWritePrescription(t *testing.T) {
	r := NewRoster()
	doc := r.CreateDoctor("Dr. Test", "Cardiology", 10)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	doc.WritePrescription(now, "P1", "Beta blockers")

	last := doc.Memories[len(doc.Memories)-1]
	assert.Contains(t, last.Description, "Beta blockers")
	assert.Equal(t, []string{"P1"}, last.RelatedAgents)
}
