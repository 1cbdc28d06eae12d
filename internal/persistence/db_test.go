package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/careflow/internal/config"
	"github.com/talgya/careflow/internal/entropy"
	"github.com/talgya/careflow/internal/narrative"
	"github.com/talgya/careflow/internal/patients"
	"github.com/talgya/careflow/internal/sim"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "careflow.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newSavedSim(t *testing.T) *sim.Simulation {
	t.Helper()
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s, err := sim.New(config.Default(), patients.NewSyntheticSource(1, 10),
		narrative.NewGenerator(nil), entropy.Seeded(1), start)
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	for i := 0; i < 5; i++ {
		s.Step()
	}
	return s
}

func TestSaveSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)
	s := newSavedSim(t)

	assert.NoError(t, db.SaveSnapshot(s))

	tick, err := db.GetMeta("last_tick")
	assert.NoError(t, err)
	assert.Equal(t, "5", tick)

	events, err := db.RecentEvents(10)
	assert.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.LessOrEqual(t, len(events), 10)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Time.Before(events[i-1].Time), "oldest first")
	}
}

func TestSaveEventsIdempotent(t *testing.T) {
	db := openTestDB(t)
	s := newSavedSim(t)
	log := s.EventLog()

	assert.NoError(t, db.SaveEvents(log))
	assert.NoError(t, db.SaveEvents(log)) // replay the same log

	events, err := db.RecentEvents(len(log) * 2)
	assert.NoError(t, err)
	assert.Len(t, events, len(log), "upsert by id must not duplicate")
}

func TestEventMetaSurvives(t *testing.T) {
	db := openTestDB(t)
	ev := sim.Event{
		ID:          "ev-1",
		Time:        time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Kind:        sim.EventEmergency,
		AgentID:     "D001",
		PatientID:   "E001",
		Location:    "er",
		Description: "Dr. Test responding to cardiac_arrest",
		Meta:        map[string]string{"emergency_type": "cardiac_arrest"},
	}

	assert.NoError(t, db.SaveEvents([]sim.Event{ev}))

	events, err := db.RecentEvents(1)
	assert.NoError(t, err)
	if assert.Len(t, events, 1) {
		assert.Equal(t, ev.ID, events[0].ID)
		assert.Equal(t, "cardiac_arrest", events[0].Meta["emergency_type"])
		assert.True(t, ev.Time.Equal(events[0].Time))
	}
}

func TestMetaMissingKey(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetMeta("nope")
	assert.Error(t, err)
}

func TestSnapshotReplacesPriorState(t *testing.T) {
	db := openTestDB(t)
	s := newSavedSim(t)

	assert.NoError(t, db.SaveSnapshot(s))
	before := s.Registry.Count()

	// Mutate and re-save: the snapshot tables reflect only current state.
	for _, p := range s.Registry.All() {
		s.DischargePatient(p.ID)
		break
	}
	assert.NoError(t, db.SaveSnapshot(s))

	var count int
	assert.NoError(t, db.conn.Get(&count, "SELECT COUNT(*) FROM patients"))
	assert.Equal(t, before-1, count)
}
