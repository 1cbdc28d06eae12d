package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate_DuplicateLocation(t *testing.T) {
	cfg := Default()
	cfg.Locations = append(cfg.Locations, cfg.Locations[0])
	assert.ErrorIs(t, cfg.Validate(), ErrDuplicateLocation)
}

func TestValidate_UnknownConnectionEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Connections = append(cfg.Connections, [2]string{"er", "helipad"})
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownLocation)
}

func TestValidate_TransferRuleUnknownDepartment(t *testing.T) {
	cfg := Default()
	cfg.TransferRules = append(cfg.TransferRules, TransferRule{From: "er", Status: "stable", To: "morgue"})
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownDepartment)
}

func TestValidate_BadProbability(t *testing.T) {
	cfg := Default()
	cfg.Emergencies.High = 1.5
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidProbability)
}

func TestValidate_BadCapacity(t *testing.T) {
	cfg := Default()
	cfg.Locations[0].Capacity = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidCapacity)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	// GIVEN a scenario file overriding a few fields
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	raw := `
seed: 7
tick_step: 10m
tunables:
  routine_probability: 0.5
emergencies:
  high: 0.4
`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	// WHEN loading
	cfg, err := Load(path)
	assert.NoError(t, err)

	// THEN overrides apply and untouched defaults survive
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 10*time.Minute, cfg.TickStep.Std())
	assert.Equal(t, 0.5, cfg.Tunables.RoutineProbability)
	assert.Equal(t, 0.4, cfg.Emergencies.High)
	assert.Equal(t, 0.9, cfg.Tunables.ForcedRestThreshold)
	assert.Len(t, cfg.Doctors, 4)
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	os.WriteFile(path, []byte("tick_step: fast\n"), 0644)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/scenario.yaml")
	assert.Error(t, err)
}
