// Synthetic vital signs. Readings drift smoothly over simulated time using
// simplex noise rather than independent draws, so consecutive snapshots look
// like a monitored patient instead of white noise.
package patients

import (
	"hash/fnv"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// vitalBaselines per status: critical patients run fast and low.
type vitalBaseline struct {
	heartRate int
	systolic  int
	diastolic int
	temp      float64
	respRate  int
	spo2      int
}

var baselines = map[PatientStatus]vitalBaseline{
	StatusStable:            {heartRate: 75, systolic: 120, diastolic: 80, temp: 36.8, respRate: 14, spo2: 98},
	StatusImproving:         {heartRate: 80, systolic: 118, diastolic: 78, temp: 37.0, respRate: 15, spo2: 97},
	StatusUnderObservation:  {heartRate: 85, systolic: 125, diastolic: 82, temp: 37.2, respRate: 16, spo2: 96},
	StatusRecovery:          {heartRate: 72, systolic: 118, diastolic: 76, temp: 36.7, respRate: 13, spo2: 98},
	StatusReadyForDischarge: {heartRate: 70, systolic: 115, diastolic: 75, temp: 36.6, respRate: 12, spo2: 99},
	StatusCritical:          {heartRate: 115, systolic: 90, diastolic: 55, temp: 38.5, respRate: 24, spo2: 88},
}

// VitalsGenerator produces per-patient vital sign snapshots.
type VitalsGenerator struct {
	noise opensimplex.Noise
}

// NewVitalsGenerator creates a generator; the same seed reproduces the same
// drift curves.
func NewVitalsGenerator(seed int64) *VitalsGenerator {
	return &VitalsGenerator{noise: opensimplex.New(seed)}
}

// Snapshot returns the patient's vitals at the given time. Each patient gets
// its own noise track via a hashed id offset.
func (g *VitalsGenerator) Snapshot(p *Patient, now time.Time) Vitals {
	base, ok := baselines[p.Status]
	if !ok {
		base = baselines[StatusStable]
	}

	h := fnv.New32a()
	h.Write([]byte(p.ID))
	offset := float64(h.Sum32()%1000) * 17.0
	t := float64(now.Unix()) / 3600.0 // one noise unit per sim-hour

	drift := func(track float64) float64 {
		return g.noise.Eval2(t, offset+track) // in [-1, 1]
	}

	return Vitals{
		Time:        now,
		HeartRate:   base.heartRate + int(drift(0)*10),
		SystolicBP:  base.systolic + int(drift(1)*12),
		DiastolicBP: base.diastolic + int(drift(2)*8),
		Temperature: base.temp + drift(3)*0.5,
		RespRate:    base.respRate + int(drift(4)*3),
		SpO2:        clampSpO2(base.spo2 + int(drift(5)*3)),
	}
}

func clampSpO2(v int) int {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
