// Package api provides the HTTP API for observing and steering a running
// simulation. GET endpoints are public, read-only views; POST endpoints are
// the control plane and require a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/careflow/internal/lifecycle"
	"github.com/talgya/careflow/internal/patients"
	"github.com/talgya/careflow/internal/persistence"
	"github.com/talgya/careflow/internal/sim"
)

// Server serves simulation state over HTTP.
type Server struct {
	Eng      *sim.Engine
	DB       *persistence.DB // nil disables snapshot endpoints
	Port     int
	AdminKey string // bearer token for POST endpoints, empty = POST disabled

	metrics *Metrics
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	s.metrics = NewMetrics()
	reportLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()

	// Public read-only views.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/staff", s.handleStaff)
	mux.HandleFunc("/api/v1/staff/", s.handleStaffDetail)
	mux.HandleFunc("/api/v1/patients", s.handlePatients)
	mux.HandleFunc("/api/v1/patients/", s.handlePatientDetail)
	mux.HandleFunc("/api/v1/facility", s.handleFacility)
	mux.HandleFunc("/api/v1/report", RateLimitMiddleware(reportLimiter, s.handleReport))

	mux.Handle("/metrics", s.metrics.Handler(func() sim.Stats {
		return s.Eng.Sim().CollectStats()
	}))

	// Control plane.
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/frequency", s.adminOnly(s.handleFrequency))
	mux.HandleFunc("/api/v1/step", s.adminOnly(s.handleStep))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/admissions", s.adminOnly(s.handleAdmission))
	mux.HandleFunc("/api/v1/discharges", s.adminOnly(s.handleDischarge))
	mux.HandleFunc("/api/v1/orders", s.adminOnly(s.handleOrder))
	mux.HandleFunc("/api/v1/equipment", s.adminOnly(s.handleEquipment))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	handler := s.Handler()
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set
// CAREFLOW_CORS_ORIGINS to a comma-separated list; localhost dev servers are
// always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CAREFLOW_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires bearer token auth on POST requests. GET passes through
// for endpoints that serve both.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no CAREFLOW_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cur := s.Eng.Sim()
	stats := cur.CollectStats()

	writeJSON(w, map[string]any{
		"name":            "careflow",
		"tick":            stats.Tick,
		"sim_time":        stats.SimTime,
		"speed":           s.Eng.Speed(),
		"running":         s.Eng.Running(),
		"frequency":       cur.Frequency(),
		"active_patients": stats.ActivePatients,
		"staff":           stats.StaffCount,
		"avg_fatigue":     stats.AvgFatigue,
		"total_events":    stats.TotalEvents,
		"departments":     stats.Departments,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Eng.Sim().EventLog()

	if kind := r.URL.Query().Get("kind"); kind != "" {
		var filtered []sim.Event
		for _, e := range events {
			if string(e.Kind) == kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	if events == nil {
		events = []sim.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleStaff(w http.ResponseWriter, r *http.Request) {
	type staffSummary struct {
		ID             string  `json:"id"`
		Name           string  `json:"name"`
		Role           string  `json:"role"`
		Specialization string  `json:"specialization,omitempty"`
		Status         string  `json:"status"`
		Location       string  `json:"location"`
		Fatigue        float64 `json:"fatigue"`
		Patients       int     `json:"patients"`
		Memories       int     `json:"memories"`
		PendingPlans   int     `json:"pending_plans"`
	}

	cur := s.Eng.Sim()
	result := make([]staffSummary, 0)
	for _, a := range cur.Roster.Agents() {
		pending := 0
		for _, p := range a.Plans {
			if !p.Executed {
				pending++
			}
		}
		result = append(result, staffSummary{
			ID:             a.ID,
			Name:           a.Name,
			Role:           a.Role.String(),
			Specialization: a.Specialization,
			Status:         a.Status.String(),
			Location:       a.Location,
			Fatigue:        a.Fatigue,
			Patients:       a.PatientCount(),
			Memories:       len(a.Memories),
			PendingPlans:   pending,
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleStaffDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/staff/")
	if id == "" {
		http.Error(w, "missing staff id", http.StatusBadRequest)
		return
	}
	a := s.Eng.Sim().Roster.Get(id)
	if a == nil {
		http.Error(w, "staff not found", http.StatusNotFound)
		return
	}
	writeJSON(w, a)
}

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	type patientSummary struct {
		ID         string `json:"id"`
		Department string `json:"department"`
		Status     string `json:"status"`
		Diagnosis  string `json:"diagnosis"`
		AdmittedAt string `json:"admitted_at"`
	}

	cur := s.Eng.Sim()
	department := r.URL.Query().Get("department")

	result := make([]patientSummary, 0)
	for _, p := range cur.Registry.All() {
		if department != "" && p.Department != department {
			continue
		}
		result = append(result, patientSummary{
			ID:         p.ID,
			Department: p.Department,
			Status:     string(p.Status),
			Diagnosis:  p.Diagnosis,
			AdmittedAt: p.AdmittedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, result)
}

func (s *Server) handlePatientDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/patients/")
	if id == "" {
		http.Error(w, "missing patient id", http.StatusBadRequest)
		return
	}
	cur := s.Eng.Sim()

	// POST .../{id}/status updates the clinical status, possibly triggering
	// a rule-driven transfer.
	if strings.HasSuffix(id, "/status") {
		s.adminOnly(s.handlePatientStatus)(w, r)
		return
	}
	// GET .../{id}/lifecycle returns the timeline; POST records an event.
	if strings.HasSuffix(id, "/lifecycle") {
		s.adminOnly(s.handleLifecycle)(w, r)
		return
	}

	p := cur.Registry.Get(id)
	if p == nil {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handlePatientStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/patients/"), "/status")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cur := s.Eng.Sim()
	if !cur.UpdatePatientStatus(id, patients.PatientStatus(req.Status)) {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	writeJSON(w, cur.Registry.Get(id))
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/patients/"), "/lifecycle")
	cur := s.Eng.Sim()

	if r.Method == http.MethodPost {
		var req struct {
			Stage       string   `json:"stage"`
			Description string   `json:"description"`
			Location    string   `json:"location"`
			Providers   []string `json:"providers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		stage, ok := lifecycle.StageFromString(req.Stage)
		if !ok {
			http.Error(w, "unknown lifecycle stage", http.StatusBadRequest)
			return
		}
		eventID := cur.RecordLifecycleEvent(id, stage, req.Description, req.Location, req.Providers)
		writeJSON(w, map[string]string{"event_id": eventID})
		return
	}

	writeJSON(w, cur.Lifecycle.Timeline(id))
}

func (s *Server) handleFacility(w http.ResponseWriter, r *http.Request) {
	cur := s.Eng.Sim()

	type deptView struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Capacity  int     `json:"capacity"`
		Occupancy int     `json:"occupancy"`
		Rate      float64 `json:"occupancy_rate"`
	}
	depts := make([]deptView, 0)
	for _, d := range cur.Facility.Departments() {
		depts = append(depts, deptView{
			ID: d.ID, Name: d.Name, Capacity: d.Capacity,
			Occupancy: d.Occupancy(), Rate: d.OccupancyRate(),
		})
	}

	writeJSON(w, map[string]any{
		"locations":   cur.Facility.OccupancySnapshot(),
		"departments": depts,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, s.Eng.Sim().Report())
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	cur := s.Eng.Sim()
	if r.Method == http.MethodPost {
		var req struct {
			Frequency string `json:"frequency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := cur.SetFrequency(sim.EmergencyFrequency(req.Frequency)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Info("emergency frequency changed", "frequency", req.Frequency)
	}
	writeJSON(w, map[string]string{"frequency": string(cur.Frequency())})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count := 1
	if c := r.URL.Query().Get("count"); c != "" {
		if n, err := strconv.Atoi(c); err == nil && n > 0 && n <= 1000 {
			count = n
		}
	}

	var emitted int
	for i := 0; i < count; i++ {
		emitted += len(s.Eng.Step())
	}
	writeJSON(w, map[string]any{
		"tick":   s.Eng.Sim().Tick(),
		"events": emitted,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.Eng.Reset(); err != nil {
		slog.Error("reset failed", "error", err)
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	slog.Info("simulation reset")
	writeJSON(w, map[string]any{"tick": s.Eng.Sim().Tick()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	if err := s.DB.SaveSnapshot(s.Eng.Sim()); err != nil {
		slog.Error("snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved_tick": s.Eng.Sim().Tick()})
}

func (s *Server) handleAdmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PatientID  string `json:"patient_id"`
		Department string `json:"department"`
		Status     string `json:"status"`
		Diagnosis  string `json:"diagnosis"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.PatientID == "" || req.Department == "" {
		http.Error(w, "patient_id and department are required", http.StatusBadRequest)
		return
	}
	status := patients.PatientStatus(req.Status)
	if req.Status == "" {
		status = patients.StatusStable
	}

	cur := s.Eng.Sim()
	if !cur.AdmitPatient(req.PatientID, req.Department, status, req.Diagnosis) {
		http.Error(w, "admission rejected (duplicate id, unknown department, or at capacity)", http.StatusConflict)
		return
	}
	writeJSON(w, cur.Registry.Get(req.PatientID))
}

// handleOrder dispatches doctor-initiated clinical actions.
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Action     string `json:"action"` // diagnose, procedure, rounds, prescription
		DoctorID   string `json:"doctor_id"`
		PatientID  string `json:"patient_id"`
		Procedure  string `json:"procedure"`
		Location   string `json:"location"`
		Medication string `json:"medication"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cur := s.Eng.Sim()
	switch req.Action {
	case "diagnose":
		note, ok := cur.DiagnosePatient(req.DoctorID, req.PatientID)
		if !ok {
			http.Error(w, "doctor or patient not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"assessment": note})
	case "procedure":
		if !cur.ScheduleProcedure(req.DoctorID, req.PatientID, req.Procedure, req.Location, time.Time{}) {
			http.Error(w, "doctor or patient not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"scheduled": req.Procedure})
	case "rounds":
		seen, ok := cur.PerformRounds(req.DoctorID)
		if !ok {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]int{"patients_seen": seen})
	case "prescription":
		if !cur.WritePrescription(req.DoctorID, req.PatientID, req.Medication) {
			http.Error(w, "doctor or patient not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"prescribed": req.Medication})
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

// handleEquipment toggles equipment availability at a location.
func (s *Server) handleEquipment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Location  string `json:"location"`
		Equipment string `json:"equipment"`
		Available bool   `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cur := s.Eng.Sim()
	if !cur.Facility.SetEquipment(req.Location, req.Equipment, req.Available) {
		http.Error(w, "location not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"location":  req.Location,
		"available": cur.Facility.AvailableEquipment(req.Location),
	})
}

func (s *Server) handleDischarge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PatientID string `json:"patient_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if !s.Eng.Sim().DischargePatient(req.PatientID) {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"discharged": req.PatientID})
}
