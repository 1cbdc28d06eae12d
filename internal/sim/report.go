// Reporting — read-only aggregation over the event log and entity state.
// Nothing here feeds back into the simulation's forward dynamics.
package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time aggregate snapshot for the status surface.
type Stats struct {
	Tick            uint64         `json:"tick"`
	SimTime         string         `json:"sim_time"`
	ActivePatients  int            `json:"active_patients"`
	StaffCount      int            `json:"staff_count"`
	TotalEvents     int            `json:"total_events"`
	EventCounts     map[string]int `json:"event_counts"`
	Departments     map[string]int `json:"department_occupancy"`
	AvgFatigue      float64        `json:"avg_fatigue"`
	PatientStatuses map[string]int `json:"patient_statuses"`
}

// CollectStats builds the snapshot.
func (s *Simulation) CollectStats() Stats {
	counts := make(map[string]int)
	for _, e := range s.log {
		counts[string(e.Kind)]++
	}

	agents := s.Roster.Agents()
	totalFatigue := 0.0
	for _, a := range agents {
		totalFatigue += a.Fatigue
	}
	avgFatigue := 0.0
	if len(agents) > 0 {
		avgFatigue = totalFatigue / float64(len(agents))
	}

	statuses := make(map[string]int)
	for st, n := range s.Registry.ByStatus() {
		statuses[string(st)] = n
	}

	depts := make(map[string]int)
	for _, d := range s.Facility.Departments() {
		depts[d.ID] = d.Occupancy()
	}

	return Stats{
		Tick:            s.tick,
		SimTime:         s.now.Format("2006-01-02 15:04"),
		ActivePatients:  s.Registry.Count(),
		StaffCount:      len(agents),
		TotalEvents:     len(s.log),
		EventCounts:     counts,
		Departments:     depts,
		AvgFatigue:      avgFatigue,
		PatientStatuses: statuses,
	}
}

// Report renders a markdown simulation report: parameters, staff metrics,
// patient statistics, emergency analysis, resource utilization, and
// recommendations.
func (s *Simulation) Report() string {
	var b strings.Builder
	stats := s.CollectStats()

	b.WriteString("# Hospital Simulation Report\n\n")

	b.WriteString("## Simulation Parameters\n\n")
	fmt.Fprintf(&b, "- **Period:** %s to %s (%s of simulated time)\n",
		s.startTime.Format("2006-01-02 15:04"), s.now.Format("2006-01-02 15:04"),
		humanize.RelTime(s.startTime, s.now, "", ""))
	fmt.Fprintf(&b, "- **Ticks:** %s (step %s)\n", humanize.Comma(int64(s.tick)), s.tickStep)
	fmt.Fprintf(&b, "- **Emergency frequency:** %s\n", s.frequency)
	fmt.Fprintf(&b, "- **Total events:** %s\n", humanize.Comma(int64(stats.TotalEvents)))

	b.WriteString("\n## Event Counts\n\n")
	kinds := make([]string, 0, len(stats.EventCounts))
	for k := range stats.EventCounts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&b, "- **%s:** %d\n", k, stats.EventCounts[k])
	}

	b.WriteString("\n## Staff Metrics\n\n")
	for _, a := range s.Roster.Agents() {
		avgImportance := 0.0
		locations := make(map[string]bool)
		for _, m := range a.Memories {
			avgImportance += m.Importance
			if m.Location != "" {
				locations[m.Location] = true
			}
		}
		if len(a.Memories) > 0 {
			avgImportance /= float64(len(a.Memories))
		}
		fmt.Fprintf(&b, "### %s (%s)\n", a.Name, a.Role)
		fmt.Fprintf(&b, "- Memories: %d (avg importance %.2f), reflections: %d\n",
			len(a.Memories), avgImportance, len(a.Reflections))
		fmt.Fprintf(&b, "- Fatigue: %.2f, locations visited: %d, patients assigned: %d\n\n",
			a.Fatigue, len(locations), a.PatientCount())
	}

	b.WriteString("## Patient Statistics\n\n")
	fmt.Fprintf(&b, "- Active patients: %d\n", stats.ActivePatients)
	statuses := make([]string, 0, len(stats.PatientStatuses))
	for st := range stats.PatientStatuses {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		fmt.Fprintf(&b, "- %s: %d\n", st, stats.PatientStatuses[st])
	}

	b.WriteString("\n## Emergency Response Analysis\n\n")
	perDoctor := make(map[string]int)
	for _, e := range s.log {
		if e.Kind == EventEmergency {
			perDoctor[e.AgentID]++
		}
	}
	fmt.Fprintf(&b, "- Emergencies handled: %d\n", stats.EventCounts[string(EventEmergency)])
	doctorIDs := make([]string, 0, len(perDoctor))
	for id := range perDoctor {
		doctorIDs = append(doctorIDs, id)
	}
	sort.Strings(doctorIDs)
	for _, id := range doctorIDs {
		name := id
		if a := s.Roster.Get(id); a != nil {
			name = a.Name
		}
		fmt.Fprintf(&b, "- %s: %d responses\n", name, perDoctor[id])
	}

	b.WriteString("\n## Resource Utilization\n\n")
	for _, d := range s.Facility.Departments() {
		fmt.Fprintf(&b, "- **%s:** %d/%d beds (%.0f%%)\n",
			d.Name, d.Occupancy(), d.Capacity, d.OccupancyRate()*100)
	}

	b.WriteString("\n## Recommendations\n\n")
	for _, rec := range s.recommendations() {
		fmt.Fprintf(&b, "- %s\n", rec)
	}

	return b.String()
}

// recommendations derives advisory findings from current state.
func (s *Simulation) recommendations() []string {
	var recs []string

	minLoad, maxLoad := -1, 0
	for _, d := range s.Roster.Doctors() {
		n := d.PatientCount()
		if minLoad == -1 || n < minLoad {
			minLoad = n
		}
		if n > maxLoad {
			maxLoad = n
		}
	}
	if minLoad >= 0 && maxLoad > 2*(minLoad+1) {
		recs = append(recs, "Significant workload imbalance detected. Consider redistributing patients among available staff.")
	}

	for _, a := range s.Roster.Agents() {
		if a.Fatigue >= s.cfg.Tunables.TiredThreshold {
			recs = append(recs, fmt.Sprintf("%s is running high fatigue (%.2f); schedule additional rest.", a.Name, a.Fatigue))
		}
	}

	for _, d := range s.Facility.Departments() {
		if d.OccupancyRate() > 0.9 {
			recs = append(recs, fmt.Sprintf("%s is near capacity (%d/%d); review discharge readiness.", d.Name, d.Occupancy(), d.Capacity))
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "Operations within normal parameters.")
	}
	return recs
}
