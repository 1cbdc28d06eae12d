// Workload balancing — a simplified admission-control policy. Patients move
// one at a time from overloaded doctors to the least-loaded underloaded
// doctor whose specialization matches the patient's diagnosis. Every move
// strictly reduces the donor's load, so the pass is bounded and can never
// increase imbalance.
package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/talgya/careflow/internal/staff"
)

// matchesSpecialization reports whether the specialization's keyword set
// covers the diagnosis. Matching is case-insensitive substring containment.
func (s *Simulation) matchesSpecialization(specialization, diagnosis string) bool {
	keywords := s.cfg.Specializations[specialization]
	if len(keywords) == 0 {
		return false
	}
	d := strings.ToLower(diagnosis)
	for _, kw := range keywords {
		if strings.Contains(d, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// balanceWorkload runs the balancing pass and returns the transfer events.
func (s *Simulation) balanceWorkload() []Event {
	doctors := s.Roster.Doctors()
	if len(doctors) < 2 {
		return nil
	}

	total := 0
	for _, d := range doctors {
		total += d.PatientCount()
	}
	if total == 0 {
		return nil
	}
	// The mean is invariant under transfers: moves conserve patient count.
	mean := float64(total) / float64(len(doctors))
	overAt := s.cfg.Tunables.OverloadRatio * mean
	underAt := s.cfg.Tunables.UnderloadRatio * mean

	var events []Event
	// Each successful move reduces some donor's load by one, so total
	// assigned patients bounds the loop.
	for moves := 0; moves < total; moves++ {
		donors := s.overloadedDescending(doctors, overAt)
		if len(donors) == 0 {
			break
		}

		receivers := s.underloadedAscending(doctors, underAt)
		moved := false
		// A donor with no compatible transfer is skipped, not terminal:
		// a lighter overloaded donor may still have a valid move.
		for _, donor := range donors {
			if ev, ok := s.transferFrom(donor, receivers); ok {
				events = append(events, ev)
				moved = true
				break
			}
		}
		if !moved {
			// No overloaded doctor has a compatible transfer left.
			break
		}
	}
	return events
}

// transferFrom moves one of the donor's patients to the first compatible
// receiver, least-loaded first.
func (s *Simulation) transferFrom(donor *staff.Agent, receivers []*staff.Agent) (Event, bool) {
	for _, pid := range donor.Patients {
		p := s.Registry.Get(pid)
		if p == nil {
			continue
		}
		for _, recv := range receivers {
			if !s.matchesSpecialization(recv.Specialization, p.Diagnosis) {
				continue
			}
			donor.RemovePatient(pid)
			recv.AssignPatient(pid)
			ev := newEvent(s.now, EventTransfer, recv.ID, pid, p.Department,
				fmt.Sprintf("Care of %s moved from %s to %s", pid, donor.Name, recv.Name))
			ev.Meta = map[string]string{
				"from_agent": donor.ID,
				"to_agent":   recv.ID,
				"diagnosis":  p.Diagnosis,
			}
			return ev, true
		}
	}
	return Event{}, false
}

// overloadedDescending returns doctors with load strictly above the
// threshold, most-loaded first.
func (s *Simulation) overloadedDescending(doctors []*staff.Agent, threshold float64) []*staff.Agent {
	var out []*staff.Agent
	for _, d := range doctors {
		if float64(d.PatientCount()) > threshold {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PatientCount() > out[j].PatientCount()
	})
	return out
}

// underloadedAscending returns doctors with load strictly below the
// threshold, least-loaded first.
func (s *Simulation) underloadedAscending(doctors []*staff.Agent, threshold float64) []*staff.Agent {
	var out []*staff.Agent
	for _, d := range doctors {
		if float64(d.PatientCount()) < threshold {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PatientCount() < out[j].PatientCount()
	})
	return out
}
