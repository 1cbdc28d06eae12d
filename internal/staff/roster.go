// Roster — agent creation and lookup. Agents are created at initialization
// or through explicit commands and never destroyed during a run.
package staff

import "fmt"

// Roster owns all staff agents for one simulation.
type Roster struct {
	agents []*Agent
	index  map[string]*Agent
	nextID int
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{index: make(map[string]*Agent)}
}

// CreateDoctor adds a doctor with experience-derived skill scores and returns
// it. Each year of experience buys a role-specific increment, capped at 1.0.
func (r *Roster) CreateDoctor(name, specialization string, yearsExperience int) *Agent {
	r.nextID++
	y := float64(yearsExperience)
	a := &Agent{
		ID:             fmt.Sprintf("D%03d", r.nextID),
		Role:           RoleDoctor,
		Name:           name,
		Specialization: specialization,
		Experience:     yearsExperience,
		Status:         StatusAvailable,
		Skills: map[string]float64{
			"diagnosis":          capSkill(0.5 + y*0.05),
			"surgery":            capSkill(0.3 + y*0.07),
			"patient_care":       capSkill(0.6 + y*0.04),
			"emergency_response": capSkill(0.4 + y*0.06),
		},
	}
	r.add(a)
	return a
}

// CreateStaff adds a non-doctor staff member with the given role.
func (r *Roster) CreateStaff(name string, role Role) *Agent {
	r.nextID++
	a := &Agent{
		ID:     fmt.Sprintf("S%03d", r.nextID),
		Role:   role,
		Name:   name,
		Status: StatusAvailable,
		Skills: map[string]float64{},
	}
	r.add(a)
	return a
}

func (r *Roster) add(a *Agent) {
	r.agents = append(r.agents, a)
	r.index[a.ID] = a
}

// Get returns the agent with the given id, or nil.
func (r *Roster) Get(id string) *Agent { return r.index[id] }

// Agents returns all agents in creation order.
func (r *Roster) Agents() []*Agent { return r.agents }

// Doctors returns agents with the doctor role, in creation order.
func (r *Roster) Doctors() []*Agent {
	var out []*Agent
	for _, a := range r.agents {
		if a.Role == RoleDoctor {
			out = append(out, a)
		}
	}
	return out
}

func capSkill(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
