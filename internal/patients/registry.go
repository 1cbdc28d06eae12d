package patients

import (
	"sort"
	"time"

	"github.com/talgya/careflow/internal/config"
	"github.com/talgya/careflow/internal/facility"
)

// ruleKey indexes the transfer-rule table.
type ruleKey struct {
	dept   string
	status PatientStatus
}

// Registry tracks active patients and keeps department occupancy consistent
// with every admission, transfer, and discharge. All mutations are atomic:
// an operation either fully applies or leaves no trace.
type Registry struct {
	fac      *facility.Facility
	patients map[string]*Patient
	rules    map[ruleKey]string
}

// NewRegistry creates a registry over the given facility with the injectable
// transfer-rule table.
func NewRegistry(fac *facility.Facility, rules []config.TransferRule) *Registry {
	r := &Registry{
		fac:      fac,
		patients: make(map[string]*Patient),
		rules:    make(map[ruleKey]string, len(rules)),
	}
	for _, rule := range rules {
		r.rules[ruleKey{dept: rule.From, status: PatientStatus(rule.Status)}] = rule.To
	}
	return r
}

// Admit creates a patient record in the given department. Fails (returning
// false) when the patient id is already active, the department is unknown, or
// it has no free capacity. Occupancy and record creation go together.
func (r *Registry) Admit(id, department string, status PatientStatus, diagnosis string, now time.Time) bool {
	if _, exists := r.patients[id]; exists {
		return false
	}
	dept := r.fac.Department(department)
	if dept == nil {
		return false
	}
	if !dept.ApplyDelta(1) {
		return false
	}
	r.patients[id] = &Patient{
		ID:         id,
		Department: department,
		Status:     status,
		Diagnosis:  diagnosis,
		AdmittedAt: now,
	}
	return true
}

// Transfer moves a patient to another department. Transfer to the current
// department is a no-op and succeeds without touching occupancy. On a full
// destination the transfer fails atomically: the source occupancy is
// unchanged and the patient stays put.
func (r *Registry) Transfer(id, targetDept string) bool {
	p, ok := r.patients[id]
	if !ok {
		return false
	}
	if p.Department == targetDept {
		return true
	}
	target := r.fac.Department(targetDept)
	if target == nil {
		return false
	}
	source := r.fac.Department(p.Department)

	if !target.ApplyDelta(1) {
		return false
	}
	if source != nil {
		source.ApplyDelta(-1)
	}
	p.Department = targetDept
	return true
}

// UpdateStatus records the new status and consults the transfer-rule table.
// If a rule matches and the destination has capacity, the patient moves;
// otherwise the status change alone is recorded — the facility never forces
// a transfer it cannot accommodate. Returns the destination department when
// a transfer happened, else "".
func (r *Registry) UpdateStatus(id string, status PatientStatus) (string, bool) {
	p, ok := r.patients[id]
	if !ok {
		return "", false
	}
	p.Status = status

	if target, matched := r.rules[ruleKey{dept: p.Department, status: status}]; matched {
		if r.Transfer(id, target) {
			return target, true
		}
	}
	return "", true
}

// Discharge removes the patient and frees department occupancy.
func (r *Registry) Discharge(id string) bool {
	p, ok := r.patients[id]
	if !ok {
		return false
	}
	if dept := r.fac.Department(p.Department); dept != nil {
		dept.ApplyDelta(-1)
	}
	delete(r.patients, id)
	return true
}

// Get returns the patient with the given id, or nil.
func (r *Registry) Get(id string) *Patient { return r.patients[id] }

// Count returns the number of active patients.
func (r *Registry) Count() int { return len(r.patients) }

// All returns active patients sorted by id.
func (r *Registry) All() []*Patient {
	out := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByDepartment returns department id → active patient count.
func (r *Registry) ByDepartment() map[string]int {
	counts := make(map[string]int)
	for _, p := range r.patients {
		counts[p.Department]++
	}
	return counts
}

// ByStatus returns status → active patient count.
func (r *Registry) ByStatus() map[PatientStatus]int {
	counts := make(map[PatientStatus]int)
	for _, p := range r.patients {
		counts[p.Status]++
	}
	return counts
}
