// Plan queue — ordered insertion and due-action selection.
package staff

import "time"

// AddPlan inserts a plan keeping the queue sorted by ascending start time.
// Linear insertion; agents carry tens of plans at most.
func (a *Agent) AddPlan(p *Plan) {
	idx := len(a.Plans)
	for i, existing := range a.Plans {
		if existing.Start.After(p.Start) {
			idx = i
			break
		}
	}
	a.Plans = append(a.Plans, nil)
	copy(a.Plans[idx+1:], a.Plans[idx:])
	a.Plans[idx] = p
}

// NextAction returns the due plan the agent should execute now: among plans
// whose start time has been reached and that are not yet executed, the one
// with the highest priority, ties broken by earliest start. Returns nil if
// nothing is due.
//
// This is selection only. The scheduler marks the returned plan Executed
// after dispatch; otherwise the same plan would be selected every tick.
func (a *Agent) NextAction(now time.Time) *Plan {
	var best *Plan
	for _, p := range a.Plans {
		if p.Executed || p.Start.After(now) {
			continue
		}
		if best == nil || p.Priority > best.Priority ||
			(p.Priority == best.Priority && p.Start.Before(best.Start)) {
			best = p
		}
	}
	return best
}

// PrunePlans drops executed plans whose end time has passed, keeping the
// queue from growing without bound over long runs.
func (a *Agent) PrunePlans(now time.Time) {
	kept := a.Plans[:0]
	for _, p := range a.Plans {
		if p.Executed && p.End.Before(now) {
			continue
		}
		kept = append(kept, p)
	}
	a.Plans = kept
}
