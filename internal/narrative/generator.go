// Generator — the two-branch contract: primary upstream generation with a
// deterministic role-keyed fallback. GenerateResponse always returns text.
package narrative

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
)

// fallbackTemplates are the canned responses per role. The selection is a
// stable hash of the prompt, so identical inputs produce identical fallbacks
// across runs — this is the tested default path and needs no upstream at all.
var fallbackTemplates = map[string][]string{
	"doctor": {
		"Reviewed the patient's latest vitals and adjusted the treatment plan accordingly.",
		"Ordered follow-up labs and scheduled a reassessment for the next rounds.",
		"Condition is consistent with the working diagnosis; continuing current management.",
		"Escalated monitoring frequency and briefed the nursing team on warning signs.",
	},
	"nurse": {
		"Completed scheduled observations; vitals recorded and charted.",
		"Administered prescribed medication and updated the medication record.",
		"Patient resting comfortably; no acute changes since last check.",
	},
	"pharmacist": {
		"Verified dosage against the formulary; no interactions flagged.",
		"Dispensed medication and confirmed administration schedule with the ward.",
	},
	"technician": {
		"Equipment calibrated and readings within expected range.",
		"Completed the requested imaging; results forwarded to the ordering physician.",
	},
	"admin": {
		"Updated the patient record and confirmed bed availability with the ward.",
		"Coordinated the transfer paperwork between departments.",
	},
}

var genericFallbacks = []string{
	"Noted the situation and recorded the observation in the patient chart.",
	"Assessed the current state and proceeded per standard protocol.",
}

// Generator assembles context and produces decision text, degrading to
// fallbacks on any upstream failure. It never returns an error and never
// returns an empty string.
type Generator struct {
	client *Client
}

// NewGenerator creates a generator. A nil client means fallback-only mode.
func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// GenerateResponse produces text for the given prompt in the voice of the
// given role. Upstream failures are logged at debug level and resolved via
// the fallback set; callers cannot observe the difference except in content.
func (g *Generator) GenerateResponse(prompt, role string, temperature float64) string {
	if g.client.Enabled() {
		system := fmt.Sprintf(
			"You are a %s in a hospital simulation. Respond in 1-2 professional sentences. Do not reference the simulation.",
			role)
		text, err := g.client.Complete(system, prompt, 150, temperature)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		if err != nil {
			slog.Debug("generation failed, using fallback", "role", role, "error", err)
		}
	}
	return g.fallback(prompt, role)
}

// fallback picks a canned response keyed by role, selected by a stable hash
// of the prompt.
func (g *Generator) fallback(prompt, role string) string {
	set, ok := fallbackTemplates[strings.ToLower(role)]
	if !ok || len(set) == 0 {
		set = genericFallbacks
	}
	h := fnv.New32a()
	h.Write([]byte(prompt))
	return set[h.Sum32()%uint32(len(set))]
}
