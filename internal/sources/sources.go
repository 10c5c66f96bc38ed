package sources

// Status classifies the outcome of a single source fetch within a run.
type Status string

const (
	// StatusOK means the source answered and its data made it into the run.
	StatusOK Status = "ok"
	// StatusFailed means the fetch degraded and a documented default was
	// substituted downstream.
	StatusFailed Status = "failed"
	// StatusSkipped means the fetch was never attempted (missing credential).
	StatusSkipped Status = "skipped"
)

// Outcome records how one source fared during a run. Reason is empty for
// StatusOK.
type Outcome struct {
	Source string `json:"source"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// AnyFailed reports whether at least one outcome is StatusFailed. Skipped
// sources do not count as failures.
func AnyFailed(outcomes []Outcome) bool {
	for _, outcome := range outcomes {
		if outcome.Status == StatusFailed {
			return true
		}
	}
	return false
}
