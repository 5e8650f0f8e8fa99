package domain

// Provenance classifies who caused a step change.
type Provenance int

const (
	// ProvenanceUser is the default: direct UI interaction.
	ProvenanceUser Provenance = iota
	// ProvenanceAgent marks changes made by an Agent Bridge operation.
	ProvenanceAgent
)

// String returns a human-readable provenance.
func (p Provenance) String() string {
	switch p {
	case ProvenanceUser:
		return "user"
	case ProvenanceAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// StepChange is emitted by the session store on every SetStep call,
// including same-index sets used to repeat the current step.
type StepChange struct {
	Index       int // new 0-based step index
	Previous    int // index before the change
	TotalSteps  int
	Instruction string
	Completed   bool // the new step is already marked complete
	Provenance  Provenance
}

// Number returns the 1-based step number of the change.
func (c StepChange) Number() int { return c.Index + 1 }

// Repeat reports whether the change re-announces the same step.
func (c StepChange) Repeat() bool { return c.Index == c.Previous }
