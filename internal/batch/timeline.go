package batch

// StepStatus marks a timeline step for display.
type StepStatus int

const (
	StepUpcoming StepStatus = iota
	StepActive
	StepDone
	StepError
)

func (s StepStatus) String() string {
	switch s {
	case StepUpcoming:
		return "upcoming"
	case StepActive:
		return "active"
	case StepDone:
		return "done"
	case StepError:
		return "error"
	default:
		return ""
	}
}

// Step is one named entry in the batch move timeline.
type Step struct {
	Name   string
	Status StepStatus
}

// Timeline derives the descriptive step list from the current phase. It
// carries no state of its own; rendering the same phase always yields
// the same steps.
func Timeline(phase Phase) []Step {
	names := []string{"queued", "confirmed", "executing", "report"}

	// Index of the step currently active for each phase; -1 means the
	// timeline has not started.
	active := -1
	failed := false
	switch phase {
	case PendingExecution:
		active = 0
	case Executing:
		active = 2
	case Executed, PollingReport:
		active = 3
	case Done:
		active = len(names)
	case Failed:
		active = 2
		failed = true
	}

	steps := make([]Step, len(names))
	for i, name := range names {
		status := StepUpcoming
		switch {
		case active < 0:
			// all upcoming
		case i < active:
			status = StepDone
		case i == active:
			status = StepActive
			if failed {
				status = StepError
			}
		}
		steps[i] = Step{Name: name, Status: status}
	}
	return steps
}
