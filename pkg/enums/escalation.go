package enums

import "fmt"

// EscalationProcess selects which exception branch a yard escalation follows.
type EscalationProcess string

const (
	EscalationProcessReplacement EscalationProcess = "Replacement"
	EscalationProcessReturn      EscalationProcess = "Return"
	EscalationProcessJunk        EscalationProcess = "Junk"
)

var validEscalationProcesses = []EscalationProcess{
	EscalationProcessReplacement,
	EscalationProcessReturn,
	EscalationProcessJunk,
}

// String implements fmt.Stringer.
func (e EscalationProcess) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EscalationProcess.
func (e EscalationProcess) IsValid() bool {
	for _, candidate := range validEscalationProcesses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEscalationProcess converts raw input into an EscalationProcess.
func ParseEscalationProcess(value string) (EscalationProcess, error) {
	for _, candidate := range validEscalationProcesses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escalation process %q", value)
}

// EscalationCause records why the yard escalated.
type EscalationCause string

const (
	EscalationCauseDamaged        EscalationCause = "Damaged"
	EscalationCauseDefective      EscalationCause = "Defective"
	EscalationCauseIncorrect      EscalationCause = "Incorrect"
	EscalationCauseNotProgramming EscalationCause = "Not programming"
	EscalationCausePersonal       EscalationCause = "Personal reason"
	EscalationCauseOther          EscalationCause = "Other"
)

var validEscalationCauses = []EscalationCause{
	EscalationCauseDamaged,
	EscalationCauseDefective,
	EscalationCauseIncorrect,
	EscalationCauseNotProgramming,
	EscalationCausePersonal,
	EscalationCauseOther,
}

// String implements fmt.Stringer.
func (e EscalationCause) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EscalationCause.
func (e EscalationCause) IsValid() bool {
	for _, candidate := range validEscalationCauses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEscalationCause converts raw input into an EscalationCause.
func ParseEscalationCause(value string) (EscalationCause, error) {
	for _, candidate := range validEscalationCauses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escalation cause %q", value)
}
