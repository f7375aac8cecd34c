package domain

// Priority is the queue item priority label understood by Orchestrator.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityNormal Priority = "Normal"
	PriorityLow    Priority = "Low"
)

// Salary thresholds, both inclusive.
const (
	HighSalaryThreshold = 300000
	LowSalaryThreshold  = 100000
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Classify maps a salary to a priority. NaN falls through to Normal.
func Classify(salary float64) Priority {
	if salary >= HighSalaryThreshold {
		return PriorityHigh
	} else if salary <= LowSalaryThreshold {
		return PriorityLow
	}
	return PriorityNormal
}
