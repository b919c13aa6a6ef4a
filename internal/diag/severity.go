package diag

// Severity grades a diagnostic. The order is meaningful: bag queries
// and sorting compare severities numerically, so Error sorts above
// Warning above Info.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "ERROR"
	case SevWarning:
		return "WARNING"
	case SevInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}
