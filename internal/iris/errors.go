package iris

import "fmt"

// ConfigurationError reports an invalid or incomplete alerter configuration.
// It is raised at construction time and is fatal to the alerter instance.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("iris: invalid configuration option %q: %s", e.Option, e.Reason)
}

// SubmissionError reports a failed HTTP submission: either a non-200 response
// or a transport-level failure wrapped as the cause. For IOC attachment
// failures it also names the case and the index of the failing record so the
// partially populated remote state is diagnosable.
type SubmissionError struct {
	Endpoint string
	Status   int
	CaseID   int64
	IOCIndex int // -1 unless an IOC attachment failed
	Err      error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.IOCIndex >= 0 && e.Err != nil:
		return fmt.Sprintf("iris: adding IOC %d to case %d via %s: %v", e.IOCIndex, e.CaseID, e.Endpoint, e.Err)
	case e.IOCIndex >= 0:
		return fmt.Sprintf("iris: adding IOC %d to case %d via %s: status %d", e.IOCIndex, e.CaseID, e.Endpoint, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("iris: posting to %s: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("iris: posting to %s: status %d", e.Endpoint, e.Status)
	}
}

func (e *SubmissionError) Unwrap() error { return e.Err }
