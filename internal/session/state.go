package session

// AuthState is where an authentication session stands
type AuthState int

const (
	Searching AuthState = iota
	Matched
	Failed
)

func (s AuthState) String() string {
	switch s {
	case Searching:
		return "searching"
	case Matched:
		return "matched"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureReason explains a Failed authentication
type FailureReason int

const (
	ReasonNone FailureReason = iota
	// ReasonCancelled covers the quit key and process interrupts
	ReasonCancelled
	ReasonCaptureError
	// ReasonPersistenceError means the candidate snapshot could not be loaded
	ReasonPersistenceError
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonCancelled:
		return "cancelled"
	case ReasonCaptureError:
		return "capture_error"
	case ReasonPersistenceError:
		return "persistence_error"
	default:
		return "unknown"
	}
}

// EnrollState is where an enrollment session stands
type EnrollState int

const (
	AwaitingName EnrollState = iota
	AwaitingCapture
	Committed
	Terminated
)

func (s EnrollState) String() string {
	switch s {
	case AwaitingName:
		return "awaiting_name"
	case AwaitingCapture:
		return "awaiting_capture"
	case Committed:
		return "committed"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
