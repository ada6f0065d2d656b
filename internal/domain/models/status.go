// internal/domain/models/status.go
package models

// ApplicationStatus is the lifecycle state shared by a volunteer's canonical
// application entry and the opportunity's mirrored applicant entry.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "Pending"
	StatusAccepted ApplicationStatus = "Accepted"
	StatusRejected ApplicationStatus = "Rejected"
)

// ApplicationStatuses is the canonical list, used for schema enums and input validation.
var ApplicationStatuses = []ApplicationStatus{StatusPending, StatusAccepted, StatusRejected}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a provider may move an application from s to next.
//
//	Pending  -> Accepted | Rejected
//	Accepted -> Rejected
//
// Rejected is terminal. Setting the current status again is not a transition.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusAccepted || next == StatusRejected
	case StatusAccepted:
		return next == StatusRejected
	}
	return false
}
