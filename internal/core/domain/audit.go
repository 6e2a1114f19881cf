package domain

import "time"

// AuthEventType classifies an entry in the authentication audit trail.
type AuthEventType string

const (
	EventRegister    AuthEventType = "register"
	EventLogin       AuthEventType = "login"
	EventLoginFailed AuthEventType = "login_failed"
)

// AuthEvent records one registration or login attempt. It never carries a
// password or a token.
type AuthEvent struct {
	Type       AuthEventType
	SubjectID  string
	Role       Role
	Store      StoreKind
	Identifier string
	Reason     string
	OccurredAt time.Time
}

// ShardKey groups events for the same account onto one audit worker.
func (e AuthEvent) ShardKey() string {
	if e.SubjectID != "" {
		return e.SubjectID
	}
	return e.Identifier
}
