package identity

import (
	"context"

	"github.com/google/uuid"
)

// Role is the directory role attached to a provisioned profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Session is the opaque authenticated identity as exposed by the external
// identity provider. It carries no directory data; that is resolved separately.
type Session struct {
	UserId uuid.UUID
	Email  string
}

// EventType describes what changed on the underlying identity session.
type EventType string

const (
	EventInitial        EventType = "INITIAL"
	EventSignedIn       EventType = "SIGNED_IN"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventSignedOut      EventType = "SIGNED_OUT"
)

// ChangeEvent is delivered to subscribers whenever a session changes.
// Session identifies the affected identity; for SIGNED_OUT it is the
// session being ended, or nil when the publisher cannot supply one.
type ChangeEvent struct {
	Type    EventType
	Session *Session
}

// Handler processes a session change event.
type Handler func(ctx context.Context, event ChangeEvent)

// Provider is the identity/session collaborator. Implementations wrap the
// actual auth system (JWT at the HTTP boundary, a fake in tests).
type Provider interface {
	// Current returns the active session, or nil when signed out.
	Current(ctx context.Context) (*Session, error)

	// Subscribe registers a handler for session changes and returns an
	// unsubscribe function. The handler never outlives the returned
	// unsubscribe call.
	Subscribe(handler Handler) (unsubscribe func())
}

// Profile is a fully resolved directory record for an authenticated user.
type Profile struct {
	UserId       uuid.UUID
	CompanyId    uuid.UUID
	FullName     string
	Role         Role
	IsSuperAdmin bool
}

// State tags a Resolution so callers never guess presence from nil fields.
type State string

const (
	// StateUnauthenticated: no session, sign-out, or a failed lookup (fail-closed).
	StateUnauthenticated State = "UNAUTHENTICATED"
	// StateProvisioning: a valid session whose directory record does not exist yet.
	StateProvisioning State = "PROVISIONING"
	// StateAuthenticated: session plus directory record.
	StateAuthenticated State = "AUTHENTICATED"
)

// Resolution is the tagged outcome of resolving a session change.
// Profile is non-nil exactly when State is AUTHENTICATED.
type Resolution struct {
	State   State
	Profile *Profile
}

func Unauthenticated() Resolution {
	return Resolution{State: StateUnauthenticated}
}

func Provisioning() Resolution {
	return Resolution{State: StateProvisioning}
}

func Authenticated(p *Profile) Resolution {
	return Resolution{State: StateAuthenticated, Profile: p}
}
