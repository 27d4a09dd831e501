package simulation

import (
	"strings"

	"github.com/google/uuid"

	"clickstream/internal/domain/catalog"
	"clickstream/internal/domain/clickstream"
)

// Attributes are fixed for the lifetime of a session
type Attributes struct {
	ReferralSource string
	DeviceType     string
	GeoCountry     string
	GeoCity        string
	OS             string
	Browser        string
}

// Session is the mutable state of one user's visit
type Session struct {
	SessionID            string
	LastPage             string
	CartItems            []catalog.Product
	LastEventType        clickstream.EventType
	CurrentProductViewed *catalog.Product
	IsNewUser            bool
	Attributes
}

// Snapshot returns a read-only view used by the transition policy
func (s *Session) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		LastPage:             s.LastPage,
		Cart:                 s.CartItems,
		CurrentProductViewed: s.CurrentProductViewed,
	}
}

// SessionSnapshot is the part of a session a transition may look at
type SessionSnapshot struct {
	LastPage             string
	Cart                 []catalog.Product
	CurrentProductViewed *catalog.Product
}

func hexID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// NewUserID mints an id for a user never seen before
func NewUserID() string {
	return "user_" + hexID(8)
}

// NewSessionID mints the id of a fresh session
func NewSessionID() string {
	return "session_" + hexID(12)
}
