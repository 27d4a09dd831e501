package simulation

import (
	"clickstream/internal/domain/clickstream"
)

// rollAttributes draws every session attribute from scratch
func (c *compiledProfile) rollAttributes(r Rand) Attributes {
	country := pick(r, c.Geography)
	return Attributes{
		ReferralSource: c.referrals.Sample(r),
		DeviceType:     c.devices.Sample(r),
		GeoCountry:     country.Name,
		GeoCity:        pick(r, country.Cities),
		OS:             pick(r, c.OperatingSystems),
		Browser:        pick(r, c.Browsers),
	}
}

// newSession builds the session that replaces prev.
// A returning user (prev != nil) keeps their location; everything else is re-rolled.
func (c *compiledProfile) newSession(r Rand, prev *Session) *Session {
	attrs := c.rollAttributes(r)
	if prev != nil {
		attrs.GeoCountry = prev.GeoCountry
		attrs.GeoCity = prev.GeoCity
	}

	return &Session{
		SessionID:     NewSessionID(),
		LastPage:      pick(r, c.Pages),
		LastEventType: clickstream.StateStartSession,
		IsNewUser:     prev == nil,
		Attributes:    attrs,
	}
}
