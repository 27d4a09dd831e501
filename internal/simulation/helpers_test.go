package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clickstream/internal/domain/catalog"
	"clickstream/internal/domain/clickstream"
	"clickstream/pkg/weighted"
)

var (
	alpha = catalog.Product{ID: "A", Name: "Alpha", Brand: "Acme", Price: 10.00, Stock: 5}
	beta  = catalog.Product{ID: "B", Name: "Beta", Brand: "Bolt", Price: 5.50, Stock: 3}
	gamma = catalog.Product{ID: "C", Name: "Gamma", Brand: "Acme", Price: 1.25, Stock: 9}
)

var fixedNow = time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Category{
		{Name: "Gadgets", Products: []catalog.Product{alpha, beta}},
		{Name: "Gizmos", Products: []catalog.Product{gamma}},
	})
	require.NoError(t, err)
	return c
}

// always returns a row that deterministically moves to next
func always(next clickstream.EventType) []weighted.Choice[clickstream.EventType] {
	return []weighted.Choice[clickstream.EventType]{{Label: next, Weight: 1}}
}

// stickyProfile never renews sessions so tests drive exact transitions
func stickyProfile() Profile {
	p := DefaultProfile()
	p.NewSessionProbability = 0
	return p
}

func newTestSynthesizer(t *testing.T, profile Profile) *Synthesizer {
	t.Helper()
	s, err := NewSynthesizer(Config{
		Catalog: testCatalog(t),
		Profile: profile,
		Seed:    42,
		Now:     func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return s
}

func putSession(s *Synthesizer, userID string, sess *Session) {
	if sess.SessionID == "" {
		sess.SessionID = NewSessionID()
	}
	if sess.LastPage == "" {
		sess.LastPage = PageHome
	}
	sess.Attributes = Attributes{
		ReferralSource: "direct",
		DeviceType:     "Desktop",
		GeoCountry:     "UK",
		GeoCity:        "London",
		OS:             "Linux",
		Browser:        "Firefox",
	}
	s.Store().Put(userID, sess)
}

func productPtr(p catalog.Product) *catalog.Product {
	return &p
}
