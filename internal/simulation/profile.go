package simulation

import (
	"clickstream/internal/domain/clickstream"
	"clickstream/pkg/errors"
	"clickstream/pkg/weighted"
)

// Well-known page paths
const (
	PageHome            = "/"
	PageProducts        = "/products"
	PageCart            = "/cart"
	PageCheckout        = "/checkout"
	PagePurchaseSuccess = "/purchase_success"
	PageSearchResults   = "/search_results"

	productPagePrefix = "/products/"
)

// nonBrowsePages are never picked for a general page view
var nonBrowsePages = map[string]bool{
	PageProducts:        true,
	PageCart:            true,
	PageCheckout:        true,
	PagePurchaseSuccess: true,
}

// Country lists the cities sessions from that country are placed in
type Country struct {
	Name   string
	Cities []string
}

// Profile is the tunable surface of the simulator
type Profile struct {
	Pages      []string
	EventTypes []clickstream.EventType

	// Transitions maps a state to its next-state distribution.
	// Rows must exist for StateStartSession and EventPageView;
	// states without a row fall back to the page_view row.
	Transitions map[clickstream.EventType][]weighted.Choice[clickstream.EventType]

	ReferralSources  []weighted.Choice[string]
	DeviceTypes      []weighted.Choice[string]
	Geography        []Country
	Browsers         []string
	OperatingSystems []string

	NewSessionProbability  float64
	GeneralPageProbability float64
	NewUserCandidates      int
}

// DefaultProfile is the storefront behaviour the generator ships with
func DefaultProfile() Profile {
	type row = []weighted.Choice[clickstream.EventType]

	return Profile{
		Pages: []string{PageHome, PageProducts, "/about", "/contact", PageCart, PageCheckout, PagePurchaseSuccess},
		EventTypes: []clickstream.EventType{
			clickstream.EventPageView,
			clickstream.EventAddToCart,
			clickstream.EventRemoveFromCart,
			clickstream.EventPurchase,
			clickstream.EventSearch,
			clickstream.EventCheckout,
			clickstream.EventEndSession,
		},
		Transitions: map[clickstream.EventType][]weighted.Choice[clickstream.EventType]{
			clickstream.StateStartSession: row{
				{Label: clickstream.EventPageView, Weight: 0.8},
				{Label: clickstream.EventSearch, Weight: 0.2},
			},
			clickstream.EventPageView: row{
				{Label: clickstream.EventPageView, Weight: 0.6},
				{Label: clickstream.EventAddToCart, Weight: 0.2},
				{Label: clickstream.EventSearch, Weight: 0.1},
				{Label: clickstream.EventEndSession, Weight: 0.1},
			},
			clickstream.EventAddToCart: row{
				{Label: clickstream.EventPageView, Weight: 0.4},
				{Label: clickstream.EventCheckout, Weight: 0.4},
				{Label: clickstream.EventRemoveFromCart, Weight: 0.1},
				{Label: clickstream.EventEndSession, Weight: 0.1},
			},
			clickstream.EventRemoveFromCart: row{
				{Label: clickstream.EventPageView, Weight: 0.7},
				{Label: clickstream.EventAddToCart, Weight: 0.2},
				{Label: clickstream.EventEndSession, Weight: 0.1},
			},
			clickstream.EventSearch: row{
				{Label: clickstream.EventPageView, Weight: 0.7},
				{Label: clickstream.EventSearch, Weight: 0.2},
				{Label: clickstream.EventEndSession, Weight: 0.1},
			},
			clickstream.EventCheckout: row{
				{Label: clickstream.EventPurchase, Weight: 0.7},
				{Label: clickstream.EventPageView, Weight: 0.2},
				{Label: clickstream.EventEndSession, Weight: 0.1},
			},
			clickstream.EventPurchase: row{
				{Label: clickstream.EventPageView, Weight: 0.9},
				{Label: clickstream.EventEndSession, Weight: 0.1},
			},
		},
		ReferralSources: []weighted.Choice[string]{
			{Label: "organic_search", Weight: 0.4},
			{Label: "direct", Weight: 0.2},
			{Label: "social_media", Weight: 0.15},
			{Label: "paid_ad", Weight: 0.15},
			{Label: "email_campaign", Weight: 0.1},
		},
		DeviceTypes: []weighted.Choice[string]{
			{Label: "Desktop", Weight: 0.6},
			{Label: "Mobile", Weight: 0.3},
			{Label: "Tablet", Weight: 0.1},
		},
		Geography: []Country{
			{Name: "USA", Cities: []string{"New York", "Los Angeles", "Chicago", "Houston", "Phoenix"}},
			{Name: "India", Cities: []string{"Mumbai", "Bengaluru", "Delhi", "Chennai", "Hyderabad"}},
			{Name: "Germany", Cities: []string{"Berlin", "Munich", "Hamburg", "Frankfurt"}},
			{Name: "UK", Cities: []string{"London", "Manchester", "Birmingham"}},
			{Name: "Australia", Cities: []string{"Sydney", "Melbourne", "Brisbane"}},
		},
		Browsers:               []string{"Chrome", "Firefox", "Safari", "Edge"},
		OperatingSystems:       []string{"Windows", "macOS", "Linux", "Android", "iOS"},
		NewSessionProbability:  0.05,
		GeneralPageProbability: 0.6,
		NewUserCandidates:      5,
	}
}

// compiledProfile holds validated samplers built from a Profile
type compiledProfile struct {
	Profile

	transitions  map[clickstream.EventType]*weighted.Sampler[clickstream.EventType]
	referrals    *weighted.Sampler[string]
	devices      *weighted.Sampler[string]
	generalPages []string
}

// compile validates the profile once, at startup
func (p Profile) compile() (*compiledProfile, error) {
	if len(p.Pages) == 0 {
		return nil, errors.NewValidationError("profile.pages", "must not be empty", nil)
	}

	var general []string
	for _, page := range p.Pages {
		if !nonBrowsePages[page] {
			general = append(general, page)
		}
	}
	if len(general) == 0 {
		return nil, errors.NewValidationError("profile.pages", "no browsable page outside cart/checkout/products/success", p.Pages)
	}

	known := make(map[clickstream.EventType]bool, len(p.EventTypes))
	for _, et := range p.EventTypes {
		known[et] = true
	}
	for _, required := range []clickstream.EventType{clickstream.StateStartSession, clickstream.EventPageView} {
		if _, ok := p.Transitions[required]; !ok {
			return nil, errors.NewValidationError("profile.transitions", "missing required row", required)
		}
	}
	if !known[clickstream.EventPageView] {
		return nil, errors.NewValidationError("profile.event_types", "page_view is required", p.EventTypes)
	}

	transitions := make(map[clickstream.EventType]*weighted.Sampler[clickstream.EventType], len(p.Transitions))
	for state, row := range p.Transitions {
		if state != clickstream.StateStartSession && !known[state] {
			return nil, errors.Wrapf(errors.ErrUnknownState, "transition row %q", state)
		}
		for _, next := range row {
			if !known[next.Label] {
				return nil, errors.Wrapf(errors.ErrUnknownState, "row %q targets %q", state, next.Label)
			}
		}
		s, err := weighted.New(row)
		if err != nil {
			return nil, errors.Wrapf(err, "transition row %q", state)
		}
		transitions[state] = s
	}

	referrals, err := weighted.New(p.ReferralSources)
	if err != nil {
		return nil, errors.Wrap(err, "referral sources")
	}
	devices, err := weighted.New(p.DeviceTypes)
	if err != nil {
		return nil, errors.Wrap(err, "device types")
	}

	if len(p.Geography) == 0 {
		return nil, errors.NewValidationError("profile.geography", "must not be empty", nil)
	}
	for _, c := range p.Geography {
		if len(c.Cities) == 0 {
			return nil, errors.NewValidationError("profile.geography", "country has no cities", c.Name)
		}
	}
	if len(p.Browsers) == 0 {
		return nil, errors.NewValidationError("profile.browsers", "must not be empty", nil)
	}
	if len(p.OperatingSystems) == 0 {
		return nil, errors.NewValidationError("profile.operating_systems", "must not be empty", nil)
	}
	if p.NewSessionProbability < 0 || p.NewSessionProbability > 1 {
		return nil, errors.NewValidationError("profile.new_session_probability", "must be within [0,1]", p.NewSessionProbability)
	}
	if p.GeneralPageProbability < 0 || p.GeneralPageProbability > 1 {
		return nil, errors.NewValidationError("profile.general_page_probability", "must be within [0,1]", p.GeneralPageProbability)
	}
	if p.NewUserCandidates < 0 {
		return nil, errors.NewValidationError("profile.new_user_candidates", "must not be negative", p.NewUserCandidates)
	}

	return &compiledProfile{
		Profile:      p,
		transitions:  transitions,
		referrals:    referrals,
		devices:      devices,
		generalPages: general,
	}, nil
}

// nextSampler returns the row for state, falling back to page_view
func (c *compiledProfile) nextSampler(state clickstream.EventType) *weighted.Sampler[clickstream.EventType] {
	if s, ok := c.transitions[state]; ok {
		return s
	}
	return c.transitions[clickstream.EventPageView]
}
