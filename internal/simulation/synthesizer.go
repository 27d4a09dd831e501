package simulation

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"clickstream/internal/domain/catalog"
	"clickstream/internal/domain/clickstream"
	"clickstream/internal/metrics"
	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
)

// Config wires a Synthesizer
type Config struct {
	Store   *Store
	Catalog *catalog.Catalog
	Profile Profile

	// Rand overrides the seeded source; Seed is used when Rand is nil
	Rand Rand
	Seed uint64

	// Now defaults to time.Now
	Now func() time.Time
}

// Synthesizer advances user sessions one transition at a time and emits an event per step.
// Calls are serialized, so a session's read-modify-write is atomic.
type Synthesizer struct {
	mu      sync.Mutex
	store   *Store
	catalog *catalog.Catalog
	profile *compiledProfile
	policy  *TransitionPolicy
	rng     Rand
	now     func() time.Time
	log     *logger.Logger
}

// NewSynthesizer validates the catalog and profile; any problem is a configuration error
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if cfg.Store == nil {
		cfg.Store = NewStore()
	}
	if cfg.Catalog == nil || len(cfg.Catalog.Categories()) == 0 {
		return nil, errors.ErrEmptyCatalog
	}

	profile, err := cfg.Profile.compile()
	if err != nil {
		return nil, errors.Wrap(err, "invalid simulation profile")
	}

	rng := cfg.Rand
	if rng == nil {
		rng = NewRand(cfg.Seed)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Synthesizer{
		store:   cfg.Store,
		catalog: cfg.Catalog,
		profile: profile,
		policy:  &TransitionPolicy{catalog: cfg.Catalog, profile: profile},
		rng:     rng,
		now:     now,
		log:     logger.Get().With("component", "synthesizer"),
	}, nil
}

// Store returns the session store backing the synthesizer
func (s *Synthesizer) Store() *Store {
	return s.store
}

// Warmup creates n fresh users so generation starts from an active pool
func (s *Synthesizer) Warmup(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < n; i++ {
		s.getOrCreateSession(NewUserID())
	}
	s.log.Infof("Warmed up session store with %d users", n)
}

// GetOrCreateSession resolves the session of userID, possibly starting a new visit
func (s *Synthesizer) GetOrCreateSession(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateSession(userID)
}

func (s *Synthesizer) getOrCreateSession(userID string) *Session {
	return s.store.GetOrCreate(
		userID,
		func() bool { return s.rng.Float64() < s.profile.NewSessionProbability },
		func(prev *Session) *Session {
			if prev == nil {
				metrics.SessionsStarted.WithLabelValues("new").Inc()
			} else {
				metrics.SessionsStarted.WithLabelValues("returning").Inc()
			}
			return s.profile.newSession(s.rng, prev)
		},
	)
}

// GenerateEvent picks a user, returning ones more likely as the pool grows, and advances them
func (s *Synthesizer) GenerateEvent() clickstream.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(s.selectUser())
}

// GenerateEventFor advances the given user by one transition
func (s *Synthesizer) GenerateEventFor(userID string) clickstream.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(userID)
}

// GenerateBatch produces n events in generation order
func (s *Synthesizer) GenerateBatch(n int) []clickstream.Event {
	events := make([]clickstream.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, s.GenerateEvent())
	}
	return events
}

// selectUser draws uniformly from known users plus a few freshly minted candidates
func (s *Synthesizer) selectUser() string {
	active := s.store.UserIDs()
	if len(active) == 0 {
		return NewUserID()
	}

	candidates := active
	for i := 0; i < s.profile.NewUserCandidates; i++ {
		candidates = append(candidates, NewUserID())
	}
	return pick(s.rng, candidates)
}

func (s *Synthesizer) step(userID string) clickstream.Event {
	sess := s.getOrCreateSession(userID)

	requested := s.profile.nextSampler(sess.LastEventType).Sample(s.rng)
	out := s.policy.Resolve(requested, sess.Snapshot(), s.rng)
	if out.Downgraded() {
		metrics.TransitionDowngrades.WithLabelValues(string(out.Requested)).Inc()
		s.log.Debugf("Downgraded %s to %s for %s: cart is empty", out.Requested, out.EventType, userID)
	}

	out.Apply(sess)

	ev := clickstream.Event{
		UserID:         userID,
		SessionID:      sess.SessionID,
		Timestamp:      clickstream.Timestamp(s.now().UTC()),
		EventType:      out.EventType,
		PageURL:        out.PageURL,
		Browser:        sess.Browser,
		OS:             sess.OS,
		IPAddress:      fmt.Sprintf("192.168.%d.%d", s.rng.IntN(256), s.rng.IntN(256)),
		ReferralSource: sess.ReferralSource,
		DeviceType:     sess.DeviceType,
		GeoCountry:     sess.GeoCountry,
		GeoCity:        sess.GeoCity,
		IsNewUser:      sess.IsNewUser,
		CartSize:       len(sess.CartItems),
	}
	s.fillProductFields(&ev, out)

	metrics.EventsGenerated.WithLabelValues(string(ev.EventType)).Inc()
	return ev
}

func (s *Synthesizer) fillProductFields(ev *clickstream.Event, out Outcome) {
	switch {
	case out.EventType == clickstream.EventPurchase && len(out.Purchased) > 0:
		total := decimal.Zero
		brands := make([]string, 0, len(out.Purchased))
		seenBrand := make(map[string]bool)
		for _, p := range out.Purchased {
			ev.ProductID = append(ev.ProductID, p.ID)
			ev.ProductName = append(ev.ProductName, p.Name)
			if !seenBrand[p.Brand] {
				seenBrand[p.Brand] = true
				brands = append(brands, p.Brand)
			}
			total = total.Add(decimal.NewFromFloat(p.Price))
		}
		ev.ProductBrand = brands
		ev.ProductPrice = clickstream.TotalPrice(total)
		mixed := clickstream.CategoryMixed
		ev.Category = &mixed

	case out.Product != nil:
		p := out.Product
		ev.ProductID = []string{p.ID}
		ev.ProductName = []string{p.Name}
		ev.ProductBrand = []string{p.Brand}
		ev.ProductPrice = clickstream.UnitPrice(p.Price)
		if category, ok := s.catalog.CategoryOf(*p); ok {
			ev.Category = &category
		}
	}
}

// Stats reports store size without racing an in-flight transition
func (s *Synthesizer) Stats() (users int, cartItems int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Stats()
}
