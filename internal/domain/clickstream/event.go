package clickstream

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EventType labels a clickstream event and doubles as a state of the session state machine
type EventType string

const (
	EventPageView       EventType = "page_view"
	EventAddToCart      EventType = "add_to_cart"
	EventRemoveFromCart EventType = "remove_from_cart"
	EventCheckout       EventType = "checkout"
	EventPurchase       EventType = "purchase"
	EventSearch         EventType = "search"
	EventEndSession     EventType = "end_session"

	// StateStartSession is the state of a session before its first event. Never emitted.
	StateStartSession EventType = "START_SESSION"
)

// CategoryMixed is the category reported for multi-product purchases
const CategoryMixed = "Mixed"

// TimestampLayout renders UTC with microseconds and a Z suffix
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Event is the wire record sent to the ingestion endpoint.
// Nullable fields marshal as JSON null, never omitted.
type Event struct {
	UserID         string        `json:"user_id"`
	SessionID      string        `json:"session_id"`
	Timestamp      Timestamp     `json:"timestamp"`
	EventType      EventType     `json:"event_type"`
	PageURL        string        `json:"page_url"`
	ProductID      []string      `json:"product_id"`
	ProductName    []string      `json:"product_name"`
	ProductBrand   []string      `json:"product_brand"`
	ProductPrice   *ProductPrice `json:"product_price"`
	Category       *string       `json:"category"`
	Browser        string        `json:"browser"`
	OS             string        `json:"os"`
	IPAddress      string        `json:"ip_address"`
	ReferralSource string        `json:"referral_source"`
	DeviceType     string        `json:"device_type"`
	GeoCountry     string        `json:"geo_country"`
	GeoCity        string        `json:"geo_city"`
	IsNewUser      bool          `json:"is_new_user"`
	CartSize       int           `json:"cart_size"`
}

// WireFields lists every key of the encoded event
var WireFields = []string{
	"user_id", "session_id", "timestamp", "event_type", "page_url",
	"product_id", "product_name", "product_brand", "product_price", "category",
	"browser", "os", "ip_address", "referral_source", "device_type",
	"geo_country", "geo_city", "is_new_user", "cart_size",
}

// HasProduct reports whether the event carries product context
func (e Event) HasProduct() bool {
	return len(e.ProductID) > 0
}

// CategoryName returns the category or "" when absent
func (e Event) CategoryName() string {
	if e.Category == nil {
		return ""
	}
	return *e.Category
}

// Timestamp is a UTC instant encoded with TimestampLayout
type Timestamp time.Time

// Time returns the underlying time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(TimestampLayout))
}

// UnmarshalJSON leaves t unchanged for a JSON null
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// ProductPrice is a one-element list for single-product events
// and a plain number holding the cart total for purchases.
type ProductPrice struct {
	Unit  []float64
	Total *float64
}

// UnitPrice wraps the price of a single product
func UnitPrice(price float64) *ProductPrice {
	return &ProductPrice{Unit: []float64{price}}
}

// TotalPrice wraps a purchase total, rounded to cents
func TotalPrice(total decimal.Decimal) *ProductPrice {
	v := total.Round(2).InexactFloat64()
	return &ProductPrice{Total: &v}
}

// IsTotal reports whether the price is a purchase total
func (p ProductPrice) IsTotal() bool {
	return p.Total != nil
}

// Amount is the purchase total, or the single unit price
func (p ProductPrice) Amount() float64 {
	if p.Total != nil {
		return *p.Total
	}
	sum := 0.0
	for _, u := range p.Unit {
		sum += u
	}
	return sum
}

func (p ProductPrice) MarshalJSON() ([]byte, error) {
	if p.Total != nil {
		return json.Marshal(*p.Total)
	}
	return json.Marshal(p.Unit)
}

func (p *ProductPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		p.Total = nil
		return json.Unmarshal(data, &p.Unit)
	}
	var total float64
	if err := json.Unmarshal(data, &total); err != nil {
		return err
	}
	p.Unit = nil
	p.Total = &total
	return nil
}
