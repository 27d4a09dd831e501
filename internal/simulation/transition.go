package simulation

import (
	"clickstream/internal/domain/catalog"
	"clickstream/internal/domain/clickstream"
)

// CartOp is the cart mutation a transition applies
type CartOp int

const (
	CartKeep CartOp = iota
	CartAdd
	CartRemoveAt
	CartClear
)

// ViewOp is what a transition does to the product the user is focused on
type ViewOp int

const (
	ViewKeep ViewOp = iota
	ViewSet
	ViewClear
)

// Outcome is the effect of one transition, computed without touching the session
type Outcome struct {
	// Requested is the drawn event type; EventType is what is actually emitted
	Requested clickstream.EventType
	EventType clickstream.EventType
	PageURL   string

	// Product is the single product the event is about, if any
	Product *catalog.Product
	// Purchased holds every cart item for a purchase
	Purchased []catalog.Product

	Cart       CartOp
	CartIndex  int
	View       ViewOp
	ViewedItem *catalog.Product
}

// Downgraded reports whether the drawn transition could not apply
func (o Outcome) Downgraded() bool {
	return o.Requested != o.EventType
}

// TransitionPolicy resolves a drawn event type against a session snapshot
type TransitionPolicy struct {
	catalog *catalog.Catalog
	profile *compiledProfile
}

// Resolve decides page, product context and mutations for the drawn event type.
// Cart transitions that need items degrade to a page_view on any page when the
// cart is empty; the page_view row is not consulted for a re-draw.
func (p *TransitionPolicy) Resolve(requested clickstream.EventType, snap SessionSnapshot, r Rand) Outcome {
	out := Outcome{Requested: requested, EventType: requested, PageURL: snap.LastPage}

	switch requested {
	case clickstream.EventPageView:
		if r.Float64() < p.profile.GeneralPageProbability {
			out.PageURL = pick(r, p.profile.generalPages)
			out.View = ViewClear
		} else {
			product := p.randomProduct(r)
			out.PageURL = productPagePrefix + product.ID
			out.Product = &product
			out.View = ViewSet
			out.ViewedItem = &product
		}

	case clickstream.EventAddToCart:
		var product catalog.Product
		if snap.CurrentProductViewed != nil {
			product = *snap.CurrentProductViewed
		} else {
			product = p.randomProduct(r)
		}
		out.Product = &product
		out.Cart = CartAdd
		out.PageURL = PageCart
		out.View = ViewClear

	case clickstream.EventRemoveFromCart:
		if len(snap.Cart) == 0 {
			return p.downgrade(requested, r)
		}
		idx := r.IntN(len(snap.Cart))
		product := snap.Cart[idx]
		out.Product = &product
		out.Cart = CartRemoveAt
		out.CartIndex = idx
		out.PageURL = PageCart

	case clickstream.EventCheckout:
		if len(snap.Cart) == 0 {
			return p.downgrade(requested, r)
		}
		out.PageURL = PageCheckout
		out.View = ViewClear

	case clickstream.EventPurchase:
		if len(snap.Cart) == 0 {
			return p.downgrade(requested, r)
		}
		out.Purchased = append([]catalog.Product(nil), snap.Cart...)
		out.Cart = CartClear
		out.PageURL = PagePurchaseSuccess
		out.View = ViewClear

	case clickstream.EventSearch:
		out.PageURL = PageSearchResults
		out.View = ViewClear
	}

	// Any other type (end_session) is emitted on the last page with no context change.
	return out
}

func (p *TransitionPolicy) downgrade(requested clickstream.EventType, r Rand) Outcome {
	return Outcome{
		Requested: requested,
		EventType: clickstream.EventPageView,
		PageURL:   pick(r, p.profile.Pages),
		View:      ViewClear,
	}
}

func (p *TransitionPolicy) randomProduct(r Rand) catalog.Product {
	category := pick(r, p.catalog.Categories())
	return pick(r, p.catalog.Products(category))
}

// Apply commits the outcome's mutations to the session
func (o Outcome) Apply(s *Session) {
	switch o.Cart {
	case CartAdd:
		s.CartItems = append(s.CartItems, *o.Product)
	case CartRemoveAt:
		items := make([]catalog.Product, 0, len(s.CartItems)-1)
		items = append(items, s.CartItems[:o.CartIndex]...)
		s.CartItems = append(items, s.CartItems[o.CartIndex+1:]...)
	case CartClear:
		s.CartItems = nil
	}

	switch o.View {
	case ViewSet:
		s.CurrentProductViewed = o.ViewedItem
	case ViewClear:
		s.CurrentProductViewed = nil
	}

	s.LastPage = o.PageURL
	s.LastEventType = o.EventType
}
