package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrNoAddress          = errors.New("no delivery address set")
	ErrNoQuotesAvailable  = errors.New("no shipping options available for this address")
	ErrQuoteNotInSet      = errors.New("selected quote is not in the current quote set")
	ErrNotQuotesReady     = errors.New("quotes are not ready for selection")
	ErrStaleQuoteResult   = errors.New("quote result superseded by a newer request")
	ErrQuoteFetchNotBegun = errors.New("no quote fetch in progress")
)

// ShippingStatus is the state of a cart's shipping selection
type ShippingStatus string

const (
	ShippingStatusEmpty       ShippingStatus = "empty"
	ShippingStatusAddressSet  ShippingStatus = "address_set"
	ShippingStatusLoading     ShippingStatus = "loading"
	ShippingStatusQuotesReady ShippingStatus = "quotes_ready"
	ShippingStatusError       ShippingStatus = "error"
)

// CartShippingSession is the aggregate root holding shipping state for one
// cart. All transitions are synchronous and pure; the application layer
// performs the async I/O and feeds results back through ResolveQuotes.
//
// RequestToken is a monotonic counter: every address change or new fetch
// bumps it, and a quote result is applied only if it carries the latest
// token. This makes superseded fetches (the user editing the address while
// a slow request is in flight) last-write-wins by construction.
type CartShippingSession struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	CartID        string             `bson:"cartId"`
	Status        ShippingStatus     `bson:"status"`
	Address       *NormalizedAddress `bson:"address,omitempty"`
	Quotes        []Quote            `bson:"quotes"`
	SelectedQuote *Quote             `bson:"selectedQuote,omitempty"`
	LastError     string             `bson:"lastError,omitempty"`
	RequestToken  uint64             `bson:"requestToken"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`

	domainEvents []DomainEvent
}

// NewCartShippingSession creates an empty session for a cart
func NewCartShippingSession(cartID string) *CartShippingSession {
	now := time.Now()
	return &CartShippingSession{
		CartID:    cartID,
		Status:    ShippingStatusEmpty,
		Quotes:    []Quote{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetAddress stores a validated destination and discards any quotes,
// selection, or error that belonged to the previous address. Quotes
// computed for address A must never be presented as valid for address B.
// Valid from every state.
func (s *CartShippingSession) SetAddress(addr NormalizedAddress) {
	s.Address = &addr
	s.Quotes = []Quote{}
	s.SelectedQuote = nil
	s.LastError = ""
	s.Status = ShippingStatusAddressSet
	s.RequestToken++
	s.touch()

	s.addEvent(&ShippingAddressChangedEvent{
		baseEvent: newBaseEvent(),
		CartID:    s.CartID,
		State:     addr.State,
		Postcode:  addr.Postcode,
	})
}

// BeginQuoteFetch transitions to Loading and issues a fresh request token.
// The returned token must be passed back to ResolveQuotes; results carrying
// an older token are discarded.
func (s *CartShippingSession) BeginQuoteFetch() (uint64, error) {
	if s.Address == nil {
		return 0, ErrNoAddress
	}
	s.Status = ShippingStatusLoading
	s.Quotes = []Quote{}
	s.SelectedQuote = nil
	s.LastError = ""
	s.RequestToken++
	s.touch()
	return s.RequestToken, nil
}

// ResolveQuotes applies the outcome of a quote fetch. A result whose token
// is not the latest issued is stale and returns ErrStaleQuoteResult without
// mutating the session.
func (s *CartShippingSession) ResolveQuotes(token uint64, quotes []Quote, fetchErr error) error {
	if token != s.RequestToken || s.Status != ShippingStatusLoading {
		return ErrStaleQuoteResult
	}

	if fetchErr != nil {
		s.Status = ShippingStatusError
		s.Quotes = []Quote{}
		s.SelectedQuote = nil
		s.LastError = fetchErr.Error()
		s.touch()
		s.addEvent(&ShippingQuoteFailedEvent{
			baseEvent: newBaseEvent(),
			CartID:    s.CartID,
			Reason:    fetchErr.Error(),
		})
		return nil
	}

	if len(quotes) == 0 {
		s.Status = ShippingStatusError
		s.Quotes = []Quote{}
		s.SelectedQuote = nil
		s.LastError = ErrNoQuotesAvailable.Error()
		s.touch()
		s.addEvent(&ShippingQuoteFailedEvent{
			baseEvent: newBaseEvent(),
			CartID:    s.CartID,
			Reason:    ErrNoQuotesAvailable.Error(),
		})
		return nil
	}

	ranked := RankByPrice(quotes)
	s.Status = ShippingStatusQuotesReady
	s.Quotes = ranked
	cheapest := ranked[0]
	s.SelectedQuote = &cheapest
	s.LastError = ""
	s.touch()

	s.addEvent(&ShippingQuotesReturnedEvent{
		baseEvent:     newBaseEvent(),
		CartID:        s.CartID,
		Source:        ranked[0].Source,
		QuoteCount:    len(ranked),
		CheapestPrice: ranked[0].Price,
	})
	return nil
}

// SelectQuote picks a quote by service name. Only valid in QuotesReady,
// and only for a quote present in the current set; anything else is
// rejected rather than silently setting an inconsistent selection.
func (s *CartShippingSession) SelectQuote(service string) error {
	if s.Status != ShippingStatusQuotesReady {
		return ErrNotQuotesReady
	}
	for i := range s.Quotes {
		if s.Quotes[i].Service == service {
			q := s.Quotes[i]
			s.SelectedQuote = &q
			s.touch()
			s.addEvent(&ShippingQuoteSelectedEvent{
				baseEvent: newBaseEvent(),
				CartID:    s.CartID,
				Service:   q.Service,
				Price:     q.Price,
			})
			return nil
		}
	}
	return ErrQuoteNotInSet
}

func (s *CartShippingSession) touch() {
	s.UpdatedAt = time.Now()
}

func (s *CartShippingSession) addEvent(event DomainEvent) {
	s.domainEvents = append(s.domainEvents, event)
}

// GetDomainEvents returns events raised since the last clear
func (s *CartShippingSession) GetDomainEvents() []DomainEvent {
	return s.domainEvents
}

// ClearDomainEvents clears raised events after publication
func (s *CartShippingSession) ClearDomainEvents() {
	s.domainEvents = nil
}
