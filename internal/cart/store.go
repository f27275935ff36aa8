package cart

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/ecommerce-storefront/internal/session"
)

const cartSessionKey = "shopping_cart"

// Store keeps each visitor's cart as one JSON blob in the session store.
// Every mutation rewrites the whole blob, so a single operation is atomic
// as long as the underlying session write is.
type Store struct {
	sessions session.Store
}

func NewStore(sessions session.Store) *Store {
	return &Store{sessions: sessions}
}

// Get returns the current cart for the session. A missing or corrupt blob
// degrades to an empty cart, never an error.
func (s *Store) Get(sessionID string) []Item {
	raw, ok := s.sessions.GetString(sessionID, cartSessionKey)
	if !ok || raw == "" {
		return []Item{}
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("cart: discarding unreadable cart blob")
		return []Item{}
	}
	if items == nil {
		return []Item{}
	}
	return items
}

// Add appends the item, or merges quantities when the product is already
// in the cart.
func (s *Store) Add(sessionID string, item Item) {
	items := s.Get(sessionID)

	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	s.save(sessionID, items)
}

// Remove drops the product's line. Removing an absent product is a no-op.
func (s *Store) Remove(sessionID string, productID int64) {
	items := s.Get(sessionID)

	for i := range items {
		if items[i].ProductID == productID {
			items = append(items[:i], items[i+1:]...)
			s.save(sessionID, items)
			return
		}
	}
}

// UpdateQuantity sets the line's quantity. A quantity of zero or less is a
// removal signal; an absent product is a no-op.
func (s *Store) UpdateQuantity(sessionID string, productID int64, quantity int) {
	if quantity <= 0 {
		s.Remove(sessionID, productID)
		return
	}

	items := s.Get(sessionID)
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			s.save(sessionID, items)
			return
		}
	}
}

// Total is recomputed from the lines on every call; the cart is small and
// mutated often, so nothing is cached.
func (s *Store) Total(sessionID string) float64 {
	total := 0.0
	for _, item := range s.Get(sessionID) {
		total += item.LineTotal()
	}
	return total
}

// ItemCount is the sum of line quantities, not the number of lines.
func (s *Store) ItemCount(sessionID string) int {
	count := 0
	for _, item := range s.Get(sessionID) {
		count += item.Quantity
	}
	return count
}

// Clear empties the cart, used after a successful checkout.
func (s *Store) Clear(sessionID string) {
	s.sessions.Remove(sessionID, cartSessionKey)
}

func (s *Store) save(sessionID string, items []Item) {
	raw, err := json.Marshal(items)
	if err != nil {
		// Item contains only plain scalar fields, so this cannot happen.
		log.Error().Err(err).Str("session_id", sessionID).Msg("cart: failed to marshal cart")
		return
	}
	s.sessions.SetString(sessionID, cartSessionKey, string(raw))
}
