package cart

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cartStorageKey     = "rotteck-pulli-cart"
	maxStudentNameLen  = 140
	maxCustomerEmail   = 256
	storedStateVersion = 2
)

// Item is one cart line. Identity for merge purposes is the (color, size)
// pair; the ID only exists so the UI can address a line.
type Item struct {
	ID          string `json:"id"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	StudentName string `json:"studentName"`
}

type storedState struct {
	Items         []Item `json:"items"`
	CustomerEmail string `json:"customerEmail"`
	Version       int    `json:"version"`
	UpdatedAt     int64  `json:"updatedAt"`
}

// Storage is the durable client-side key-value store the cart persists to.
type Storage interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Store holds the customer's cart. Every mutation persists the full state;
// corrupt or missing stored data loads as an empty cart, never an error.
type Store struct {
	storage       Storage
	items         []Item
	customerEmail string
}

func NewStore(storage Storage) *Store {
	s := &Store{storage: storage}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := s.storage.Get(cartStorageKey)
	if err != nil || raw == nil {
		if err != nil {
			log.Warn().Err(err).Msg("Could not read stored cart")
		}
		s.items = []Item{}
		return
	}

	var state storedState
	if err := json.Unmarshal(raw, &state); err != nil {
		log.Warn().Err(err).Msg("Could not parse stored cart, starting empty")
		s.items = []Item{}
		return
	}

	s.items = normalizeStoredItems(state.Items)
	s.customerEmail = truncate(state.CustomerEmail, maxCustomerEmail)
}

// normalizeStoredItems drops entries missing a color or size and merges
// entries sharing a (color, size) key, summing quantities and keeping the
// first non-empty student name.
func normalizeStoredItems(raw []Item) []Item {
	merged := make([]Item, 0, len(raw))
	index := make(map[string]int, len(raw))

	for _, entry := range raw {
		if entry.Color == "" || entry.Size == "" {
			continue
		}

		quantity := entry.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		key := entry.Color + "__" + entry.Size
		if at, ok := index[key]; ok {
			merged[at].Quantity += quantity
			if merged[at].StudentName == "" && entry.StudentName != "" {
				merged[at].StudentName = truncate(entry.StudentName, maxStudentNameLen)
			}
			continue
		}

		id := entry.ID
		if id == "" {
			id = generateItemID()
		}

		index[key] = len(merged)
		merged = append(merged, Item{
			ID:          id,
			Color:       entry.Color,
			Size:        entry.Size,
			Quantity:    quantity,
			StudentName: truncate(entry.StudentName, maxStudentNameLen),
		})
	}

	return merged
}

// AddItem increments the quantity for the (color, size) variant, creating a
// new line when none exists. Empty color or size is a silent no-op.
func (s *Store) AddItem(color, size string) {
	if color == "" || size == "" {
		return
	}

	for i := range s.items {
		if s.items[i].Color == color && s.items[i].Size == size {
			s.items[i].Quantity++
			s.persist()
			return
		}
	}

	s.items = append(s.items, Item{
		ID:       generateItemID(),
		Color:    color,
		Size:     size,
		Quantity: 1,
	})
	s.persist()
}

// UpdateQuantity sets the line's quantity, clamped below at zero. A zero
// quantity removes the line entirely.
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity < 0 {
		quantity = 0
	}

	next := s.items[:0]
	for _, item := range s.items {
		if item.ID == id {
			item.Quantity = quantity
		}
		if item.Quantity > 0 {
			next = append(next, item)
		}
	}
	s.items = next
	s.persist()
}

func (s *Store) UpdateStudentName(id, name string) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].StudentName = truncate(name, maxStudentNameLen)
		}
	}
	s.persist()
}

func (s *Store) UpdateCustomerEmail(value string) {
	s.customerEmail = truncate(strings.TrimSpace(value), maxCustomerEmail)
	s.persist()
}

// Clear empties the cart, used after a successful checkout.
func (s *Store) Clear() {
	s.items = []Item{}
	s.persist()
}

// Count is the sum of all line quantities.
func (s *Store) Count() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

func (s *Store) Items() []Item {
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return items
}

func (s *Store) CustomerEmail() string {
	return s.customerEmail
}

func (s *Store) persist() {
	state := storedState{
		Items:         s.items,
		CustomerEmail: s.customerEmail,
		Version:       storedStateVersion,
		UpdatedAt:     time.Now().UnixMilli(),
	}

	raw, err := json.Marshal(state)
	if err != nil {
		log.Warn().Err(err).Msg("Could not serialize cart")
		return
	}
	if err := s.storage.Put(cartStorageKey, raw); err != nil {
		log.Warn().Err(err).Msg("Could not persist cart")
	}
}

func generateItemID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("item-%d", time.Now().UnixNano())
	}
	return id.String()
}

func truncate(value string, limit int) string {
	if len(value) > limit {
		return value[:limit]
	}
	return value
}
