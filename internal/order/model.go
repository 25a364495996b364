package order

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

func (s Status) String() string {
	return string(s)
}

// Item is one line of an order, identified by its (color, size) variant.
type Item struct {
	Product  string `json:"product"`
	Color    string `json:"color"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// Order is the server-of-record entity. OrderHash is the public 12-character
// code customers use to reference the order; it never changes once assigned.
type Order struct {
	OrderHash string    `json:"order_hash"`
	Email     string    `json:"email"`
	Items     []Item    `json:"items"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
