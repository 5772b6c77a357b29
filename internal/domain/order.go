package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GuestMarker is recorded as the owner name on orders submitted without an
// authenticated session.
const GuestMarker = "guest"

// OrderStatusPending is the status every freshly accepted order starts in.
const OrderStatusPending = "pending"

// ShopperDetails are the contact fields collected at checkout.
type ShopperDetails struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Notes    string `json:"notes,omitempty"`
}

// Attachment is an optional proof-of-payment file uploaded with an order.
type Attachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

// OrderDraft is assembled client-side at submission time. Token is minted
// before any network call so a manual retry can reuse it.
type OrderDraft struct {
	Token      string     `json:"token"`
	Username   string     `json:"username"`
	OwnerID    *int64     `json:"ownerId,omitempty"`
	FullName   string     `json:"fullName"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
	Address    string     `json:"address"`
	Notes      string     `json:"notes,omitempty"`
	Status     string     `json:"orderStatus"`
	TotalPrice int64      `json:"totalPrice"`
	Items      []CartLine `json:"items"`
	Attachment *int64     `json:"attachment,omitempty"`
}

// OrderRecord is a draft the Order Service has accepted. ID is the service's
// internal identifier; Token remains the only identifier shown to shoppers.
type OrderRecord struct {
	ID         int64      `json:"id"`
	Token      string     `json:"token"`
	Username   string     `json:"username"`
	FullName   string     `json:"fullName"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
	Address    string     `json:"address"`
	Notes      string     `json:"notes,omitempty"`
	Status     string     `json:"orderStatus"`
	TotalPrice int64      `json:"totalPrice"`
	Items      []CartLine `json:"items"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// NewOrderToken mints a URL-safe order token from 144 bits of randomness.
func NewOrderToken() string {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken.
		panic("order token: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
