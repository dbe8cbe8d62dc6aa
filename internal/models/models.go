package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the session user and the public profile shape returned by the API.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// IsAdmin reports whether the user may open the admin dashboard.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ProductImage is one image of a listing. At most one image is main.
type ProductImage struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	IsMain bool   `json:"isMain"`
}

// Specification is a key/value attribute on a listing.
type Specification struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Product represents a listing offered by a seller
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Category       string          `json:"category"`
	Condition      string          `json:"condition"`
	Images         []ProductImage  `json:"images"`
	Specifications []Specification `json:"specifications"`
	Seller         *User           `json:"seller,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt,omitempty"`
}

// MainImage returns the image flagged main, or the first image.
func (p *Product) MainImage() string {
	for _, img := range p.Images {
		if img.IsMain {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// Listing statuses
const (
	ProductStatusPending  = "pending"
	ProductStatusApproved = "approved"
	ProductStatusActive   = "active"
	ProductStatusRejected = "rejected"
	ProductStatusSold     = "sold"
)

// ProductPage is one page of a product listing query.
type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

// Category groups listings.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ProductCount int    `json:"productCount,omitempty"`
}

// CartItem holds a price snapshot taken when the item was added.
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	SellerID  string          `json:"sellerId,omitempty"`
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is server-owned; the client keeps a cached copy.
type Cart struct {
	Items      []CartItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	ServiceFee decimal.Decimal `json:"serviceFee"`
	Total      decimal.Decimal `json:"total"`
}

// ItemCount sums quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Clone returns a deep copy safe to mutate.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return &Cart{}
	}
	out := *c
	out.Items = append([]CartItem(nil), c.Items...)
	return &out
}

// CartValidation is the result of the cart validate endpoint.
type CartValidation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// DeliveryInfo is collected in checkout step one.
type DeliveryInfo struct {
	FullName string `json:"fullName" validate:"notblank"`
	Email    string `json:"email" validate:"notblank,emailshape"`
	Phone    string `json:"phone" validate:"notblank"`
	Address  string `json:"address" validate:"notblank"`
	City     string `json:"city" validate:"notblank"`
	State    string `json:"state" validate:"notblank"`
	ZipCode  string `json:"zipCode" validate:"notblank"`
}

// OrderItem represents a line of an order
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order is created once at checkout and immutable afterwards except cancel.
type Order struct {
	ID            string          `json:"id"`
	Items         []OrderItem     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ServiceFee    decimal.Decimal `json:"serviceFee"`
	Total         decimal.Decimal `json:"total"`
	Delivery      DeliveryInfo    `json:"deliveryInfo"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentStatus string          `json:"paymentStatus,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`

	// Filled client-side by the orders service.
	ItemCount     int    `json:"itemCount"`
	DisplayStatus string `json:"displayStatus"`
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Payment methods
const (
	PaymentCredit = "credit"
	PaymentCash   = "cash"
)

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// ProductRef is the compact product shown in a conversation.
type ProductRef struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

// Message is one entry of a conversation thread.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
	// ClientKey is generated by the sender and echoed back by the server so
	// an optimistic copy can be matched with the stored message.
	ClientKey string `json:"clientKey,omitempty"`

	// Delivery is client-side only: "", "pending", "sent" or "failed".
	Delivery string `json:"delivery,omitempty"`
}

// Local delivery states of an optimistic message.
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// LastMessage is the sidebar preview of a conversation.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation is a thread scoped to one buyer, one seller and one product.
type Conversation struct {
	ID           string       `json:"id"`
	Participants []User       `json:"participants"`
	Product      *ProductRef  `json:"product,omitempty"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty"`
	UnreadCount  int          `json:"unreadCount"`
	Messages     []Message    `json:"messages,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt,omitempty"`
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Review is one rating of a product by a buyer.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	SellerID  string    `json:"sellerId,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Reviewer  *User     `json:"reviewer,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ReviewEligibility answers whether the current user may review a product.
type ReviewEligibility struct {
	Eligible       bool   `json:"eligible"`
	Reason         string `json:"reason,omitempty"`
	ExistingReview string `json:"existingReviewId,omitempty"`
}

// Report flags a product, user or review for moderation.
type Report struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	ItemID      string    `json:"itemId"`
	Reason      string    `json:"reason"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Reporter    *User     `json:"reporter,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Report lifecycle: pending -> resolved | dismissed
const (
	ReportStatusPending   = "pending"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// ReportStats summarises moderation work for the admin dashboard.
type ReportStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Resolved  int `json:"resolved"`
	Dismissed int `json:"dismissed"`
}

// Sale is one sold line from the seller's perspective.
type Sale struct {
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Buyer     *User           `json:"buyer,omitempty"`
	SoldAt    time.Time       `json:"soldAt,omitempty"`
}

// NotificationPreferences are stored on the device only.
type NotificationPreferences struct {
	EmailNotifications   bool `json:"emailNotifications"`
	MessageNotifications bool `json:"messageNotifications"`
	OrderUpdates         bool `json:"orderUpdates"`
	Marketing            bool `json:"marketing"`
}

// DefaultNotificationPreferences is used until the user saves their own.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		EmailNotifications:   true,
		MessageNotifications: true,
		OrderUpdates:         true,
	}
}
