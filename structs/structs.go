package structs

import (
	"time"
)

type User struct {
	UserID    string              `json:"userid" bson:"userid"`
	Username  string              `json:"username" bson:"username"`
	Email     string              `json:"email" bson:"email"`
	Password  string              `json:"password,omitempty" bson:"password"`
	Role      string              `json:"role" bson:"role"`
	FirstName string              `json:"firstName" bson:"first_name"`
	LastName  string              `json:"lastName" bson:"last_name"`
	Location  string              `json:"location,omitempty" bson:"location,omitempty"`
	Interests map[string][]string `json:"interests,omitempty" bson:"interests,omitempty"`
	Locations []string            `json:"locations,omitempty" bson:"locations,omitempty"`
	Tickets   []string            `json:"tickets,omitempty" bson:"tickets,omitempty"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" bson:"updated_at"`
}

// Sanitize strips credential material before a user leaves the API.
func (u *User) Sanitize() {
	u.Password = ""
}

type Review struct {
	ReviewID string    `json:"reviewid" bson:"reviewid"`
	UserID   string    `json:"userid" bson:"userid"`
	Rating   int       `json:"rating" bson:"rating"`
	Comment  string    `json:"comment" bson:"comment"`
	Date     time.Time `json:"date" bson:"date"`
}

type Event struct {
	EventID          string    `json:"eventid" bson:"eventid"`
	Title            string    `json:"title" bson:"title"`
	Description      string    `json:"description" bson:"description"`
	Category         string    `json:"category" bson:"category"`
	Location         string    `json:"location" bson:"location"`
	Date             time.Time `json:"date" bson:"date"`
	Time             string    `json:"time,omitempty" bson:"time,omitempty"`
	Price            float64   `json:"price" bson:"price"`
	Capacity         int       `json:"capacity" bson:"capacity"`
	AvailableTickets int       `json:"availableTickets" bson:"available_tickets"`
	Images           []string  `json:"images" bson:"images"`
	OrganizerID      string    `json:"organizer" bson:"organizer"`
	Attendees        []string  `json:"attendees" bson:"attendees"`
	Reviews          []Review  `json:"reviews" bson:"reviews"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// Ticket status lifecycle. Status and PaymentStatus move together:
// pending/pending -> confirmed/completed -> used/completed, or
// pending|confirmed -> cancelled/refunded. The ticket document is the
// source of truth; user.tickets and event.attendees are denormalized
// back-references only.
const (
	TicketPending   = "pending"
	TicketConfirmed = "confirmed"
	TicketUsed      = "used"
	TicketCancelled = "cancelled"

	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

type Ticket struct {
	TicketID      string     `json:"ticketid" bson:"ticketid"`
	EventID       string     `json:"eventid" bson:"eventid"`
	UserID        string     `json:"userid" bson:"userid"`
	Quantity      int        `json:"quantity" bson:"quantity"`
	TotalPrice    float64    `json:"totalPrice" bson:"total_price"`
	Status        string     `json:"status" bson:"status"`
	PaymentStatus string     `json:"paymentStatus" bson:"payment_status"`
	PaymentMethod string     `json:"paymentMethod" bson:"payment_method"`
	TransactionID string     `json:"transactionId,omitempty" bson:"transaction_id,omitempty"`
	TicketNumber  string     `json:"ticketNumber" bson:"ticket_number"`
	QRCode        string     `json:"qrCode,omitempty" bson:"qr_code,omitempty"`
	CheckInTime   *time.Time `json:"checkInTime,omitempty" bson:"check_in_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"`
}
