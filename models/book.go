package models

// BookCondition describes the physical condition of a listed book.
type BookCondition string

const (
	ConditionNew     BookCondition = "new"
	ConditionLikeNew BookCondition = "like-new"
	ConditionGood    BookCondition = "good"
	ConditionFair    BookCondition = "fair"
	ConditionPoor    BookCondition = "poor"
)

// BookStatus describes the exchange lifecycle of a listed book.
type BookStatus string

const (
	StatusAvailable BookStatus = "available"
	StatusReserved  BookStatus = "reserved"
	StatusExchanged BookStatus = "exchanged"
)

// Book is a listing offered for exchange by an owner.
type Book struct {
	ID                string        `json:"id"`
	Title             string        `json:"title"`
	Author            string        `json:"author"`
	Genre             string        `json:"genre"`
	Description       string        `json:"description"`
	Condition         BookCondition `json:"condition"`
	Location          string        `json:"location"`
	ContactPreference string        `json:"contactPreference"`
	ImageURL          string        `json:"imageUrl,omitempty"`
	OwnerID           string        `json:"ownerId"`
	OwnerName         string        `json:"ownerName"`
	Status            BookStatus    `json:"status"`
	CreatedAt         string        `json:"createdAt"`
	UpdatedAt         string        `json:"updatedAt"`
}
