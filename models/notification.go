package models

// NotificationType classifies a realtime notification event.
type NotificationType string

const (
	NotificationBookInterest   NotificationType = "book_interest"
	NotificationBookStatus     NotificationType = "book_status"
	NotificationWishlistMatch  NotificationType = "wishlist_match"
	NotificationRatingReceived NotificationType = "rating_received"
	NotificationMessage        NotificationType = "message_received"
	NotificationSystem         NotificationType = "system"
)

// Notification is a user-facing event delivered over the realtime channel.
// Notifications are display-only and never cached or queued by the offline
// layer.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	Link      string           `json:"link,omitempty"`
	CreatedAt string           `json:"createdAt"`
}
