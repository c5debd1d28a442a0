package models

// Rating is a review left by a seeker for a completed exchange.
type Rating struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	BookID    string `json:"bookId"`
	OwnerID   string `json:"ownerId"`
	Rating    int    `json:"rating"`
	Review    string `json:"review,omitempty"`
	CreatedAt string `json:"createdAt"`
}
