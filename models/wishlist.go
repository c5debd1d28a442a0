package models

// WishlistItem is a book a seeker wants; MatchCount tracks how many live
// listings currently match it.
type WishlistItem struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Title      string `json:"title"`
	Author     string `json:"author,omitempty"`
	MatchCount int    `json:"matchCount"`
	CreatedAt  string `json:"createdAt"`
}
