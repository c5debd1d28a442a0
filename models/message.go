package models

// Message is a single chat message inside a thread.
type Message struct {
	ID         string `json:"id"`
	ThreadID   string `json:"threadId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	Read       bool   `json:"read"`
	CreatedAt  string `json:"createdAt"`
}

// ThreadParticipant identifies one side of a message thread.
type ThreadParticipant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ThreadBookRef is the optional book a thread is about.
type ThreadBookRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MessageThread is a conversation between two users, usually about a book.
type MessageThread struct {
	ID           string              `json:"id"`
	Participants []ThreadParticipant `json:"participants"`
	LastMessage  *Message            `json:"lastMessage,omitempty"`
	UnreadCount  int                 `json:"unreadCount"`
	Book         *ThreadBookRef      `json:"book,omitempty"`
	CreatedAt    string              `json:"createdAt"`
	UpdatedAt    string              `json:"updatedAt"`
}
