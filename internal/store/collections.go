package store

// Collection names defined by the store schema. Collections are created once
// at initialization; writes to any other name are rejected with
// ErrUnknownCollection.
const (
	CollectionBooks    = "books"
	CollectionRatings  = "ratings"
	CollectionWishlist = "wishlist"
	CollectionThreads  = "threads"
	CollectionMessages = "messages"
	CollectionUser     = "user"
	CollectionActions  = "offline-actions"
)

var knownCollections = map[string]struct{}{
	CollectionBooks:    {},
	CollectionRatings:  {},
	CollectionWishlist: {},
	CollectionThreads:  {},
	CollectionMessages: {},
	CollectionUser:     {},
	CollectionActions:  {},
}

// KnownCollection reports whether name is part of the store schema.
func KnownCollection(name string) bool {
	_, ok := knownCollections[name]
	return ok
}
