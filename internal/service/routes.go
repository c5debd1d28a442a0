package service

import (
	"fmt"
	"strings"

	"github.com/p2pbooks/exchange-client/internal/store"
)

// CreateKind classifies what a POST to a route creates, which decides the
// shape of the optimistic record produced for offline writes. KindGeneric
// means no optimistic shape is known for the route.
type CreateKind int

const (
	KindGeneric CreateKind = iota
	KindBook
	KindRating
	KindWishlistItem
	KindThread
	KindMessage
)

// route binds an endpoint prefix to a local collection. Matching is by
// longest registered prefix, so /messages/threads resolves to threads even
// though /messages is also registered.
type route struct {
	prefix     string
	collection string
	kind       CreateKind
}

// routingTable is ordered most-specific first and is the single source of
// truth for endpoint-to-collection mapping. Changing cache behavior for an
// endpoint means changing exactly this table.
var routingTable = []route{
	{prefix: "/messages/threads", collection: store.CollectionThreads, kind: KindThread},
	{prefix: "/messages", collection: store.CollectionMessages, kind: KindMessage},
	{prefix: "/books", collection: store.CollectionBooks, kind: KindBook},
	{prefix: "/ratings", collection: store.CollectionRatings, kind: KindRating},
	{prefix: "/wishlist", collection: store.CollectionWishlist, kind: KindWishlistItem},
	{prefix: "/user", collection: store.CollectionUser, kind: KindGeneric},
}

func init() {
	if err := validateRoutingTable(); err != nil {
		panic(err)
	}
}

// validateRoutingTable enforces the table's structural invariants: known
// collections only, and more specific prefixes listed before their parents.
func validateRoutingTable() error {
	seen := make(map[string]struct{}, len(routingTable))

	for i, r := range routingTable {
		if !strings.HasPrefix(r.prefix, "/") {
			return fmt.Errorf("route %q: prefix must start with /", r.prefix)
		}
		if !store.KnownCollection(r.collection) {
			return fmt.Errorf("route %q: unknown collection %q", r.prefix, r.collection)
		}
		if _, dup := seen[r.prefix]; dup {
			return fmt.Errorf("route %q: duplicate prefix", r.prefix)
		}
		seen[r.prefix] = struct{}{}

		for _, earlier := range routingTable[:i] {
			if strings.HasPrefix(earlier.prefix, r.prefix+"/") {
				continue // earlier is more specific, correct order
			}
			if strings.HasPrefix(r.prefix, earlier.prefix+"/") {
				return fmt.Errorf("route %q: shadowed by earlier prefix %q", r.prefix, earlier.prefix)
			}
		}
	}

	return nil
}

// resolveRoute matches endpoint against the routing table and splits off the
// resource id, if any. A match requires the prefix to end at a path
// boundary: /booksmith does not match /books.
//
// Examples:
//
//	/books            -> route /books,            id ""
//	/books/b-1        -> route /books,            id "b-1"
//	/messages/threads -> route /messages/threads, id ""
func resolveRoute(endpoint string) (route, string, bool) {
	endpoint = strings.TrimSuffix(endpoint, "/")

	for _, r := range routingTable {
		if endpoint == r.prefix {
			return r, "", true
		}
		if rest, ok := strings.CutPrefix(endpoint, r.prefix+"/"); ok {
			return r, rest, true
		}
	}

	return route{}, "", false
}
