package products

import "github.com/tastemate/tastemate-go/lifecycle"

// Product is one product as the API returns it. Rating is only present
// on rating-augmented fetches.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Category string  `json:"category"`
	Rating   *Rating `json:"rating,omitempty"`
}

// Rating is the current user's rating attached to an augmented product.
type Rating struct {
	ID      string `json:"id"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// Metadata keys: the two list operations; per-entity fetches are keyed
// by product ID.
const (
	ListKey      = "list"
	RatedListKey = "rated"
)

// State is the products feature area.
type State struct {
	Items []Product
	Meta  lifecycle.MetaMap
}

func NewState() State {
	return State{Meta: lifecycle.MetaMap{}}
}

type page struct {
	Items []Product `json:"items"`
	Next  *string   `json:"next"`
}

func mergePage(items []Product, incoming []Product) []Product {
	index := make(map[string]int, len(items))
	for i, p := range items {
		index[p.ID] = i
	}
	out := append([]Product(nil), items...)
	for _, p := range incoming {
		if i, ok := index[p.ID]; ok {
			out[i] = merge(out[i], p)
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

func upsert(items []Product, p Product) []Product {
	out := append([]Product(nil), items...)
	for i := range out {
		if out[i].ID == p.ID {
			out[i] = merge(out[i], p)
			return out
		}
	}
	return append(out, p)
}

// merge replaces a cached product with the fresher copy but never
// discards a known rating when the newer fetch was not augmented.
func merge(cached, fresh Product) Product {
	if fresh.Rating == nil {
		fresh.Rating = cached.Rating
	}
	return fresh
}

func find(items []Product, id string) *Product {
	for i := range items {
		if items[i].ID == id {
			p := items[i]
			return &p
		}
	}
	return nil
}
