package ratings

import "github.com/tastemate/tastemate-go/lifecycle"

// Rating is the current user's rating of a product.
type Rating struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Score     int    `json:"score"`
	Comment   string `json:"comment"`
	Archived  bool   `json:"archived"`
}

// State is the ratings feature area. Metadata is keyed by product ID so
// each product's rating form tracks its own lifecycle independently.
type State struct {
	Items []Rating
	Meta  lifecycle.MetaMap
}

func NewState() State {
	return State{Meta: lifecycle.MetaMap{}}
}

func upsert(items []Rating, r Rating) []Rating {
	out := append([]Rating(nil), items...)
	for i := range out {
		if out[i].ID == r.ID {
			out[i] = r
			return out
		}
	}
	return append(out, r)
}

func findByProduct(items []Rating, productID string) *Rating {
	for i := range items {
		if items[i].ProductID == productID {
			r := items[i]
			return &r
		}
	}
	return nil
}
