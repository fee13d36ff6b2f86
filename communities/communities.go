package communities

import "github.com/tastemate/tastemate-go/lifecycle"

// Community is one community as the API returns it.
type Community struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberCount int    `json:"memberCount"`
	Joined      bool   `json:"joined"`
}

// ListKey scopes the list operation's metadata; per-entity operations
// are keyed by community ID.
const ListKey = "list"

// State is the communities feature area: the loaded collection plus
// per-key request metadata.
type State struct {
	Items []Community
	Meta  lifecycle.MetaMap
}

func NewState() State {
	return State{Meta: lifecycle.MetaMap{}}
}

// page is the wire shape of a community list response. Next is null
// once the server has no further page.
type page struct {
	Items []Community `json:"items"`
	Next  *string     `json:"next"`
}

// mergePage appends new communities, deduplicating by ID; a community
// already present is replaced in place with the fresher copy.
func mergePage(items []Community, incoming []Community) []Community {
	index := make(map[string]int, len(items))
	for i, c := range items {
		index[c.ID] = i
	}
	out := append([]Community(nil), items...)
	for _, c := range incoming {
		if i, ok := index[c.ID]; ok {
			out[i] = c
			continue
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}

// upsert replaces or appends a single community.
func upsert(items []Community, c Community) []Community {
	out := append([]Community(nil), items...)
	for i := range out {
		if out[i].ID == c.ID {
			out[i] = c
			return out
		}
	}
	return append(out, c)
}

func find(items []Community, id string) *Community {
	for i := range items {
		if items[i].ID == id {
			c := items[i]
			return &c
		}
	}
	return nil
}
