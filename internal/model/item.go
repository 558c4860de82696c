package model

import "slices"

// Item is the domain model for a todo entry.
// ID is assigned by the data store on first save and stays empty for an
// item that only exists locally.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Equal reports whether a and b hold the same items in the same order.
// A nil list equals an empty one.
func Equal(a, b []Item) bool {
	return slices.Equal(a, b)
}

// Names returns the item names in order, used for log lines.
func Names(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}
