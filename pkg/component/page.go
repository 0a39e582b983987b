package component

import "net/url"

// ListParams carries pagination and filtering inputs for GetPage. Offset is
// a 1-based page number; Limit of 0 means unlimited. Next and Previous are
// URLs supplied by the transport layer and are emitted in the page metadata
// only when the corresponding page exists.
type ListParams struct {
	Limit    int
	Offset   int
	Filters  url.Values
	Next     string
	Previous string
}

// Page wraps one page of serialized items with pagination metadata.
// Remaining counts the items on later pages.
type Page struct {
	Count     int64                    `json:"count"`
	Remaining int64                    `json:"remaining"`
	Offset    int                      `json:"offset"`
	Limit     int                      `json:"limit"`
	Next      string                   `json:"next,omitempty"`
	Previous  string                   `json:"previous,omitempty"`
	Items     []map[string]interface{} `json:"items"`
}
