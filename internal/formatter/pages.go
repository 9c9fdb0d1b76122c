package formatter

import "strings"

// DataPathPrefix marks a module path that already names a paged data endpoint.
const DataPathPrefix = "pages/data/"

// IsDataPath reports whether path can be fetched as paged data without resolving a module page first.
func IsDataPath(path string) bool {
	return strings.HasPrefix(path, DataPathPrefix)
}

// DataAPIPath reads rows[0].modules[0].pagedList.dataApiPath from a module page.
func DataAPIPath(page any) (string, bool) {
	v, ok := dig(page, "rows", 0, "modules", 0, "pagedList", "dataApiPath")
	if !ok {
		return "", false
	}
	path, ok := v.(string)
	return path, ok && path != ""
}

// ItemPage is an item list with the nested "item" wrappers removed.
type ItemPage struct {
	Items              []any `json:"items"`
	Limit              any   `json:"limit"`
	Offset             any   `json:"offset"`
	TotalNumberOfItems any   `json:"totalNumberOfItems"`
}

// UnwrapItems flattens {"items":[{"item":{...}}, ...]} into the inner items,
// keeping the pagination counters as they came.
func UnwrapItems(page any) ItemPage {
	raw := ItemsOf(page)
	items := make([]any, 0, len(raw))
	for _, entry := range raw {
		if inner, ok := dig(entry, "item"); ok {
			items = append(items, inner)
			continue
		}
		items = append(items, entry)
	}

	return ItemPage{
		Items:              items,
		Limit:              field(page, "limit"),
		Offset:             field(page, "offset"),
		TotalNumberOfItems: field(page, "totalNumberOfItems"),
	}
}

// Discography is an artist's details together with their albums and EPs/singles.
type Discography struct {
	Details any   `json:"details"`
	Albums  []any `json:"albums"`
	Singles []any `json:"singles"`
}

// NewDiscography keeps the item lists of the two album listings.
func NewDiscography(details, albums, singles any) Discography {
	return Discography{Details: details, Albums: ItemsOf(albums), Singles: ItemsOf(singles)}
}
