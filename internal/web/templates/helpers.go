// Package templates renders the dashboard's HTML as templ components.
//
// The *.templ files are the sources; run `templ generate` after editing
// them to refresh the *_templ.go files.
package templates

import (
	"net/url"
	"strconv"
)

// EditFieldPrefix prefixes edit form input names so labels cannot clash
// with other form fields.
const EditFieldPrefix = "f."

// PagePath returns the URL of a page.
func PagePath(key string) string {
	return "/pages/" + url.PathEscape(key)
}

func pageQuery(key string, params url.Values) string {
	if len(params) == 0 {
		return PagePath(key)
	}
	return PagePath(key) + "?" + params.Encode()
}

// pageLink returns the URL of one page of the grid.
func pageLink(key string, page int) string {
	return pageQuery(key, url.Values{"page": {itoa(page)}})
}

// deleteLink opens the delete prompt for a row as it was rendered at
// version.
func deleteLink(key string, index int, version uint64) string {
	return pageQuery(key, url.Values{
		"delete":  {itoa(index)},
		"version": {uitoa(version)},
	})
}

func navClass(active bool) string {
	if active {
		return "nav-item active"
	}
	return "nav-item"
}

func cellClass(numeric bool) string {
	if numeric {
		return "numeric"
	}
	return "text"
}

func inputType(numeric bool) string {
	if numeric {
		return "number"
	}
	return "text"
}

func toggleLabel(hidden bool) string {
	if hidden {
		return "Show"
	}
	return "Hide"
}

func itoa(n int) string { return strconv.Itoa(n) }

func uitoa(n uint64) string { return strconv.FormatUint(n, 10) }
