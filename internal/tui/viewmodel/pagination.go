package viewmodel

import "fmt"

// ItemsPageSize is the fixed page size of the items table.
const ItemsPageSize = 15

// Pagination tracks the page and search term of the items table.
type Pagination struct {
	Search string
	Page   int
	Pages  int
}

// NewPagination starts at page 1 with no search.
func NewPagination() Pagination {
	return Pagination{Page: 1, Pages: 1}
}

// ClampPage bounds page to [1, pages]; pages below 1 count as 1.
func ClampPage(page, pages int) int {
	pages = max(pages, 1)
	return min(max(page, 1), pages)
}

// CanPrev reports whether a previous page exists.
func (p Pagination) CanPrev() bool {
	return p.Page > 1
}

// CanNext reports whether a next page exists.
func (p Pagination) CanNext() bool {
	return p.Page < p.Pages
}

// Prev moves back one page and reports whether the page changed.
func (p *Pagination) Prev() bool {
	if !p.CanPrev() {
		return false
	}
	p.Page--
	return true
}

// Next moves forward one page and reports whether the page changed.
func (p *Pagination) Next() bool {
	if !p.CanNext() {
		return false
	}
	p.Page++
	return true
}

// SetSearch replaces the search term and resets to page 1.
// It reports whether the term changed.
func (p *Pagination) SetSearch(search string) bool {
	if search == p.Search {
		return false
	}
	p.Search = search
	p.Page = 1
	return true
}

// SetPages records the page count from a response and clamps the current page.
func (p *Pagination) SetPages(pages int) {
	p.Pages = max(pages, 1)
	p.Page = ClampPage(p.Page, p.Pages)
}

// Label renders "Page x of y".
func (p Pagination) Label() string {
	return fmt.Sprintf("Page %d of %d", p.Page, max(p.Pages, 1))
}
