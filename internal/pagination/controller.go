// Package pagination holds page and search state for console lists.
package pagination

import (
	"errors"
	"sync"

	"github.com/capitalize-ai/bot-console/internal/model"
)

// ErrPageOutOfRange is returned when a page lies past the last item.
var ErrPageOutOfRange = errors.New("page out of range")

// State is a snapshot of a controller.
type State struct {
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	Search     string     `json:"search"`
	TotalItems int        `json:"total_items"`
	TotalPages int        `json:"total_pages"`
	HasPrev    bool       `json:"has_prev"`
	HasNext    bool       `json:"has_next"`
	Visible    bool       `json:"visible"`
	Window     []PageItem `json:"window,omitempty"`
}

// Controller keeps 1-based page, fixed page size and search text for one list.
type Controller struct {
	mu       sync.Mutex
	page     int
	pageSize int
	search   string
	total    int
	known    bool
}

// New creates a controller on page 1.
func New(pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Controller{page: 1, pageSize: pageSize}
}

// Page returns the current page.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PageSize returns the fixed page size.
func (c *Controller) PageSize() int {
	return c.pageSize
}

// Search returns the current search text.
func (c *Controller) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// SetSearch changes the search text. A new value resets the page to 1.
func (c *Controller) SetSearch(search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if search == c.search {
		return
	}
	c.search = search
	c.page = 1
	c.known = false
}

// SetPage moves to page n, clamped to at least 1. Once the total is known,
// pages past the last item are rejected and the state is left unchanged.
func (c *Controller) SetPage(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		n = 1
	}
	if n > 1 && c.known && (n-1)*c.pageSize >= c.total {
		return ErrPageOutOfRange
	}
	c.page = n
	return nil
}

// Next advances one page if HasNext allows it.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasNextLocked() {
		return ErrPageOutOfRange
	}
	c.page++
	return nil
}

// Prev goes back one page, stopping at page 1.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page > 1 {
		c.page--
	}
}

// SetTotal records the item count the server reported for the current query.
func (c *Controller) SetTotal(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if total < 0 {
		total = 0
	}
	c.total = total
	c.known = true
}

// Total returns the last reported item count.
func (c *Controller) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// HasNext reports whether the Next control is enabled.
func (c *Controller) HasNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasNextLocked()
}

func (c *Controller) hasNextLocked() bool {
	return c.page*c.pageSize < c.total
}

// HasPrev reports whether the Previous control is enabled.
func (c *Controller) HasPrev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page > 1
}

// Params returns the query parameters for the current state.
func (c *Controller) Params() model.ListParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.ListParams{Page: c.page, PageSize: c.pageSize, Search: c.search}
}

// State returns a snapshot including the page window.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	pages := totalPages(c.total, c.pageSize)
	return State{
		Page:       c.page,
		PageSize:   c.pageSize,
		Search:     c.search,
		TotalItems: c.total,
		TotalPages: pages,
		HasPrev:    c.page > 1,
		HasNext:    c.hasNextLocked(),
		Visible:    c.total > c.pageSize,
		Window:     Window(c.page, pages),
	}
}

// clearSearch empties the search text without touching the page.
func (c *Controller) clearSearch() {
	c.mu.Lock()
	c.search = ""
	c.mu.Unlock()
}

func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
