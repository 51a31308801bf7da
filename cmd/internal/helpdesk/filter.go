package helpdesk

import "strings"

const (
	AssignedOnly   = "assigned"
	UnassignedOnly = "unassigned"
)

// Filter narrows a ticket list the way the ticket screens do. Zero fields match everything.
type Filter struct {
	Status   Status
	Priority Priority
	Category Category
	// Assigned is AssignedOnly, UnassignedOnly or "".
	Assigned string
	// Search matches ticket number, title, client or engineer username, case-insensitively.
	Search string
}

func (f Filter) Match(t Ticket) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	switch f.Assigned {
	case AssignedOnly:
		if !t.IsAssigned() {
			return false
		}
	case UnassignedOnly:
		if t.IsAssigned() {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return matchesSearch(t, q)
	}
	return true
}

func matchesSearch(t Ticket, q string) bool {
	if strings.Contains(strings.ToLower(t.TicketNumber), q) || strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	if t.Client != nil && strings.Contains(strings.ToLower(t.Client.Username), q) {
		return true
	}
	for _, e := range t.Engineers() {
		if strings.Contains(strings.ToLower(e.Username), q) {
			return true
		}
	}
	return false
}

// Apply returns the matching tickets in their original order.
func (f Filter) Apply(tickets []Ticket) []Ticket {
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

const DefaultPageSize = 10

// Page is one window of a list. Page numbers start at 1.
type Page[T any] struct {
	Items    []T `json:"items" yaml:"items"`
	Page     int `json:"page" yaml:"page"`
	PageSize int `json:"page_size" yaml:"page_size"`
	Total    int `json:"total" yaml:"total"`
	Pages    int `json:"pages" yaml:"pages"`
}

func (p Page[T]) HasNext() bool { return p.Page < p.Pages }

// Paginate slices items into pages of pageSize. A page past the end is empty.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}

	p := Page[T]{Page: page, PageSize: pageSize, Total: total, Pages: pages, Items: []T{}}
	// Checked before multiplying so huge page numbers cannot overflow.
	if page > pages {
		return p
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	p.Items = items[start:end]
	return p
}
