package helpdesk

import (
	"strings"
	"time"
)

type UserType string

const (
	UserClient   UserType = "client"
	UserEngineer UserType = "engineer"
	UserAdmin    UserType = "admin"
)

func (u UserType) Valid() bool {
	switch u {
	case UserClient, UserEngineer, UserAdmin:
		return true
	}
	return false
}

type Status string

const (
	StatusOpen          Status = "open"
	StatusInProgress    Status = "in_progress"
	StatusPendingClient Status = "pending_client"
	StatusResolved      Status = "resolved"
	StatusClosed        Status = "closed"
	StatusReopened      Status = "reopened"
)

// Statuses lists every ticket status in workflow order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusPendingClient, StatusResolved, StatusClosed, StatusReopened}

// Done reports whether the ticket counts as resolved for reporting.
func (s Status) Done() bool { return s == StatusResolved || s == StatusClosed }

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

type Category string

const (
	CategoryTechnical      Category = "technical"
	CategoryBilling        Category = "billing"
	CategoryAccount        Category = "account"
	CategoryFeatureRequest Category = "feature_request"
	CategoryOther          Category = "other"
)

var Categories = []Category{CategoryTechnical, CategoryBilling, CategoryAccount, CategoryFeatureRequest, CategoryOther}

type User struct {
	ID         int64    `json:"id" yaml:"id"`
	Username   string   `json:"username" yaml:"username"`
	Email      string   `json:"email,omitempty" yaml:"email,omitempty"`
	FirstName  string   `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName   string   `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	UserType   UserType `json:"user_type" yaml:"user_type"`
	Phone      string   `json:"phone,omitempty" yaml:"phone,omitempty"`
	Department string   `json:"department,omitempty" yaml:"department,omitempty"`
}

// DisplayName is "First Last", falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

type TicketEngineer struct {
	ID         int64     `json:"id" yaml:"id"`
	Engineer   User      `json:"engineer" yaml:"engineer"`
	AssignedAt time.Time `json:"assigned_at" yaml:"assigned_at"`
	IsPrimary  bool      `json:"is_primary" yaml:"is_primary"`
}

type Ticket struct {
	ID                int64            `json:"id" yaml:"id"`
	TicketNumber      string           `json:"ticket_number" yaml:"ticket_number"`
	Title             string           `json:"title" yaml:"title"`
	Description       string           `json:"description" yaml:"description"`
	Client            *User            `json:"client,omitempty" yaml:"client,omitempty"`
	Engineer          *User            `json:"engineer,omitempty" yaml:"engineer,omitempty"`
	AssignedEngineers []TicketEngineer `json:"assigned_engineers,omitempty" yaml:"assigned_engineers,omitempty"`
	Priority          Priority         `json:"priority" yaml:"priority"`
	Status            Status           `json:"status" yaml:"status"`
	Category          Category         `json:"category" yaml:"category"`
	CreatedAt         time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" yaml:"updated_at"`
	ResolvedAt        *time.Time       `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`
}

// Engineers returns the primary engineer and every assigned engineer, without duplicates.
func (t Ticket) Engineers() []User {
	var out []User
	seen := make(map[int64]bool)
	if t.Engineer != nil {
		out = append(out, *t.Engineer)
		seen[t.Engineer.ID] = true
	}
	for _, a := range t.AssignedEngineers {
		if seen[a.Engineer.ID] {
			continue
		}
		seen[a.Engineer.ID] = true
		out = append(out, a.Engineer)
	}
	return out
}

func (t Ticket) IsAssigned() bool { return len(t.Engineers()) > 0 }

// AssignedTo reports whether engineerID works on the ticket.
func (t Ticket) AssignedTo(engineerID int64) bool {
	for _, e := range t.Engineers() {
		if e.ID == engineerID {
			return true
		}
	}
	return false
}

type Message struct {
	ID        int64     `json:"id" yaml:"id"`
	Ticket    int64     `json:"ticket" yaml:"ticket"`
	Sender    User      `json:"sender" yaml:"sender"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	IsRead    bool      `json:"is_read" yaml:"is_read"`
}

type TicketLog struct {
	ID        int64     `json:"id" yaml:"id"`
	Ticket    int64     `json:"ticket" yaml:"ticket"`
	User      *User     `json:"user,omitempty" yaml:"user,omitempty"`
	Action    string    `json:"action" yaml:"action"`
	Details   string    `json:"details,omitempty" yaml:"details,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

type AssignResult struct {
	Message           string   `json:"message" yaml:"message"`
	AssignedEngineers []string `json:"assigned_engineers" yaml:"assigned_engineers"`
}

// DashboardStats holds role-dependent counters, e.g. total_tickets or pending_tickets.
type DashboardStats map[string]int
