package helpdesk

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"helpdesk/cmd/internal/auth/client"
)

type TicketService struct {
	api *client.Client
}

func NewTicketService(api *client.Client) *TicketService {
	return &TicketService{api: api}
}

// ListOptions are server-side filters; empty fields are not sent.
type ListOptions struct {
	Status   Status
	Priority Priority
	Category Category
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Status != "" {
		q.Set("status", string(o.Status))
	}
	if o.Priority != "" {
		q.Set("priority", string(o.Priority))
	}
	if o.Category != "" {
		q.Set("category", string(o.Category))
	}
	return q
}

type TicketInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Category    Category `json:"category" validate:"required,oneof=technical billing account feature_request other"`
	Priority    Priority `json:"priority" validate:"required,oneof=low medium high critical"`
}

// TicketUpdate is a change set; only non-empty fields are sent.
type TicketUpdate struct {
	Title       string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category,omitempty" validate:"omitempty,oneof=technical billing account feature_request other"`
	Priority    Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Status      Status   `json:"status,omitempty" validate:"omitempty,oneof=open in_progress pending_client resolved closed reopened"`
}

func (u TicketUpdate) empty() bool {
	return u == TicketUpdate{}
}

type AssignInput struct {
	EngineerIDs   []int64 `json:"engineer_ids" validate:"required,min=1,dive,gt=0"`
	Note          string  `json:"note"`
	ClearExisting bool    `json:"clear_existing"`
}

type messageInput struct {
	Ticket  int64  `json:"ticket" validate:"gt=0"`
	Content string `json:"content" validate:"required"`
}

func ticketPath(id int64, suffix string) string {
	return fmt.Sprintf("/tickets/%d/%s", id, suffix)
}

func checkID(id int64) error {
	if id <= 0 {
		return fieldError("id", "Must be greater than 0.")
	}
	return nil
}

// List returns the tickets visible to the current user.
func (s *TicketService) List(ctx context.Context, opts ListOptions) ([]Ticket, error) {
	var out []Ticket
	if err := s.api.Get(ctx, "/tickets/", opts.query(), &out); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return out, nil
}

func (s *TicketService) Get(ctx context.Context, id int64) (Ticket, error) {
	if err := checkID(id); err != nil {
		return Ticket{}, err
	}
	var t Ticket
	if err := s.api.Get(ctx, ticketPath(id, ""), nil, &t); err != nil {
		return Ticket{}, fmt.Errorf("get ticket %d: %w", id, err)
	}
	return t, nil
}

func (s *TicketService) Create(ctx context.Context, in TicketInput) (Ticket, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Category == "" {
		in.Category = CategoryTechnical
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if err := validateInput(in); err != nil {
		return Ticket{}, err
	}

	var t Ticket
	if err := s.api.Post(ctx, "/tickets/create/", in, &t); err != nil {
		return Ticket{}, fmt.Errorf("create ticket: %w", err)
	}
	return t, nil
}

func (s *TicketService) Update(ctx context.Context, id int64, in TicketUpdate) (Ticket, error) {
	if err := checkID(id); err != nil {
		return Ticket{}, err
	}
	if in.empty() {
		return Ticket{}, fieldError("non_field_errors", "Nothing to update.")
	}
	if err := validateInput(in); err != nil {
		return Ticket{}, err
	}

	var t Ticket
	if err := s.api.Put(ctx, ticketPath(id, ""), in, &t); err != nil {
		return Ticket{}, fmt.Errorf("update ticket %d: %w", id, err)
	}
	return t, nil
}

// Assign attaches engineers to a ticket. Unknown engineer ids are skipped by
// the server; the result lists who was actually assigned.
func (s *TicketService) Assign(ctx context.Context, id int64, in AssignInput) (AssignResult, error) {
	if err := checkID(id); err != nil {
		return AssignResult{}, err
	}
	if err := validateInput(in); err != nil {
		return AssignResult{}, err
	}

	var out AssignResult
	if err := s.api.Post(ctx, ticketPath(id, "assign/"), in, &out); err != nil {
		return AssignResult{}, fmt.Errorf("assign ticket %d: %w", id, err)
	}
	return out, nil
}

// Messages returns the ticket's conversation, oldest first.
func (s *TicketService) Messages(ctx context.Context, id int64) ([]Message, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var out []Message
	if err := s.api.Get(ctx, ticketPath(id, "messages/"), nil, &out); err != nil {
		return nil, fmt.Errorf("ticket %d messages: %w", id, err)
	}
	return out, nil
}

func (s *TicketService) Logs(ctx context.Context, id int64) ([]TicketLog, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var out []TicketLog
	if err := s.api.Get(ctx, ticketPath(id, "logs/"), nil, &out); err != nil {
		return nil, fmt.Errorf("ticket %d logs: %w", id, err)
	}
	return out, nil
}

func (s *TicketService) SendMessage(ctx context.Context, id int64, content string) (Message, error) {
	in := messageInput{Ticket: id, Content: strings.TrimSpace(content)}
	if err := validateInput(in); err != nil {
		return Message{}, err
	}

	var m Message
	if err := s.api.Post(ctx, "/tickets/messages/create/", in, &m); err != nil {
		return Message{}, fmt.Errorf("send message on ticket %d: %w", id, err)
	}
	return m, nil
}

// Stats returns the dashboard counters for the current user's role.
func (s *TicketService) Stats(ctx context.Context) (DashboardStats, error) {
	out := DashboardStats{}
	if err := s.api.Get(ctx, "/tickets/dashboard/stats/", nil, &out); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return out, nil
}
