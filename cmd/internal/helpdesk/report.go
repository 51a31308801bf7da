package helpdesk

import (
	"fmt"
	"math"
	"sort"
)

type EngineerWorkload struct {
	Engineer User `json:"engineer" yaml:"engineer"`
	Total    int  `json:"total" yaml:"total"`
	Active   int  `json:"active" yaml:"active"`
	Pending  int  `json:"pending" yaml:"pending"`
	Resolved int  `json:"resolved" yaml:"resolved"`
}

type Report struct {
	TotalTickets   int              `json:"total_tickets" yaml:"total_tickets"`
	ByStatus       map[Status]int   `json:"by_status" yaml:"by_status"`
	ByPriority     map[Priority]int `json:"by_priority" yaml:"by_priority"`
	ResolutionRate int              `json:"resolution_rate" yaml:"resolution_rate"`
	// AvgResolutionDays is nil when no ticket is resolved or closed.
	AvgResolutionDays *float64           `json:"avg_resolution_days" yaml:"avg_resolution_days"`
	UsersByType       map[UserType]int   `json:"users_by_type" yaml:"users_by_type"`
	Workload          []EngineerWorkload `json:"workload" yaml:"workload"`
}

// AvgResolutionLabel renders the average as "2.5 days", or "N/A".
func (r Report) AvgResolutionLabel() string {
	if r.AvgResolutionDays == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f days", *r.AvgResolutionDays)
}

// BuildReport computes the admin report over a ticket and user snapshot.
//
// The resolution rate is resolved+closed over all tickets, as a rounded
// percentage. The average resolution time sums created→resolved days over
// done tickets carrying resolved_at and divides by the count of all done
// tickets.
func BuildReport(tickets []Ticket, users []User) Report {
	r := Report{
		TotalTickets: len(tickets),
		ByStatus:     make(map[Status]int, len(Statuses)),
		ByPriority:   make(map[Priority]int, len(Priorities)),
		UsersByType:  map[UserType]int{UserAdmin: 0, UserEngineer: 0, UserClient: 0},
	}
	for _, s := range Statuses {
		r.ByStatus[s] = 0
	}
	for _, p := range Priorities {
		r.ByPriority[p] = 0
	}

	var done int
	var days float64
	for _, t := range tickets {
		r.ByStatus[t.Status]++
		r.ByPriority[t.Priority]++
		if !t.Status.Done() {
			continue
		}
		done++
		if !t.CreatedAt.IsZero() && t.ResolvedAt != nil {
			days += t.ResolvedAt.Sub(t.CreatedAt).Hours() / 24
		}
	}

	if len(tickets) > 0 {
		r.ResolutionRate = int(math.Round(float64(done) / float64(len(tickets)) * 100))
	}
	if done > 0 {
		avg := days / float64(done)
		r.AvgResolutionDays = &avg
	}

	for _, u := range users {
		r.UsersByType[u.UserType]++
		if u.UserType == UserEngineer {
			r.Workload = append(r.Workload, workloadFor(u, tickets))
		}
	}
	sort.Slice(r.Workload, func(i, j int) bool {
		return r.Workload[i].Engineer.Username < r.Workload[j].Engineer.Username
	})
	return r
}

func workloadFor(eng User, tickets []Ticket) EngineerWorkload {
	w := EngineerWorkload{Engineer: eng}
	for _, t := range tickets {
		if !t.AssignedTo(eng.ID) {
			continue
		}
		w.Total++
		switch {
		case t.Status == StatusInProgress:
			w.Active++
		case t.Status == StatusPendingClient:
			w.Pending++
		case t.Status.Done():
			w.Resolved++
		}
	}
	return w
}
