package helpdesk

import (
	"testing"
	"time"
)

func TestBuildReport(t *testing.T) {
	day := 24 * time.Hour
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { v := t0.Add(d); return &v }

	eng1 := User{ID: 10, Username: "eng1", UserType: UserEngineer}
	eng2 := User{ID: 11, Username: "eng0", UserType: UserEngineer}

	tickets := []Ticket{
		{ID: 1, Status: StatusResolved, Priority: PriorityHigh, CreatedAt: t0, ResolvedAt: at(2 * day), Engineer: &eng1},
		{ID: 2, Status: StatusClosed, Priority: PriorityLow, CreatedAt: t0, ResolvedAt: at(4 * day), Engineer: &eng1},
		// Done but without resolved_at: counted in the divisor only.
		{ID: 3, Status: StatusResolved, Priority: PriorityLow, CreatedAt: t0},
		{ID: 4, Status: StatusInProgress, Priority: PriorityCritical, CreatedAt: t0, Engineer: &eng1},
		{ID: 5, Status: StatusPendingClient, Priority: PriorityMedium, CreatedAt: t0,
			AssignedEngineers: []TicketEngineer{{Engineer: eng2}}},
		{ID: 6, Status: StatusOpen, Priority: PriorityMedium, CreatedAt: t0},
	}
	users := []User{
		eng1, eng2,
		{ID: 1, Username: "root", UserType: UserAdmin},
		{ID: 2, Username: "c1", UserType: UserClient},
		{ID: 3, Username: "c2", UserType: UserClient},
	}

	r := BuildReport(tickets, users)

	if r.TotalTickets != 6 {
		t.Fatalf("total=%d want=6", r.TotalTickets)
	}
	// 3 done of 6.
	if r.ResolutionRate != 50 {
		t.Fatalf("resolution rate=%d want=50", r.ResolutionRate)
	}
	// (2 + 4) / 3 done tickets.
	if r.AvgResolutionDays == nil || *r.AvgResolutionDays != 2 {
		t.Fatalf("avg=%v want=2", r.AvgResolutionDays)
	}
	if got := r.AvgResolutionLabel(); got != "2.0 days" {
		t.Fatalf("label=%q want=2.0 days", got)
	}
	if r.ByStatus[StatusResolved] != 2 || r.ByStatus[StatusClosed] != 1 || r.ByStatus[StatusReopened] != 0 {
		t.Fatalf("by status=%v", r.ByStatus)
	}
	if r.ByPriority[PriorityLow] != 2 || r.ByPriority[PriorityMedium] != 2 {
		t.Fatalf("by priority=%v", r.ByPriority)
	}
	if r.UsersByType[UserClient] != 2 || r.UsersByType[UserEngineer] != 2 || r.UsersByType[UserAdmin] != 1 {
		t.Fatalf("users by type=%v", r.UsersByType)
	}

	if len(r.Workload) != 2 || r.Workload[0].Engineer.Username != "eng0" {
		t.Fatalf("workload=%+v want eng0 first", r.Workload)
	}
	w0, w1 := r.Workload[0], r.Workload[1]
	if w0.Total != 1 || w0.Pending != 1 {
		t.Fatalf("eng0=%+v", w0)
	}
	if w1.Total != 3 || w1.Active != 1 || w1.Resolved != 2 || w1.Pending != 0 {
		t.Fatalf("eng1=%+v", w1)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	r := BuildReport(nil, nil)
	if r.ResolutionRate != 0 || r.AvgResolutionDays != nil || r.AvgResolutionLabel() != "N/A" {
		t.Fatalf("empty report=%+v", r)
	}
}

func TestResolutionRateRounds(t *testing.T) {
	tests := []struct {
		tickets []Ticket
		want    int
	}{
		{[]Ticket{{Status: StatusResolved}, {Status: StatusOpen}, {Status: StatusOpen}}, 33},
		{[]Ticket{{Status: StatusResolved}, {Status: StatusClosed}, {Status: StatusOpen}}, 67},
		{[]Ticket{{Status: StatusReopened}, {Status: StatusClosed}}, 50},
	}
	for _, tc := range tests {
		if got := BuildReport(tc.tickets, nil).ResolutionRate; got != tc.want {
			t.Fatalf("rate=%d want=%d", got, tc.want)
		}
	}
}
