package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"helpdesk/cmd/internal/helpdesk"
)

func newUsersCmd(st *cliState) *cobra.Command {
	var userType string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := st.app.Auth.Users(ctxOf(cmd), helpdesk.UserType(strings.ToLower(userType)))
			if err != nil {
				return err
			}
			return st.render(users, func(w tableWriter) {
				fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL\tTYPE")
				for _, u := range users {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName(), orDash(u.Email), u.UserType)
				}
			})
		},
	}
	cmd.Flags().StringVar(&userType, "type", "", "only users of this type: client, engineer or admin")
	return cmd
}

func newStatsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters for your role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := st.app.Tickets.Stats(ctxOf(cmd))
			if err != nil {
				return err
			}
			return st.render(stats, func(w tableWriter) {
				keys := make([]string, 0, len(stats))
				for k := range stats {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(w, "%s:\t%d\n", humanize(k), stats[k])
				}
			})
		},
	}
}

func newReportCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Ticket, user and engineer workload report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := ctxOf(cmd)
			tickets, err := st.app.Tickets.List(ctx, helpdesk.ListOptions{})
			if err != nil {
				return err
			}
			users, err := st.app.Auth.Users(ctx, "")
			if err != nil {
				return err
			}

			r := helpdesk.BuildReport(tickets, users)
			return st.render(r, func(w tableWriter) {
				fmt.Fprintf(w, "Total tickets:\t%d\n", r.TotalTickets)
				fmt.Fprintf(w, "Resolution rate:\t%d%%\n", r.ResolutionRate)
				fmt.Fprintf(w, "Avg resolution time:\t%s\n", r.AvgResolutionLabel())
				fmt.Fprintln(w)

				fmt.Fprintln(w, "STATUS\tTICKETS")
				for _, s := range helpdesk.Statuses {
					fmt.Fprintf(w, "%s\t%d\n", s, r.ByStatus[s])
				}
				fmt.Fprintln(w)

				fmt.Fprintln(w, "PRIORITY\tTICKETS")
				for _, p := range helpdesk.Priorities {
					fmt.Fprintf(w, "%s\t%d\n", p, r.ByPriority[p])
				}
				fmt.Fprintln(w)

				fmt.Fprintf(w, "Users:\t%d admins, %d engineers, %d clients\n",
					r.UsersByType[helpdesk.UserAdmin], r.UsersByType[helpdesk.UserEngineer], r.UsersByType[helpdesk.UserClient])
				if len(r.Workload) == 0 {
					return
				}
				fmt.Fprintln(w)
				fmt.Fprintln(w, "ENGINEER\tTOTAL\tACTIVE\tPENDING\tRESOLVED")
				for _, wl := range r.Workload {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", wl.Engineer.Username, wl.Total, wl.Active, wl.Pending, wl.Resolved)
				}
			})
		},
	}
}

// humanize turns "open_tickets" into "Open tickets".
func humanize(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
