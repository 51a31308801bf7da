package app

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"helpdesk/cmd/internal/helpdesk"
)

func newTicketsCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"ticket", "t"},
		Short:   "Work with tickets",
	}
	cmd.AddCommand(
		newTicketsListCmd(st),
		newTicketsShowCmd(st),
		newTicketsCreateCmd(st),
		newTicketsUpdateCmd(st),
		newTicketsAssignCmd(st),
		newTicketsMessagesCmd(st),
		newTicketsLogsCmd(st),
		newTicketsSendCmd(st),
		newTicketsWatchCmd(st),
	)
	return cmd
}

func parseTicketID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ticket id %q", arg)
	}
	return id, nil
}

func newTicketsListCmd(st *cliState) *cobra.Command {
	var (
		status, priority, category string
		f                          helpdesk.Filter
		page, pageSize             int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets visible to you",
		Long: `List tickets visible to the signed-in user. Clients see their own
tickets, engineers their assigned ones, administrators all of them.

--status, --priority and --category are applied by the server;
--assigned and --search narrow the result locally.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.Assigned != "" && f.Assigned != helpdesk.AssignedOnly && f.Assigned != helpdesk.UnassignedOnly {
				return fmt.Errorf("--assigned must be %q or %q", helpdesk.AssignedOnly, helpdesk.UnassignedOnly)
			}

			tickets, err := st.app.Tickets.List(ctxOf(cmd), helpdesk.ListOptions{
				Status:   helpdesk.Status(status),
				Priority: helpdesk.Priority(priority),
				Category: helpdesk.Category(category),
			})
			if err != nil {
				return err
			}

			p := helpdesk.Paginate(f.Apply(tickets), page, pageSize)
			return st.render(p, func(w tableWriter) {
				if p.Total == 0 {
					fmt.Fprintln(w, "No tickets.")
					return
				}
				fmt.Fprintln(w, "ID\tNUMBER\tTITLE\tSTATUS\tPRIORITY\tCLIENT\tENGINEERS\tUPDATED")
				for _, t := range p.Items {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						t.ID, t.TicketNumber, ellipsize(t.Title, 40), t.Status, t.Priority,
						clientName(t), orDash(engineerNames(t)), fmtTime(t.UpdatedAt))
				}
				fmt.Fprintf(w, "\nPage %d of %d (%d tickets)\n", p.Page, max(p.Pages, 1), p.Total)
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&status, "status", "", "open, in_progress, pending_client, resolved, closed or reopened")
	fl.StringVar(&priority, "priority", "", "low, medium, high or critical")
	fl.StringVar(&category, "category", "", "technical, billing, account, feature_request or other")
	fl.StringVar(&f.Assigned, "assigned", "", "assigned or unassigned")
	fl.StringVarP(&f.Search, "search", "s", "", "match ticket number, title, client or engineer")
	fl.IntVar(&page, "page", 1, "page number, starting at 1")
	fl.IntVar(&pageSize, "page-size", helpdesk.DefaultPageSize, "tickets per page")
	return cmd
}

func newTicketsShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTicketID(args[0])
			if err != nil {
				return err
			}
			t, err := st.app.Tickets.Get(ctxOf(cmd), id)
			if err != nil {
				return err
			}
			return st.render(t, func(w tableWriter) { writeTicket(w, t) })
		},
	}
}

func writeTicket(w tableWriter, t helpdesk.Ticket) {
	fmt.Fprintf(w, "Ticket:\t%s (#%d)\n", orDash(t.TicketNumber), t.ID)
	fmt.Fprintf(w, "Title:\t%s\n", t.Title)
	fmt.Fprintf(w, "Status:\t%s\n", t.Status)
	fmt.Fprintf(w, "Priority:\t%s\n", t.Priority)
	fmt.Fprintf(w, "Category:\t%s\n", t.Category)
	fmt.Fprintf(w, "Client:\t%s\n", clientName(t))
	fmt.Fprintf(w, "Engineers:\t%s\n", orDash(engineerNames(t)))
	fmt.Fprintf(w, "Created:\t%s\n", fmtTime(t.CreatedAt))
	fmt.Fprintf(w, "Updated:\t%s\n", fmtTime(t.UpdatedAt))
	fmt.Fprintf(w, "Resolved:\t%s\n", fmtTimePtr(t.ResolvedAt))
	if d := strings.TrimSpace(t.Description); d != "" {
		fmt.Fprintf(w, "\n%s\n", d)
	}
}

func clientName(t helpdesk.Ticket) string {
	if t.Client == nil {
		return "-"
	}
	return t.Client.Username
}

func engineerNames(t helpdesk.Ticket) string {
	engs := t.Engineers()
	names := make([]string, 0, len(engs))
	for _, e := range engs {
		names = append(names, e.Username)
	}
	return strings.Join(names, ", ")
}

func newTicketsCreateCmd(st *cliState) *cobra.Command {
	var in helpdesk.TicketInput
	var category, priority string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new ticket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Category = helpdesk.Category(category)
			in.Priority = helpdesk.Priority(priority)
			t, err := st.app.Tickets.Create(ctxOf(cmd), in)
			if err != nil {
				return err
			}
			return st.render(t, func(w tableWriter) {
				fmt.Fprintf(w, "Created ticket %s (#%d).\n", orDash(t.TicketNumber), t.ID)
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&in.Title, "title", "", "short summary")
	fl.StringVar(&in.Description, "description", "", "what happened")
	fl.StringVar(&category, "category", string(helpdesk.CategoryTechnical), "technical, billing, account, feature_request or other")
	fl.StringVar(&priority, "priority", string(helpdesk.PriorityMedium), "low, medium, high or critical")
	return cmd
}

func newTicketsUpdateCmd(st *cliState) *cobra.Command {
	var up helpdesk.TicketUpdate
	var category, priority, status string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a ticket's fields or status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTicketID(args[0])
			if err != nil {
				return err
			}
			up.Category = helpdesk.Category(category)
			up.Priority = helpdesk.Priority(priority)
			up.Status = helpdesk.Status(status)

			t, err := st.app.Tickets.Update(ctxOf(cmd), id, up)
			if err != nil {
				return err
			}
			return st.render(t, func(w tableWriter) { writeTicket(w, t) })
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&up.Title, "title", "", "new title")
	fl.StringVar(&up.Description, "description", "", "new description")
	fl.StringVar(&category, "category", "", "new category")
	fl.StringVar(&priority, "priority", "", "new priority")
	fl.StringVar(&status, "status", "", "new status")
	return cmd
}

func newTicketsAssignCmd(st *cliState) *cobra.Command {
	var in helpdesk.AssignInput

	cmd := &cobra.Command{
		Use:   "assign ID",
		Short: "Assign engineers to a ticket (administrators)",
		Example: `  helpdesk tickets assign 42 --engineer 7 --engineer 9 --note "escalated"
  helpdesk tickets assign 42 --engineer 7 --clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTicketID(args[0])
			if err != nil {
				return err
			}
			res, err := st.app.Tickets.Assign(ctxOf(cmd), id, in)
			if err != nil {
				return err
			}
			return st.render(res, func(w tableWriter) {
				fmt.Fprintln(w, orDash(res.Message))
				if len(res.AssignedEngineers) > 0 {
					fmt.Fprintf(w, "Assigned:\t%s\n", strings.Join(res.AssignedEngineers, ", "))
				}
			})
		},
	}

	fl := cmd.Flags()
	fl.Int64SliceVar(&in.EngineerIDs, "engineer", nil, "engineer user id (repeatable)")
	fl.StringVar(&in.Note, "note", "", "assignment note")
	fl.BoolVar(&in.ClearExisting, "clear", false, "replace the current assignments")
	return cmd
}

func newTicketsMessagesCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "messages ID",
		Short: "Show a ticket's conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTicketID(args[0])
			if err != nil {
				return err
			}
			msgs, err := st.app.Tickets.Messages(ctxOf(cmd), id)
			if err != nil {
				return err
			}
			return st.render(msgs, func(w tableWriter) {
				if len(msgs) == 0 {
					fmt.Fprintln(w, "No messages yet.")
					return
				}
				for _, m := range msgs {
					writeMessage(w, m)
				}
			})
		},
	}
}

func writeMessage(w tableWriter, m helpdesk.Message) {
	fmt.Fprintf(w, "%s\t%s\t%s\n", fmtTime(m.Timestamp), m.Sender.Username, m.Content)
}

func newTicketsLogsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "logs ID",
		Short: "Show a ticket's activity log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTicketID(args[0])
			if err != nil {
				return err
			}
			logs, err := st.app.Tickets.Logs(ctxOf(cmd), id)
			if err != nil {
				return err
			}
			return st.render(logs, func(w tableWriter) {
				fmt.Fprintln(w, "TIME\tUSER\tACTION\tDETAILS")
				for _, l := range logs {
					user := "-"
					if l.User != nil {
						user = l.User.Username
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", fmtTime(l.Timestamp), user, l.Action, orDash(ellipsize(l.Details, 60)))
				}
			})
		},
	}
}

func newTicketsSendCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "send ID MESSAGE...",
		Short: "Post a message on a ticket",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTicketID(args[0])
			if err != nil {
				return err
			}
			m, err := st.app.Tickets.SendMessage(ctxOf(cmd), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return st.render(m, func(w tableWriter) { writeMessage(w, m) })
		},
	}
}

func newTicketsWatchCmd(st *cliState) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch ID",
		Short: "Follow a ticket's conversation until interrupted",
		Long: `Print the ticket's conversation, then poll for new messages until
interrupted. With HELPDESK_METRICS_ADDR set, /metrics, /healthz and /readyz
are served for the duration of the watch.

JSON and YAML output emit one document per message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTicketID(args[0])
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = st.cfg.WatchInterval
			}

			emit, err := messageEmitter(st)
			if err != nil {
				return err
			}
			w := helpdesk.NewWatcher(st.app.Tickets, id, interval, st.app.Logger())

			g, ctx := errgroup.WithContext(ctxOf(cmd))
			g.Go(func() error { return st.app.ServeMetrics(ctx) })
			g.Go(func() error { return w.Run(ctx, emit) })
			if err := g.Wait(); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default HELPDESK_WATCH_INTERVAL)")
	return cmd
}

// messageEmitter prints watched messages as they arrive, one line or document each.
func messageEmitter(st *cliState) (func(helpdesk.Message), error) {
	out := st.stdout
	switch st.output {
	case OutputJSON:
		enc := json.NewEncoder(out)
		return func(m helpdesk.Message) {
			if err := enc.Encode(m); err != nil {
				st.app.Logger().Warn("watch.emit.fail", "message_id", m.ID, "err", err)
			}
		}, nil
	case OutputYAML:
		return func(m helpdesk.Message) {
			b, err := yaml.Marshal(m)
			if err != nil {
				st.app.Logger().Warn("watch.emit.fail", "message_id", m.ID, "err", err)
				return
			}
			fmt.Fprintf(out, "---\n%s", b)
		}, nil
	case OutputTable:
		return func(m helpdesk.Message) {
			fmt.Fprintf(out, "%s  %s: %s\n", fmtTime(m.Timestamp), m.Sender.Username, m.Content)
		}, nil
	}
	return nil, validOutput(st.output)
}
