package helpdesk

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"helpdesk/cmd/internal/auth/client"
)

const DefaultWatchInterval = 5 * time.Second

// MessageSource is satisfied by *TicketService.
type MessageSource interface {
	Messages(ctx context.Context, ticketID int64) ([]Message, error)
}

// Watcher polls one ticket's conversation and yields only messages it has not seen.
// It is not safe for concurrent use.
type Watcher struct {
	src      MessageSource
	ticketID int64
	interval time.Duration
	log      *slog.Logger

	lastID int64
}

func NewWatcher(src MessageSource, ticketID int64, interval time.Duration, log *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{src: src, ticketID: ticketID, interval: interval, log: log}
}

// Poll fetches the conversation once and returns messages newer than the last
// one seen, oldest first.
func (w *Watcher) Poll(ctx context.Context) ([]Message, error) {
	msgs, err := w.src.Messages(ctx, w.ticketID)
	if err != nil {
		return nil, err
	}

	var fresh []Message
	for _, m := range msgs {
		if m.ID > w.lastID {
			fresh = append(fresh, m)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].ID < fresh[j].ID })
	if n := len(fresh); n > 0 {
		w.lastID = fresh[n-1].ID
	}
	return fresh, nil
}

// Run polls until ctx is done, calling emit for every new message. Transport
// failures are logged and retried on the next tick; any other error stops the
// watch. Cancellation returns nil.
func (w *Watcher) Run(ctx context.Context, emit func(Message)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		msgs, err := w.Poll(ctx)
		switch {
		case err == nil:
			for _, m := range msgs {
				emit(m)
			}
		case ctx.Err() != nil:
			return nil
		case isTransient(err):
			w.log.Warn("watch.poll.fail", "ticket_id", w.ticketID, "err", err)
		default:
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func isTransient(err error) bool {
	var terr *client.TransportError
	return errors.As(err, &terr) || errors.Is(err, client.ErrServer) || errors.Is(err, client.ErrRateLimited)
}
