package changes

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diary/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Channel is the PostgreSQL notification channel the entries trigger
// writes owner ids to.
const Channel = "diary_entries"

type notifyConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// connect is a seam for tests.
var connect = func(ctx context.Context, dsn string) (notifyConn, error) {
	return pgx.Connect(ctx, dsn)
}

// Listener republishes PostgreSQL notifications on Channel to a Hub, so
// writes made by other server instances reach local subscribers.
type Listener struct {
	dsn     string
	hub     *Hub
	logger  logging.Logger
	backoff time.Duration
}

func NewListener(dsn string, hub *Hub, logger logging.Logger) *Listener {
	return &Listener{dsn: dsn, hub: hub, logger: logger.With("module", "listener"), backoff: 2 * time.Second}
}

// Run listens until ctx is cancelled, reconnecting after failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn(ctx, "listen connection lost", "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.logger.Info(ctx, "listening for entry changes", "channel", Channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Channel != Channel || n.Payload == "" {
			continue
		}
		l.hub.Publish(n.Payload)
	}
}
