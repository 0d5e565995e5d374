package messaging

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	outboxTable = "outbox_events"
	// claimLease is how long a claimed row stays hidden from other relays.
	claimLease = 30 * time.Second
)

// OutboxDispatcher moves pending outbox rows to the broker. Rows are claimed
// with SKIP LOCKED so several instances can relay concurrently.
type OutboxDispatcher struct {
	pool      *pgxpool.Pool
	publisher Publisher
	batchSize int
}

type outboxRow struct {
	ID        int64
	EventType string
	Payload   []byte
	Attempts  int
	CreatedAt time.Time
}

// NewOutboxDispatcher creates a dispatcher that claims up to batch rows per run.
func NewOutboxDispatcher(pool *pgxpool.Pool, publisher Publisher, batch int) *OutboxDispatcher {
	if batch <= 0 {
		batch = 100
	}
	return &OutboxDispatcher{pool: pool, publisher: publisher, batchSize: batch}
}

// DispatchOnce relays one batch and returns how many events were sent.
func (d *OutboxDispatcher) DispatchOnce(ctx context.Context) (int, error) {
	rows, err := d.claim(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, row := range rows {
		if err := d.publishOne(ctx, row); err != nil {
			log.Warnf("Outbox event %d (%s) not published: %v", row.ID, row.EventType, err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (d *OutboxDispatcher) claim(ctx context.Context) ([]outboxRow, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, event_type, payload, attempts, created_at
		FROM `+outboxTable+`
		WHERE status IN ('pending', 'processing') AND next_retry <= NOW()
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, d.batchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}

	var items []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.ID, &row.EventType, &row.Payload, &row.Attempts, &row.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(items))
	for i, row := range items {
		ids[i] = row.ID
	}
	_, err = tx.Exec(ctx, `
		UPDATE `+outboxTable+`
		SET status = 'processing', next_retry = $2, updated_at = NOW()
		WHERE id = ANY($1)`, ids, time.Now().Add(claimLease))
	if err != nil {
		return nil, fmt.Errorf("claim outbox rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (d *OutboxDispatcher) publishOne(ctx context.Context, row outboxRow) error {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := d.publisher.Publish(pubCtx, Message{
		ID:         strconv.FormatInt(row.ID, 10),
		RoutingKey: row.EventType,
		Body:       row.Payload,
		Timestamp:  row.CreatedAt,
	})
	if err != nil {
		return d.markFailure(ctx, row, err)
	}

	_, err = d.pool.Exec(ctx, `
		UPDATE `+outboxTable+`
		SET status = 'sent', updated_at = NOW()
		WHERE id = $1`, row.ID)
	return err
}

func (d *OutboxDispatcher) markFailure(ctx context.Context, row outboxRow, publishErr error) error {
	next := time.Now().Add(retryDelay(row.Attempts + 1))
	_, err := d.pool.Exec(ctx, `
		UPDATE `+outboxTable+`
		SET status = 'pending', attempts = attempts + 1, next_retry = $2, updated_at = NOW()
		WHERE id = $1`, row.ID, next)
	if err != nil {
		return fmt.Errorf("update retry: %w", err)
	}
	return publishErr
}

// PurgeSent deletes sent rows older than cutoff.
func (d *OutboxDispatcher) PurgeSent(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := d.pool.Exec(ctx, `DELETE FROM `+outboxTable+` WHERE status = 'sent' AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// retryDelay doubles per attempt and caps at one minute.
func retryDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 5 {
		attempts = 5
	}
	delay := time.Duration(1<<attempts) * time.Second
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}
