package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
	"github.com/ivankudzin/skillswap/internal/services/matching"
)

const queueColumns = `
	match_id,
	user_a_id,
	user_b_id,
	status,
	a_consent,
	b_consent,
	shared_category,
	requested_at,
	matched_at,
	terminated_at`

const uniqueViolation = "23505"

type QueueRepo struct {
	pool     *pgxpool.Pool
	attempts int
}

func NewQueueRepo(pool *pgxpool.Pool, attempts int) *QueueRepo {
	if attempts <= 0 {
		attempts = DefaultTxAttempts
	}
	return &QueueRepo{pool: pool, attempts: attempts}
}

func (r *QueueRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx matching.Tx) error) error {
	err := WithTxRetry(ctx, r.pool, r.attempts, func(txCtx context.Context, tx pgx.Tx) error {
		return fn(txCtx, &queueTx{tx: tx})
	})
	if errors.Is(err, ErrRetriesExhausted) {
		return fmt.Errorf("%w: %w", matching.ErrTransient, err)
	}
	return err
}

func (r *QueueRepo) FindByID(ctx context.Context, entryID int64) (model.QueueEntry, error) {
	if r.pool == nil {
		return model.QueueEntry{}, fmt.Errorf("postgres pool is nil")
	}

	entry, err := scanEntry(r.pool.QueryRow(ctx, `
SELECT`+queueColumns+`
FROM matching_queue
WHERE match_id = $1
`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.QueueEntry{}, matching.ErrEntryNotFound
		}
		return model.QueueEntry{}, fmt.Errorf("find queue entry: %w", err)
	}
	return entry, nil
}

// FindActiveByUser prefers pending or matched entries, then the most recent confirmed one.
func (r *QueueRepo) FindActiveByUser(ctx context.Context, userID int64) (model.QueueEntry, error) {
	if r.pool == nil {
		return model.QueueEntry{}, fmt.Errorf("postgres pool is nil")
	}

	entry, err := scanEntry(r.pool.QueryRow(ctx, `
SELECT`+queueColumns+`
FROM matching_queue
WHERE
	(user_a_id = $1 AND status = 'pending')
	OR ((user_a_id = $1 OR user_b_id = $1) AND status IN ('matched', 'confirmed'))
ORDER BY
	CASE WHEN status IN ('pending', 'matched') THEN 0 ELSE 1 END,
	match_id DESC
LIMIT 1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.QueueEntry{}, matching.ErrEntryNotFound
		}
		return model.QueueEntry{}, fmt.Errorf("find active queue entry: %w", err)
	}
	return entry, nil
}

func (r *QueueRepo) ScanPending(ctx context.Context) ([]model.QueueEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+queueColumns+`
FROM matching_queue
WHERE status = 'pending' AND user_b_id IS NULL
ORDER BY requested_at ASC, match_id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("scan pending entries: %w", err)
	}
	return collectEntries(rows)
}

func (r *QueueRepo) ScanStale(ctx context.Context, cutoff time.Time) ([]model.QueueEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+queueColumns+`
FROM matching_queue
WHERE status IN ('pending', 'matched') AND requested_at < $1
ORDER BY requested_at ASC, match_id ASC
`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("scan stale entries: %w", err)
	}
	return collectEntries(rows)
}

func (r *QueueRepo) CountMatchedBetween(ctx context.Context, from, to time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM matching_queue
WHERE status IN ('matched', 'confirmed')
	AND matched_at >= $1
	AND matched_at < $2
`, from.UTC(), to.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count matched entries: %w", err)
	}
	return count, nil
}

type queueTx struct {
	tx pgx.Tx
}

func (t *queueTx) LockUser(ctx context.Context, userID int64) (model.User, error) {
	user, err := scanUser(t.tx.QueryRow(ctx, `
SELECT`+userColumns+`
FROM users
WHERE user_id = $1
FOR UPDATE
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, matching.ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("lock user: %w", err)
	}
	return user, nil
}

func (t *queueTx) LockEntry(ctx context.Context, entryID int64) (model.QueueEntry, error) {
	entry, err := scanEntry(t.tx.QueryRow(ctx, `
SELECT`+queueColumns+`
FROM matching_queue
WHERE match_id = $1
FOR UPDATE
`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.QueueEntry{}, matching.ErrEntryNotFound
		}
		return model.QueueEntry{}, fmt.Errorf("lock queue entry: %w", err)
	}
	return entry, nil
}

func (t *queueTx) ActiveEntryForUser(ctx context.Context, userID int64) (model.QueueEntry, bool, error) {
	entry, err := scanEntry(t.tx.QueryRow(ctx, `
SELECT`+queueColumns+`
FROM matching_queue
WHERE (user_a_id = $1 OR user_b_id = $1) AND status IN ('pending', 'matched')
ORDER BY match_id DESC
LIMIT 1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.QueueEntry{}, false, nil
		}
		return model.QueueEntry{}, false, fmt.Errorf("find active entry for user: %w", err)
	}
	return entry, true, nil
}

func (t *queueTx) InsertEntry(ctx context.Context, requesterID int64, requestedAt time.Time) (model.QueueEntry, error) {
	entry, err := scanEntry(t.tx.QueryRow(ctx, `
INSERT INTO matching_queue (user_a_id, status, requested_at)
VALUES ($1, 'pending', $2)
RETURNING`+queueColumns+`
`, requesterID, requestedAt.UTC()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.QueueEntry{}, matching.ErrAlreadyQueued
		}
		return model.QueueEntry{}, fmt.Errorf("insert queue entry: %w", err)
	}
	return entry, nil
}

func (t *queueTx) UpdateEntry(ctx context.Context, entry model.QueueEntry) error {
	if _, err := enums.ParseQueueStatus(string(entry.Status)); err != nil {
		return fmt.Errorf("%w: %v", matching.ErrValidation, err)
	}

	result, err := t.tx.Exec(ctx, `
UPDATE matching_queue
SET
	user_b_id = $2,
	status = $3,
	a_consent = $4,
	b_consent = $5,
	shared_category = $6,
	matched_at = $7,
	terminated_at = $8
WHERE match_id = $1
`,
		entry.ID,
		entry.PartnerID,
		string(entry.Status),
		entry.RequesterConsent.Bool(),
		entry.PartnerConsent.Bool(),
		entry.SharedCategory,
		entry.MatchedAt,
		entry.TerminatedAt,
	)
	if err != nil {
		return fmt.Errorf("update queue entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return matching.ErrEntryNotFound
	}
	return nil
}

// SetAvailability updates users in ascending id order so concurrent transitions take row locks
// in the same sequence.
func (t *queueTx) SetAvailability(ctx context.Context, available bool, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	_, err := t.tx.Exec(ctx, `
UPDATE users u
SET is_matching_available = $1
FROM (
	SELECT user_id
	FROM users
	WHERE user_id = ANY($2)
	ORDER BY user_id
	FOR UPDATE
) locked
WHERE u.user_id = locked.user_id
`, available, userIDs)
	if err != nil {
		return fmt.Errorf("set matching availability: %w", err)
	}
	return nil
}

func scanEntry(row pgx.Row) (model.QueueEntry, error) {
	var (
		entry     model.QueueEntry
		status    string
		aConsent  *bool
		bConsent  *bool
		partnerID *int64
	)
	if err := row.Scan(
		&entry.ID,
		&entry.RequesterID,
		&partnerID,
		&status,
		&aConsent,
		&bConsent,
		&entry.SharedCategory,
		&entry.RequestedAt,
		&entry.MatchedAt,
		&entry.TerminatedAt,
	); err != nil {
		return model.QueueEntry{}, err
	}

	parsed, err := enums.ParseQueueStatus(status)
	if err != nil {
		return model.QueueEntry{}, err
	}
	entry.Status = parsed
	entry.PartnerID = partnerID
	entry.RequesterConsent = enums.ConsentFromBool(aConsent)
	entry.PartnerConsent = enums.ConsentFromBool(bConsent)
	entry.RequestedAt = entry.RequestedAt.UTC()
	return entry, nil
}

func collectEntries(rows pgx.Rows) ([]model.QueueEntry, error) {
	defer rows.Close()

	items := make([]model.QueueEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		items = append(items, entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate queue entries: %w", rows.Err())
	}
	return items, nil
}
