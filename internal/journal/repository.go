// Package journal records bridge activity in the journal table: every
// inbound command outcome and every outbound cue.
//
// The journal is an audit trail only. Nothing in the bridge reads it back.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry kinds.
const (
	KindCommand = "command"
	KindCue     = "cue"
)

// Cue outcomes.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// Entry is a single journal row.
type Entry struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Source    string        `json:"source"` // osc, mqtt, or the OBS event type for cues
	Route     string        `json:"route,omitempty"`
	Address   string        `json:"address"`
	Args      string        `json:"args,omitempty"`
	Scene     string        `json:"scene,omitempty"`
	Token     string        `json:"token,omitempty"`
	Outcome   string        `json:"outcome"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Filter controls which entries to return.
type Filter struct {
	Kind    string // optional: command or cue
	Outcome string // optional: ok, error, dropped, sent, failed...
	Token   string // optional: cue token
	Limit   int    // default 50, max 200
	Offset  int    // pagination offset
}

// ListResult contains the paginated journal results.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the interface for journal operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeLayout is fixed-width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteRepository stores journal entries in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new journal repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new entry. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "jrn-" + uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO journal (id, kind, source, route, address, args, scene, token, outcome, error, duration_us, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Kind, entry.Source,
		nullableString(entry.Route), entry.Address, nullableString(entry.Args),
		nullableString(entry.Scene), nullableString(entry.Token),
		entry.Outcome, nullableString(entry.Error),
		entry.Duration.Microseconds(),
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("journal: inserting entry: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings so optional TEXT columns
// stay NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	if filter.Token != "" {
		conditions = append(conditions, "token = ?")
		args = append(args, filter.Token)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM journal %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("journal: counting entries: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		`SELECT id, kind, source, route, address, args, scene, token, outcome, error, duration_us, created_at
		 FROM journal %s ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: querying entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var route, args, scene, token, errText sql.NullString
	var durationUS int64
	var createdAt string

	if err := rows.Scan(&e.ID, &e.Kind, &e.Source, &route, &e.Address, &args,
		&scene, &token, &e.Outcome, &errText, &durationUS, &createdAt); err != nil {
		return Entry{}, fmt.Errorf("journal: scanning entry: %w", err)
	}

	e.Route = route.String
	e.Args = args.String
	e.Scene = scene.String
	e.Token = token.String
	e.Error = errText.String
	e.Duration = time.Duration(durationUS) * time.Microsecond

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: parsing timestamp %q: %w", createdAt, err)
	}
	e.CreatedAt = t

	return e, nil
}
