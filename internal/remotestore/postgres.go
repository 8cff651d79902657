package remotestore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/apexestimating/fieldcheck/internal/checklist"
)

const postgresOperationTimeout = 5 * time.Second

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// PostgresStore keeps reviews in three row-oriented tables: one for
// the aggregate scalars, one for per-item answers, one for log
// entries. The connection and schema are initialized lazily on first
// use so constructing the store never touches the network.
type PostgresStore struct {
	dsn      string
	template []checklist.Item
	openDB   sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func NewPostgresStore(dsn string, template []checklist.Item) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrNotConfigured
	}
	if len(template) == 0 {
		return nil, ErrInvalidInput
	}
	return &PostgresStore{
		dsn:      dsn,
		template: append([]checklist.Item(nil), template...),
		openDB:   sql.Open,
	}, nil
}

func (s *PostgresStore) ensureReady() error {
	s.initOnce.Do(func() {
		db, err := s.openDB("postgres", s.dsn)
		if err != nil {
			s.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
		defer cancel()

		statements := []string{
			`CREATE TABLE IF NOT EXISTS checklists (
				id UUID PRIMARY KEY,
				owner_id TEXT NOT NULL,
				client TEXT,
				location_number TEXT,
				start_time TIMESTAMPTZ,
				completed_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS checklists_owner_updated_idx
				ON checklists (owner_id, updated_at DESC)`,
			`CREATE TABLE IF NOT EXISTS checklist_items (
				checklist_id UUID NOT NULL REFERENCES checklists(id) ON DELETE CASCADE,
				item_id TEXT NOT NULL,
				question TEXT NOT NULL,
				answer TEXT,
				section TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (checklist_id, item_id)
			)`,
			`CREATE TABLE IF NOT EXISTS log_entries (
				id UUID PRIMARY KEY,
				checklist_id UUID NOT NULL REFERENCES checklists(id) ON DELETE CASCADE,
				seq BIGSERIAL,
				message TEXT NOT NULL,
				item_id TEXT,
				item_question TEXT,
				logged_at_time TEXT NOT NULL,
				logged_at_date TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS log_entries_checklist_seq_idx
				ON log_entries (checklist_id, seq)`,
		}
		for _, statement := range statements {
			if _, err := db.ExecContext(ctx, statement); err != nil {
				_ = db.Close()
				s.initErr = err
				return
			}
		}
		s.db = db
	})
	return s.initErr
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) LoadLatest(ctx context.Context, ownerID string) (*checklist.Checklist, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidInput
	}
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client, location_number, start_time, completed_at, updated_at
		FROM checklists
		WHERE owner_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`, ownerID)
	return s.reconstitute(ctx, row)
}

func (s *PostgresStore) LoadByID(ctx context.Context, id, ownerID string) (*checklist.Checklist, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidInput
	}
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client, location_number, start_time, completed_at, updated_at
		FROM checklists
		WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return s.reconstitute(ctx, row)
}

func (s *PostgresStore) reconstitute(ctx context.Context, row *sql.Row) (*checklist.Checklist, error) {
	var (
		id          string
		client      sql.NullString
		location    sql.NullString
		startTime   sql.NullTime
		completedAt sql.NullTime
		updatedAt   time.Time
	)
	err := row.Scan(&id, &client, &location, &startTime, &completedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	saved, err := s.loadSavedAnswers(ctx, id)
	if err != nil {
		return nil, err
	}
	notes, err := s.loadLogEntries(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &checklist.Checklist{
		ID:             id,
		Client:         checklist.Client(client.String),
		LocationNumber: location.String,
		Items:          checklist.Overlay(s.template, saved),
		Notes:          notes,
	}
	if startTime.Valid {
		t := startTime.Time
		out.StartTime = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		out.CompletedAt = &t
	}
	saved2 := updatedAt
	out.LastSaved = &saved2
	return out, nil
}

func (s *PostgresStore) loadSavedAnswers(ctx context.Context, checklistID string) ([]checklist.SavedAnswer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, question, answer
		FROM checklist_items
		WHERE checklist_id = $1
		ORDER BY created_at ASC`, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []checklist.SavedAnswer
	for rows.Next() {
		var (
			itemID   string
			question string
			answer   sql.NullString
		)
		if err := rows.Scan(&itemID, &question, &answer); err != nil {
			return nil, err
		}
		out = append(out, checklist.SavedAnswer{
			ItemID:   itemID,
			Question: question,
			Answer:   checklist.Answer(answer.String),
		})
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadLogEntries(ctx context.Context, checklistID string) ([]checklist.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message, item_id, item_question, logged_at_time, logged_at_date
		FROM log_entries
		WHERE checklist_id = $1
		ORDER BY seq ASC`, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []checklist.LogEntry
	for rows.Next() {
		var (
			entry        checklist.LogEntry
			itemID       sql.NullString
			itemQuestion sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Message, &itemID, &itemQuestion, &entry.Timestamp, &entry.Date); err != nil {
			return nil, err
		}
		entry.ItemID = itemID.String
		entry.ItemQuestion = itemQuestion.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Upsert writes scalars first (insert or ownership-scoped update),
// then deletes and reinserts every item and log row, so remote state
// always converges to the in-memory snapshot. The whole sequence runs
// in one transaction; a failed attempt leaves the previous record
// intact and the next periodic sync reattempts with current state.
func (s *PostgresStore) Upsert(ctx context.Context, data *checklist.Checklist, ownerID string) (string, error) {
	if data == nil || strings.TrimSpace(ownerID) == "" {
		return "", ErrInvalidInput
	}
	if err := s.ensureReady(); err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	checklistID := strings.TrimSpace(data.ID)
	if checklistID != "" {
		result, err := tx.ExecContext(ctx, `
			UPDATE checklists
			SET client = $1, location_number = $2, start_time = $3, completed_at = $4, updated_at = NOW()
			WHERE id = $5 AND owner_id = $6`,
			nullStr(string(data.Client)), nullStr(data.LocationNumber),
			nullTime(data.StartTime), nullTime(data.CompletedAt),
			checklistID, ownerID)
		if err != nil {
			return "", err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return "", err
		}
		if affected == 0 {
			// Record gone or owned by someone else; a fresh insert
			// keeps the caller's snapshot authoritative.
			checklistID = ""
		}
	}
	if checklistID == "" {
		checklistID = uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO checklists (id, owner_id, client, location_number, start_time, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			checklistID, ownerID,
			nullStr(string(data.Client)), nullStr(data.LocationNumber),
			nullTime(data.StartTime), nullTime(data.CompletedAt)); err != nil {
			return "", err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM checklist_items WHERE checklist_id = $1`, checklistID); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM log_entries WHERE checklist_id = $1`, checklistID); err != nil {
		return "", err
	}

	for _, item := range data.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO checklist_items (checklist_id, item_id, question, answer, section)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (checklist_id, item_id)
			DO UPDATE SET question = EXCLUDED.question, answer = EXCLUDED.answer, section = EXCLUDED.section`,
			checklistID, item.ID, item.Question, nullStr(string(item.Answer)), string(item.Section)); err != nil {
			return "", err
		}
	}
	for _, note := range data.Notes {
		noteID := note.ID
		if strings.TrimSpace(noteID) == "" {
			noteID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO log_entries (id, checklist_id, message, item_id, item_question, logged_at_time, logged_at_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			noteID, checklistID, note.Message,
			nullStr(note.ItemID), nullStr(note.ItemQuestion),
			note.Timestamp, note.Date); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	committed = true
	return checklistID, nil
}

func (s *PostgresStore) Remove(ctx context.Context, id, ownerID string) error {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(ownerID) == "" {
		return ErrInvalidInput
	}
	if err := s.ensureReady(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM checklists WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return err
}

func (s *PostgresStore) ListSummaries(ctx context.Context, ownerID string) ([]LocationGroup, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidInput
	}
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.client, c.location_number, c.completed_at, c.created_at, c.updated_at,
			COUNT(i.item_id) AS total_items,
			COUNT(i.answer) AS completed_items,
			COUNT(i.answer) FILTER (WHERE i.answer = 'no') AS failed_items
		FROM checklists c
		LEFT JOIN checklist_items i ON i.checklist_id = c.id
		WHERE c.owner_id = $1
		GROUP BY c.id
		ORDER BY c.updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var (
			summary     Summary
			client      sql.NullString
			location    sql.NullString
			completedAt sql.NullTime
		)
		if err := rows.Scan(&summary.ID, &client, &location, &completedAt,
			&summary.CreatedAt, &summary.UpdatedAt,
			&summary.TotalItems, &summary.CompletedItems, &summary.FailedItems); err != nil {
			return nil, err
		}
		summary.Client = client.String
		summary.LocationNumber = location.String
		if completedAt.Valid {
			t := completedAt.Time
			summary.CompletedAt = &t
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return GroupByLocation(summaries), nil
}

func nullStr(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
