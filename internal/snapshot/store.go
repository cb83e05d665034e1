// Package snapshot persists session runs to a SQLite database: session
// metadata, monthly price history rows and JSON gamestate summaries.
// Storage is entirely optional; the simulation core never depends on it.
package snapshot

import (
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/ironcliff/hegemon/errs"
	"github.com/ironcliff/hegemon/internal/market"
	"github.com/ironcliff/hegemon/lib/chrono"
)

// Store wraps a SQLite connection for saved game data.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates the save database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot open save database"),
			errs.WithField("path", path),
			errs.WithCause(err))
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot migrate save database"),
			errs.WithCause(err))
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		bookmark TEXT NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS price_history (
		session_id TEXT NOT NULL,
		good TEXT NOT NULL,
		day INTEGER NOT NULL,
		date TEXT NOT NULL,
		price TEXT NOT NULL,
		PRIMARY KEY (session_id, good, day)
	);

	CREATE TABLE IF NOT EXISTS summaries (
		session_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		date TEXT NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (session_id, day)
	);

	CREATE INDEX IF NOT EXISTS idx_price_history_good ON price_history(session_id, good);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveSession records session metadata, replacing any previous row for
// the same session identifier.
func (s *Store) SaveSession(id uuid.UUID, bookmark string, startedAt time.Time) error {
	_, err := s.conn.Exec(
		"INSERT OR REPLACE INTO sessions (id, bookmark, started_at) VALUES (?, ?, ?)",
		id.String(), bookmark, startedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot save session"),
			errs.WithCause(err))
	}
	return nil
}

// SaveHistory writes the full monthly price history of every good for
// the session. Rows are keyed by day so re-saving a longer run of the
// same session upserts cleanly.
func (s *Store) SaveHistory(session uuid.UUID, goods []market.Good) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot begin history transaction"),
			errs.WithCause(err))
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO price_history
		(session_id, good, day, date, price) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot prepare history insert"),
			errs.WithCause(err))
	}
	defer stmt.Close()

	id := session.String()
	for i := range goods {
		good := &goods[i]
		for _, point := range good.History() {
			_, err := stmt.Exec(id, good.Definition().ID,
				point.Date.Days(), point.Date.String(), point.Price.String())
			if err != nil {
				return errs.New("snapshot", errs.CodeStorage,
					errs.WithMessage("cannot insert price sample"),
					errs.WithField("good", good.Definition().ID),
					errs.WithCause(err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot commit history transaction"),
			errs.WithCause(err))
	}
	return nil
}

// LoadHistory reads one good's saved price series in date order.
func (s *Store) LoadHistory(session uuid.UUID, goodID string) ([]market.PricePoint, error) {
	rows, err := s.conn.Queryx(
		"SELECT day, price FROM price_history WHERE session_id = ? AND good = ? ORDER BY day",
		session.String(), goodID,
	)
	if err != nil {
		return nil, errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot query price history"),
			errs.WithField("good", goodID),
			errs.WithCause(err))
	}
	defer rows.Close()

	var points []market.PricePoint
	for rows.Next() {
		var day int64
		var price string
		if err := rows.Scan(&day, &price); err != nil {
			return nil, errs.New("snapshot", errs.CodeStorage,
				errs.WithMessage("cannot scan price sample"),
				errs.WithCause(err))
		}
		value, err := decimal.NewFromString(price)
		if err != nil {
			return nil, errs.New("snapshot", errs.CodeStorage,
				errs.WithMessage("corrupt price sample"),
				errs.WithField("price", price),
				errs.WithCause(err))
		}
		points = append(points, market.PricePoint{Date: chrono.DateFromDays(day), Price: value})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot read price history"),
			errs.WithCause(err))
	}
	return points, nil
}

// SaveSummary stores one dated gamestate summary as a JSON payload,
// replacing any summary already saved for the same day.
func (s *Store) SaveSummary(session uuid.UUID, today chrono.Date, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot encode summary"),
			errs.WithCause(err))
	}
	_, err = s.conn.Exec(
		"INSERT OR REPLACE INTO summaries (session_id, day, date, payload) VALUES (?, ?, ?, ?)",
		session.String(), today.Days(), today.String(), string(body),
	)
	if err != nil {
		return errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot save summary"),
			errs.WithCause(err))
	}
	return nil
}

// LoadSummary decodes the summary saved for a day into out. It reports
// found=false when no summary exists for that day.
func (s *Store) LoadSummary(session uuid.UUID, day chrono.Date, out any) (bool, error) {
	var payload string
	err := s.conn.Get(&payload,
		"SELECT payload FROM summaries WHERE session_id = ? AND day = ?",
		session.String(), day.Days(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("cannot load summary"),
			errs.WithCause(err))
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, errs.New("snapshot", errs.CodeStorage,
			errs.WithMessage("corrupt summary payload"),
			errs.WithCause(err))
	}
	return true, nil
}
