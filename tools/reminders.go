package tools

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Reminder is one scheduled watering reminder. Rows are append-only and
// bulk-removable per user; Active exists for forward compatibility and
// is never toggled yet.
type Reminder struct {
	ID        string
	UserID    string
	Schedule  string
	CreatedAt time.Time
	Active    bool
}

// ReminderStore provides SQLite-backed storage for reminders, keyed by
// user and durable across restarts. Writes are serialized through a
// single writer lock so concurrent users cannot corrupt each other's
// entries.
type ReminderStore struct {
	mu sync.RWMutex
	db *sql.DB
}

const reminderSchema = `CREATE TABLE IF NOT EXISTS reminders (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	schedule TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	active INTEGER NOT NULL DEFAULT 1
)`

// NewReminderStore opens (or creates) the reminder database. A corrupt
// database file is reset to an empty collection rather than aborting
// startup.
func NewReminderStore(path string, logger *zap.Logger) (*ReminderStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := openReminderDB(path)
	if err != nil {
		logger.Warn("reminder storage unreadable, resetting",
			zap.String("path", path), zap.Error(err))
		_ = os.Remove(path)
		db, err = openReminderDB(path)
		if err != nil {
			return nil, fmt.Errorf("reset reminder storage: %w", err)
		}
	}

	return &ReminderStore{db: db}, nil
}

func openReminderDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(reminderSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return db, nil
}

// Add appends a reminder for the user and returns the stored entry.
func (s *ReminderStore) Add(userID, schedule string) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Reminder{
		ID:        uuid.NewString(),
		UserID:    userID,
		Schedule:  schedule,
		CreatedAt: time.Now().UTC(),
		Active:    true,
	}

	_, err := s.db.Exec(
		`INSERT INTO reminders (id, user_id, schedule, created_at, active) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Schedule, r.CreatedAt.Format(time.RFC3339), boolToInt(r.Active),
	)
	if err != nil {
		return Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	return r, nil
}

// ForUser returns all reminders for the user in creation order.
func (s *ReminderStore) ForUser(userID string) ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, user_id, schedule, created_at, active
		 FROM reminders WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		var createdAt string
		var active int
		if err := rows.Scan(&r.ID, &r.UserID, &r.Schedule, &createdAt, &active); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.Active = active != 0
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// Clear removes every reminder belonging to the user.
func (s *ReminderStore) Clear(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM reminders WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear reminders: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *ReminderStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
