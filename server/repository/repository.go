package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ponyo877/chatroom/server/domain"
	"github.com/ponyo877/chatroom/server/usecase"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) usecase.Repository {
	return &Repository{db: db}
}

// Open opens the sqlite database. A single open connection keeps the sqlite
// writer serialized; session goroutines share the pool safely.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, db.Ping()
}

// Migrate creates the schema. Statements are idempotent so startup can run
// them unconditionally.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL,
			author TEXT,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room_created
			ON messages(room_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			action TEXT NOT NULL,
			content TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS sensitive_words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS warning_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			username TEXT NOT NULL,
			room_id INTEGER NOT NULL,
			triggered_word TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// GetOrCreateRoom creates the room row lazily on first join. A room must
// exist before any message referencing it is stored.
func (r *Repository) GetOrCreateRoom(name string) (domain.Room, error) {
	room, err := r.getRoom(name)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, usecase.ErrNotFound) {
		return domain.Room{}, err
	}

	now := time.Now()
	res, err := r.db.Exec("INSERT INTO rooms (name, created_at) VALUES (?, ?)", name, now)
	if err != nil {
		// Lost a concurrent insert race; the row exists now.
		if room, err2 := r.getRoom(name); err2 == nil {
			return room, nil
		}
		return domain.Room{}, fmt.Errorf("failed to insert room %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Room{}, fmt.Errorf("failed to read room id for %q: %w", name, err)
	}
	return domain.Room{ID: int(id), Name: name, CreatedAt: now}, nil
}

func (r *Repository) getRoom(name string) (domain.Room, error) {
	var id int
	var createdAt time.Time
	err := r.db.QueryRow("SELECT id, created_at FROM rooms WHERE name = ?", name).Scan(&id, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, usecase.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("failed to query room %q: %w", name, err)
	}
	return domain.Room{ID: id, Name: name, CreatedAt: createdAt}, nil
}

// SaveMessage appends one immutable message row. Empty author is stored as
// NULL and means system- or bot-authored.
func (r *Repository) SaveMessage(roomID int, author, content string) error {
	var authorValue any
	if author != "" {
		authorValue = author
	}
	query := "INSERT INTO messages (room_id, author, content, created_at) VALUES (?, ?, ?, ?)"
	if _, err := r.db.Exec(query, roomID, authorValue, content, time.Now()); err != nil {
		return fmt.Errorf("failed to insert message for room %d: %w", roomID, err)
	}
	return nil
}

// ListRecentMessages returns the last limit messages for the room in
// chronological order, ties broken by id.
func (r *Repository) ListRecentMessages(roomID, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, author, content, created_at FROM (
			SELECT id, author, content, created_at
			FROM messages WHERE room_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		) ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for room %d: %w", roomID, err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var id int
		var author sql.NullString
		var content string
		var createdAt time.Time
		if err := rows.Scan(&id, &author, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, domain.NewMessage(id, roomID, author.String, content, createdAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over messages for room %d: %w", roomID, err)
	}
	return messages, nil
}

func (r *Repository) AppendActivityLog(username, action, content string) error {
	query := "INSERT INTO activity_logs (username, action, content, created_at) VALUES (?, ?, ?, ?)"
	if _, err := r.db.Exec(query, username, action, content, time.Now()); err != nil {
		return fmt.Errorf("failed to insert activity log for %q: %w", username, err)
	}
	return nil
}

func (r *Repository) ListSensitiveWords() ([]string, error) {
	rows, err := r.db.Query("SELECT word FROM sensitive_words")
	if err != nil {
		return nil, fmt.Errorf("failed to query sensitive words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("failed to scan sensitive word: %w", err)
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over sensitive words: %w", err)
	}
	return words, nil
}

func (r *Repository) AppendWarningLog(content, username string, roomID int, word string) error {
	query := "INSERT INTO warning_logs (content, username, room_id, triggered_word, created_at) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.Exec(query, content, username, roomID, word, time.Now()); err != nil {
		return fmt.Errorf("failed to insert warning log for %q: %w", username, err)
	}
	return nil
}
