package repository

import (
	"database/sql"
	"fmt"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate() error: %v", err)
	}
}

func TestGetOrCreateRoom(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	first, err := repo.GetOrCreateRoom("lobby")
	if err != nil {
		t.Fatalf("GetOrCreateRoom() error: %v", err)
	}
	if first.ID == 0 || first.Name != "lobby" {
		t.Errorf("created room = %+v", first)
	}

	again, err := repo.GetOrCreateRoom("lobby")
	if err != nil {
		t.Fatalf("GetOrCreateRoom() second call error: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("second call returned id %d, want %d", again.ID, first.ID)
	}

	other, err := repo.GetOrCreateRoom("dev")
	if err != nil {
		t.Fatalf("GetOrCreateRoom() error: %v", err)
	}
	if other.ID == first.ID {
		t.Error("distinct rooms share an id")
	}
}

func TestSaveMessageNullableAuthor(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	room, err := repo.GetOrCreateRoom("lobby")
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.SaveMessage(room.ID, "alice", "hello"); err != nil {
		t.Fatalf("SaveMessage() error: %v", err)
	}
	if err := repo.SaveMessage(room.ID, "", "bot reply"); err != nil {
		t.Fatalf("SaveMessage() system error: %v", err)
	}

	var nullAuthors int
	if err := db.QueryRow("SELECT COUNT(*) FROM messages WHERE author IS NULL").Scan(&nullAuthors); err != nil {
		t.Fatal(err)
	}
	if nullAuthors != 1 {
		t.Errorf("NULL-author rows = %d, want 1", nullAuthors)
	}

	messages, err := repo.ListRecentMessages(room.ID, 10)
	if err != nil {
		t.Fatalf("ListRecentMessages() error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Author != "alice" || messages[0].IsSystem() {
		t.Errorf("first message = %+v", messages[0])
	}
	if messages[1].Author != "" || !messages[1].IsSystem() {
		t.Errorf("second message = %+v, want system-authored", messages[1])
	}
}

func TestListRecentMessagesWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	room, err := repo.GetOrCreateRoom("lobby")
	if err != nil {
		t.Fatal(err)
	}

	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 60; i++ {
		// Explicit timestamps so the window boundary is unambiguous.
		_, err := db.Exec(
			"INSERT INTO messages (room_id, author, content, created_at) VALUES (?, ?, ?, ?)",
			room.ID, "alice", fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Second),
		)
		if err != nil {
			t.Fatal(err)
		}
	}

	messages, err := repo.ListRecentMessages(room.ID, 50)
	if err != nil {
		t.Fatalf("ListRecentMessages() error: %v", err)
	}
	if len(messages) != 50 {
		t.Fatalf("got %d messages, want 50", len(messages))
	}
	if messages[0].Content != "msg-11" {
		t.Errorf("oldest in window = %q, want msg-11", messages[0].Content)
	}
	if messages[49].Content != "msg-60" {
		t.Errorf("newest in window = %q, want msg-60", messages[49].Content)
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Fatalf("messages out of chronological order at %d", i)
		}
	}
}

func TestListRecentMessagesTiesBrokenByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	room, err := repo.GetOrCreateRoom("lobby")
	if err != nil {
		t.Fatal(err)
	}

	at := time.Now()
	for _, content := range []string{"one", "two", "three"} {
		if _, err := db.Exec(
			"INSERT INTO messages (room_id, author, content, created_at) VALUES (?, ?, ?, ?)",
			room.ID, "alice", content, at,
		); err != nil {
			t.Fatal(err)
		}
	}

	messages, err := repo.ListRecentMessages(room.ID, 2)
	if err != nil {
		t.Fatalf("ListRecentMessages() error: %v", err)
	}
	if len(messages) != 2 || messages[0].Content != "two" || messages[1].Content != "three" {
		t.Errorf("tie ordering = %v, want [two three] by insert order", messages)
	}
}

func TestListRecentMessagesEmptyRoom(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	room, err := repo.GetOrCreateRoom("lobby")
	if err != nil {
		t.Fatal(err)
	}

	messages, err := repo.ListRecentMessages(room.ID, 50)
	if err != nil {
		t.Fatalf("ListRecentMessages() error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("got %d messages, want 0", len(messages))
	}
}

func TestSensitiveWords(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	words, err := repo.ListSensitiveWords()
	if err != nil {
		t.Fatalf("ListSensitiveWords() error: %v", err)
	}
	if len(words) != 0 {
		t.Errorf("got %v, want no words before seeding", words)
	}

	for _, w := range []string{"坏话", "spam"} {
		if _, err := db.Exec("INSERT INTO sensitive_words (word) VALUES (?)", w); err != nil {
			t.Fatal(err)
		}
	}

	words, err = repo.ListSensitiveWords()
	if err != nil {
		t.Fatalf("ListSensitiveWords() error: %v", err)
	}
	if len(words) != 2 {
		t.Errorf("got %v, want 2 words", words)
	}
}

func TestActivityAndWarningLogs(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	room, err := repo.GetOrCreateRoom("lobby")
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.AppendActivityLog("alice", "join_room", "lobby"); err != nil {
		t.Fatalf("AppendActivityLog() error: %v", err)
	}
	if err := repo.AppendWarningLog("这是坏话", "alice", room.ID, "坏话"); err != nil {
		t.Fatalf("AppendWarningLog() error: %v", err)
	}

	var action string
	if err := db.QueryRow("SELECT action FROM activity_logs WHERE username = ?", "alice").Scan(&action); err != nil {
		t.Fatal(err)
	}
	if action != "join_room" {
		t.Errorf("action = %q, want join_room", action)
	}

	var word string
	var roomID int
	if err := db.QueryRow("SELECT triggered_word, room_id FROM warning_logs WHERE username = ?", "alice").Scan(&word, &roomID); err != nil {
		t.Fatal(err)
	}
	if word != "坏话" || roomID != room.ID {
		t.Errorf("warning row = (%q, %d)", word, roomID)
	}
}
