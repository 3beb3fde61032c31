package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mes-labs/plantquery/internal/catalog"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        external_user_id TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS query_threads (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        title TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS query_messages (
        id TEXT PRIMARY KEY, -- UUID
        thread_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        message TEXT NOT NULL,
        context_tag TEXT,
        corrected_msg TEXT,
        gen_sql TEXT,
        result_data TEXT, -- JSON payload of columns/rows/row_count
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (thread_id) REFERENCES query_threads (id)
    );

    CREATE TABLE IF NOT EXISTS term_dictionary (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        pattern TEXT UNIQUE NOT NULL,
        replacement TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS schema_tables (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT UNIQUE NOT NULL,
        description TEXT NOT NULL DEFAULT ''
    );

    CREATE TABLE IF NOT EXISTS schema_columns (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        table_id INTEGER NOT NULL,
        name TEXT NOT NULL,
        data_type TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL DEFAULT '',
        FOREIGN KEY (table_id) REFERENCES schema_tables (id)
    );

    CREATE TABLE IF NOT EXISTS knowledge_notes (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        content TEXT NOT NULL
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) GetUserByExternalID(externalUserID string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE external_user_id = ?", externalUserID).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(externalUserID, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (external_user_id, password_hash) VALUES (?, ?)", externalUserID, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE id = ?", id).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Thread methods
func (s *SQLiteStore) CreateThread(userID int64, title string) (*Thread, error) {
	threadID := uuid.NewString()
	stmt, err := s.db.Prepare("INSERT INTO query_threads (id, user_id, title, created_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare thread insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.Exec(threadID, userID, title, now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute thread insert: %w", err)
	}
	return &Thread{ID: threadID, UserID: userID, Title: &title, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetThread(threadID string, userID int64) (*Thread, error) {
	var thread Thread
	var title sql.NullString
	err := s.db.QueryRow("SELECT id, user_id, title, created_at FROM query_threads WHERE id = ? AND user_id = ?", threadID, userID).Scan(&thread.ID, &thread.UserID, &title, &thread.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if title.Valid {
		thread.Title = &title.String
	}
	return &thread, nil
}

func (s *SQLiteStore) ListThreads(userID int64) ([]Thread, error) {
	rows, err := s.db.Query("SELECT id, user_id, title, created_at FROM query_threads WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		var thread Thread
		var title sql.NullString
		if err := rows.Scan(&thread.ID, &thread.UserID, &title, &thread.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thread row: %w", err)
		}
		if title.Valid {
			thread.Title = &title.String
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

// Message methods
func (s *SQLiteStore) AppendMessage(msg *Message) error {
	msg.ID = uuid.NewString() // Ensure ID is set
	msg.CreatedAt = time.Now()

	stmt, err := s.db.Prepare("INSERT INTO query_messages (id, thread_id, role, message, context_tag, corrected_msg, gen_sql, result_data, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	var resultData *string
	if len(msg.ResultData) > 0 {
		str := string(msg.ResultData)
		resultData = &str
	}
	_, err = stmt.Exec(msg.ID, msg.ThreadID, msg.Role, msg.Message, msg.ContextTag, msg.CorrectedMsg, msg.GenSQL, resultData, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListMessages(threadID string, limit int, offset int) ([]Message, error) {
	query := "SELECT id, thread_id, role, message, context_tag, corrected_msg, gen_sql, result_data, created_at FROM query_messages WHERE thread_id = ? ORDER BY created_at ASC LIMIT ? OFFSET ?"
	rows, err := s.db.Query(query, threadID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var contextTag, correctedMsg, genSQL, resultData sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Role, &msg.Message, &contextTag, &correctedMsg, &genSQL, &resultData, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		if contextTag.Valid {
			msg.ContextTag = &contextTag.String
		}
		if correctedMsg.Valid {
			msg.CorrectedMsg = &correctedMsg.String
		}
		if genSQL.Valid {
			msg.GenSQL = &genSQL.String
		}
		if resultData.Valid {
			msg.ResultData = []byte(resultData.String)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Catalog methods. The dictionary, schema metadata and knowledge notes are
// editable through the seeding CLI and read once at server start.

func (s *SQLiteStore) ListTermEntries() ([]catalog.TermEntry, error) {
	rows, err := s.db.Query("SELECT pattern, replacement FROM term_dictionary ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query term dictionary: %w", err)
	}
	defer rows.Close()

	var entries []catalog.TermEntry
	for rows.Next() {
		var e catalog.TermEntry
		if err := rows.Scan(&e.Pattern, &e.Replacement); err != nil {
			return nil, fmt.Errorf("failed to scan term entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *SQLiteStore) ListSchemaTables() ([]catalog.TableMeta, error) {
	rows, err := s.db.Query("SELECT id, name, description FROM schema_tables ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema tables: %w", err)
	}
	defer rows.Close()

	var tables []catalog.TableMeta
	var ids []int64
	for rows.Next() {
		var id int64
		var t catalog.TableMeta
		if err := rows.Scan(&id, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("failed to scan schema table: %w", err)
		}
		tables = append(tables, t)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema tables: %w", err)
	}

	for i, id := range ids {
		cols, err := s.listSchemaColumns(id)
		if err != nil {
			return nil, err
		}
		tables[i].Columns = cols
	}
	return tables, nil
}

func (s *SQLiteStore) listSchemaColumns(tableID int64) ([]catalog.ColumnMeta, error) {
	rows, err := s.db.Query("SELECT name, data_type, description FROM schema_columns WHERE table_id = ? ORDER BY id", tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema columns: %w", err)
	}
	defer rows.Close()

	var cols []catalog.ColumnMeta
	for rows.Next() {
		var c catalog.ColumnMeta
		if err := rows.Scan(&c.Name, &c.Type, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan schema column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func (s *SQLiteStore) ListKnowledge() ([]string, error) {
	rows, err := s.db.Query("SELECT content FROM knowledge_notes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge notes: %w", err)
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge note: %w", err)
		}
		notes = append(notes, content)
	}
	return notes, nil
}

// ReplaceCatalog swaps the stored catalogs for the given ones inside one
// transaction, so the server never reads a half-seeded state.
func (s *SQLiteStore) ReplaceCatalog(terms []catalog.TermEntry, tables []catalog.TableMeta, knowledge []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"term_dictionary", "schema_columns", "schema_tables", "knowledge_notes"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, e := range terms {
		if _, err := tx.Exec("INSERT INTO term_dictionary (pattern, replacement) VALUES (?, ?)", e.Pattern, e.Replacement); err != nil {
			return fmt.Errorf("failed to insert term %q: %w", e.Pattern, err)
		}
	}
	for _, t := range tables {
		res, err := tx.Exec("INSERT INTO schema_tables (name, description) VALUES (?, ?)", t.Name, t.Description)
		if err != nil {
			return fmt.Errorf("failed to insert table %q: %w", t.Name, err)
		}
		tableID, _ := res.LastInsertId()
		for _, c := range t.Columns {
			if _, err := tx.Exec("INSERT INTO schema_columns (table_id, name, data_type, description) VALUES (?, ?, ?, ?)", tableID, c.Name, c.Type, c.Description); err != nil {
				return fmt.Errorf("failed to insert column %s.%s: %w", t.Name, c.Name, err)
			}
		}
	}
	for _, note := range knowledge {
		if _, err := tx.Exec("INSERT INTO knowledge_notes (content) VALUES (?)", note); err != nil {
			return fmt.Errorf("failed to insert knowledge note: %w", err)
		}
	}

	return tx.Commit()
}

// LoadCatalog reads all three catalogs from the store.
func (s *SQLiteStore) LoadCatalog() (*catalog.Snapshot, error) {
	terms, err := s.ListTermEntries()
	if err != nil {
		return nil, err
	}
	tables, err := s.ListSchemaTables()
	if err != nil {
		return nil, err
	}
	knowledge, err := s.ListKnowledge()
	if err != nil {
		return nil, err
	}
	return catalog.New(terms, tables, knowledge), nil
}
