package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens the sqlite database and ensures the schema exists. The
// returned handle is passed explicitly to the stores and services that need
// it; there is no package-level connection.
func InitDB(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY between the ingestion transaction and read queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS budgets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		period TEXT NOT NULL,
		income TEXT NOT NULL,
		fixed_expenses TEXT NOT NULL,
		savings_goal TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id),
		UNIQUE(user_id, period)
	);

	CREATE TABLE IF NOT EXISTS upload_batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT NOT NULL UNIQUE,
		user_id INTEGER NOT NULL,
		filename TEXT NOT NULL,
		file_size_bytes INTEGER NOT NULL,
		uploaded_at TIMESTAMP NOT NULL,
		admitted_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		upload_batch_id INTEGER NOT NULL,
		transaction_date TEXT NOT NULL,
		posted_date TEXT,
		card_number TEXT,
		description TEXT NOT NULL,
		normalized_description TEXT NOT NULL,
		source_category TEXT,
		category TEXT NOT NULL,
		type TEXT NOT NULL,
		direction TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id),
		FOREIGN KEY(upload_batch_id) REFERENCES upload_batches(id)
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_date
		ON transactions(user_id, transaction_date);
	CREATE INDEX IF NOT EXISTS idx_upload_batches_user_filename
		ON upload_batches(user_id, filename);
	`

	if _, err := db.Exec(createTableStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}
