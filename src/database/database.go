package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/wheelfolio/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database schema", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database schema for:", databasePath)
	}

	if err := EnsureSchema(DB); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	migrateTradesTable()

	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// EnsureSchema creates the campaign and trade tables if they do not exist.
// Monetary columns are TEXT: decimals are persisted in their exact string
// form so the pipeline never passes through a binary float.
func EnsureSchema(db *sql.DB) error {
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		symbol TEXT NOT NULL,
		target_exit_price TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS option_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		campaign TEXT NOT NULL,
		symbol TEXT NOT NULL,
		action TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price TEXT NOT NULL,
		strike TEXT NOT NULL,
		delta TEXT,
		trade_date TEXT NOT NULL,
		expiration_date TEXT NOT NULL,
		FOREIGN KEY(campaign) REFERENCES campaigns(name)
	);
	`
	_, err := db.Exec(createTableStatement)
	return err
}

func migrateTradesTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='option_trades'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'option_trades' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'option_trades' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(option_trades)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'option_trades'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'option_trades': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'option_trades'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'option_trades': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'option_trades'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'option_trades': %v", err)
		}
		return
	}

	// Early databases predate delta capture.
	if _, ok := columnExists["delta"]; !ok {
		_, err := DB.Exec("ALTER TABLE option_trades ADD COLUMN delta TEXT")
		if err != nil {
			logger.L.Error("Error adding 'delta' column to 'option_trades' table", "error", err)
		} else {
			logger.L.Info("Added 'delta' column to 'option_trades' table")
		}
	}
}
