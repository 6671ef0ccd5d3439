package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// EventRow represents a playground event stored in Postgres.
type EventRow struct {
	EventID      int64                  `json:"event_id"`
	Timestamp    time.Time              `json:"ts"`
	Level        string                 `json:"level"`
	Event        string                 `json:"event"`
	Message      *string                `json:"msg,omitempty"`
	Fields       map[string]interface{} `json:"fields,omitempty"`
	PlaygroundID string                 `json:"playground_id"`
	SessionID    *string                `json:"session_id,omitempty"`
}

// RewardRow is one entry of the coins ledger.
type RewardRow struct {
	RewardID  int64     `json:"reward_id"`
	Timestamp time.Time `json:"ts"`
	Source    string    `json:"source"`
	Coins     int       `json:"coins"`
}

// Client manages the Postgres connection for the event log and the
// coins ledger of one playground.
type Client struct {
	db           *sql.DB
	playgroundID string
}

// ConnString builds a lib/pq connection string from PG* environment
// variables.
func ConnString() string {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "scratchy")
	dbname := getEnv("PGDATABASE", "scratchy")
	password := os.Getenv("PGPASSWORD")

	if password != "" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)
}

// New connects using environment variables and creates the tables.
// Callers treat an error as "run without persistence".
func New(playgroundID string) (*Client, error) {
	db, err := sql.Open("postgres", ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{
		db:           db,
		playgroundID: playgroundID,
	}

	if err := client.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return client, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (c *Client) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS playground_events (
			event_id      BIGSERIAL PRIMARY KEY,
			ts            TIMESTAMPTZ NOT NULL,
			level         TEXT NOT NULL,
			event         TEXT NOT NULL,
			msg           TEXT,
			fields        JSONB,
			playground_id TEXT NOT NULL,
			session_id    TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_playground_events_ts ON playground_events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_playground_events_pg ON playground_events(playground_id);

		CREATE TABLE IF NOT EXISTS rewards (
			reward_id     BIGSERIAL PRIMARY KEY,
			ts            TIMESTAMPTZ NOT NULL,
			playground_id TEXT NOT NULL,
			source        TEXT NOT NULL,
			coins         INTEGER NOT NULL CHECK (coins >= 0)
		);
		CREATE INDEX IF NOT EXISTS idx_rewards_pg ON rewards(playground_id);
	`
	_, err := c.db.Exec(query)
	return err
}

// Append inserts an event. It satisfies events.Sink.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON []byte
	var err error
	if fields != nil {
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}

	var msgPtr *string
	if msg != "" {
		msgPtr = &msg
	}

	var sessionPtr *string
	if sessionID != "" {
		sessionPtr = &sessionID
	}

	query := `
		INSERT INTO playground_events (ts, level, event, msg, fields, playground_id, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = c.db.Exec(query, ts, level, event, msgPtr, fieldsJSON, c.playgroundID, sessionPtr)
	return err
}

// Query returns the last N events, newest first.
func (c *Client) Query(limit int) ([]EventRow, error) {
	limit = clampLimit(limit)

	query := `
		SELECT event_id, ts, level, event, msg, fields, playground_id, session_id
		FROM playground_events
		WHERE playground_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := c.db.Query(query, c.playgroundID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		var fieldsJSON []byte
		var msg, sessionID sql.NullString

		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.PlaygroundID, &sessionID); err != nil {
			return nil, err
		}

		if msg.Valid {
			e.Message = &msg.String
		}
		if sessionID.Valid {
			e.SessionID = &sessionID.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// AppendReward records coins granted by source (a puzzle id or "run").
func (c *Client) AppendReward(ts time.Time, source string, coins int) error {
	if coins < 0 {
		return fmt.Errorf("negative reward %d", coins)
	}
	_, err := c.db.Exec(
		`INSERT INTO rewards (ts, playground_id, source, coins) VALUES ($1, $2, $3, $4)`,
		ts, c.playgroundID, source, coins,
	)
	return err
}

// Rewards returns the last N ledger entries, newest first.
func (c *Client) Rewards(limit int) ([]RewardRow, error) {
	rows, err := c.db.Query(`
		SELECT reward_id, ts, source, coins
		FROM rewards
		WHERE playground_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`, c.playgroundID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RewardRow
	for rows.Next() {
		var r RewardRow
		if err := rows.Scan(&r.RewardID, &r.Timestamp, &r.Source, &r.Coins); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllRewards returns every ledger entry whose source is not exclude,
// oldest first. Progress restore replays it, so it is not capped.
func (c *Client) AllRewards(exclude string) ([]RewardRow, error) {
	rows, err := c.db.Query(`
		SELECT reward_id, ts, source, coins
		FROM rewards
		WHERE playground_id = $1 AND source <> $2
		ORDER BY ts ASC, reward_id ASC
	`, c.playgroundID, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RewardRow
	for rows.Next() {
		var r RewardRow
		if err := rows.Scan(&r.RewardID, &r.Timestamp, &r.Source, &r.Coins); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TotalCoins sums the ledger.
func (c *Client) TotalCoins() (int, error) {
	var total sql.NullInt64
	err := c.db.QueryRow(
		`SELECT SUM(coins) FROM rewards WHERE playground_id = $1`, c.playgroundID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 10000 {
		return 10000
	}
	return limit
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
