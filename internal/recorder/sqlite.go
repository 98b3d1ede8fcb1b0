package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"BARTHub/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder mirrors trial records into a SQLite database so that many
// sessions can be queried together.
type SQLiteRecorder struct {
	db        *sql.DB
	mu        sync.Mutex
	sessionID string
}

// NewSQLiteRecorder opens (or creates) the database, runs migrations and
// registers the session row.
func NewSQLiteRecorder(dbPath string, meta model.SessionMeta) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	// Each insert must be on disk before RecordTrial returns.
	if _, err := db.Exec("PRAGMA synchronous=FULL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set synchronous: %w", err)
	}

	r := &SQLiteRecorder{db: db, sessionID: meta.ID.String()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := r.insertSession(meta); err != nil {
		db.Close()
		return nil, fmt.Errorf("register session: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s (session %s)", dbPath, r.sessionID)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			variant     TEXT NOT NULL,
			subject_id  TEXT,
			age         TEXT,
			sex         TEXT,
			session     TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS trials (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id      TEXT NOT NULL REFERENCES sessions(id),
			recorded_at     INTEGER NOT NULL,
			balloon_num     INTEGER NOT NULL,
			block_num       INTEGER NOT NULL,
			num_pumps       INTEGER NOT NULL,
			exploded        INTEGER NOT NULL,
			money_earned    INTEGER NOT NULL,
			reaction_time   REAL,
			balloon_color   TEXT,
			explosion_point INTEGER,
			max_pop         INTEGER NOT NULL,
			cents_per_pump  INTEGER NOT NULL,
			UNIQUE(session_id, balloon_num)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trials_session ON trials(session_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) insertSession(meta model.SessionMeta) error {
	_, err := r.db.Exec(`INSERT INTO sessions
		(id, started_at, variant, subject_id, age, sex, session)
		VALUES (?,?,?,?,?,?,?)`,
		r.sessionID, meta.StartedAt.Unix(), string(meta.Variant),
		meta.Subject.ID, meta.Subject.Age, meta.Subject.Sex, meta.Subject.Session,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrial(rec *model.TrialRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reaction, explosionPoint any
	if rec.ReactionTime != nil {
		reaction = *rec.ReactionTime
	}
	if rec.Exploded {
		explosionPoint = rec.ExplosionPoint
	}
	exploded := 0
	if rec.Exploded {
		exploded = 1
	}

	_, err := r.db.Exec(`INSERT INTO trials
		(session_id, recorded_at, balloon_num, block_num, num_pumps, exploded,
		 money_earned, reaction_time, balloon_color, explosion_point, max_pop, cents_per_pump)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.sessionID, time.Now().Unix(), rec.BalloonIndex, rec.BlockIndex, rec.PumpCount, exploded,
		rec.AmountEarned, reaction, string(rec.Color), explosionPoint, rec.MaxPumpCount, rec.UnitPayout,
	)
	if err != nil {
		return fmt.Errorf("insert trial %d: %w", rec.BalloonIndex, err)
	}
	return nil
}

// CountTrials returns how many trials were stored for this session.
func (r *SQLiteRecorder) CountTrials() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM trials WHERE session_id = ?`, r.sessionID).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
