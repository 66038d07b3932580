// Package store persists compiled corpora as sqlite snapshots so a lookup
// service can start without re-parsing the source document.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/morrowland-code/morrowland77777/internal/corpus"
)

var ErrNoBuilds = errors.New("no compiled builds in store")

// BuildMeta describes where a build came from.
type BuildMeta struct {
	Document       string
	OverrideSource string
}

type Build struct {
	ID             string    `json:"id"`
	Document       string    `json:"document,omitempty"`
	OverrideSource string    `json:"override_source,omitempty"`
	CompiledAt     time.Time `json:"compiled_at"`
	Entries        int       `json:"entries"`
}

type SnapshotStore struct {
	db *sql.DB
	mu sync.RWMutex
}

func New(dbPath string) (*SnapshotStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them; cascading
	// deletes depend on foreign_keys being on.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	store := &SnapshotStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SnapshotStore) initSchema() error {
	lines := strings.Split(GetSchema(), "\n")
	var cleanLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
			cleanLines = append(cleanLines, line)
		}
	}

	if _, err := s.db.Exec(strings.Join(cleanLines, "\n")); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	_, _ = s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, GetSchemaVersion())
	return nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save writes one compiled corpus in a single transaction. Saving the same
// build twice replaces the earlier copy.
func (s *SnapshotStore) Save(ctx context.Context, c *corpus.Corpus, meta BuildMeta) error {
	if c == nil {
		return errors.New("save: nil corpus")
	}
	snap := c.Snapshot()

	stats, err := json.Marshal(snap.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM builds WHERE id = ?`, snap.BuildID); err != nil {
		return fmt.Errorf("clear build: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (id, document, override_source, compiled_at, placeholder_name, placeholder_text, stats)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.BuildID, meta.Document, meta.OverrideSource, snap.CompiledAt.UTC(),
		snap.Placeholders.Name, snap.Placeholders.Text, string(stats))
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}

	if err := insertArchetypes(ctx, tx, snap); err != nil {
		return err
	}

	for i, p := range snap.NameToText {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO named_texts (build_id, position, name, detailed_text) VALUES (?, ?, ?, ?)
		`, snap.BuildID, i, p.Key, p.Value); err != nil {
			return fmt.Errorf("insert named text %q: %w", p.Key, err)
		}
	}

	for i, code := range snap.Rejected {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rejected_codes (build_id, position, code) VALUES (?, ?, ?)
		`, snap.BuildID, i, code); err != nil {
			return fmt.Errorf("insert rejected code: %w", err)
		}
	}

	for _, sl := range snap.Suspicious {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO suspicious_lines (build_id, line, text) VALUES (?, ?, ?)
		`, snap.BuildID, sl.Line, sl.Text); err != nil {
			return fmt.Errorf("insert suspicious line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit build: %w", err)
	}
	return nil
}

// insertArchetypes joins the code tables into one row per code. Codes are
// ordered by their first appearance in the name table, then the text table.
func insertArchetypes(ctx context.Context, tx *sql.Tx, snap corpus.Snapshot) error {
	type row struct {
		name, text sql.NullString
	}
	rows := make(map[string]*row)
	var order []string
	get := func(code string) *row {
		r, ok := rows[code]
		if !ok {
			r = &row{}
			rows[code] = r
			order = append(order, code)
		}
		return r
	}
	for _, p := range snap.CodeToName {
		get(p.Key).name = sql.NullString{String: p.Value, Valid: true}
	}
	for _, p := range snap.CodeToText {
		get(p.Key).text = sql.NullString{String: p.Value, Valid: true}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO archetypes (build_id, position, code, name, detailed_text) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare archetypes: %w", err)
	}
	defer stmt.Close()

	for i, code := range order {
		r := rows[code]
		if _, err := stmt.ExecContext(ctx, snap.BuildID, i, code, r.name, r.text); err != nil {
			return fmt.Errorf("insert archetype %s: %w", code, err)
		}
	}
	return nil
}

// LoadLatest rebuilds the most recently compiled corpus.
func (s *SnapshotStore) LoadLatest(ctx context.Context) (*corpus.Corpus, error) {
	s.mu.RLock()
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM builds ORDER BY compiled_at DESC, saved_at DESC LIMIT 1
	`).Scan(&id)
	s.mu.RUnlock()

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoBuilds
	}
	if err != nil {
		return nil, fmt.Errorf("find latest build: %w", err)
	}
	return s.Load(ctx, id)
}

// Load rebuilds the corpus saved under buildID.
func (s *SnapshotStore) Load(ctx context.Context, buildID string) (*corpus.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := corpus.Snapshot{BuildID: buildID}
	var stats string
	err := s.db.QueryRowContext(ctx, `
		SELECT compiled_at, placeholder_name, placeholder_text, stats FROM builds WHERE id = ?
	`, buildID).Scan(&snap.CompiledAt, &snap.Placeholders.Name, &snap.Placeholders.Text, &stats)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build %s: %w", buildID, ErrNoBuilds)
	}
	if err != nil {
		return nil, fmt.Errorf("get build: %w", err)
	}
	if err := json.Unmarshal([]byte(stats), &snap.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, detailed_text FROM archetypes WHERE build_id = ? ORDER BY position
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query archetypes: %w", err)
	}
	for rows.Next() {
		var code string
		var name, text sql.NullString
		if err := rows.Scan(&code, &name, &text); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan archetype: %w", err)
		}
		if name.Valid {
			snap.CodeToName = append(snap.CodeToName, corpus.Pair{Key: code, Value: name.String})
		}
		if text.Valid {
			snap.CodeToText = append(snap.CodeToText, corpus.Pair{Key: code, Value: text.String})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read archetypes: %w", err)
	}

	snap.NameToText, err = s.queryPairs(ctx, `
		SELECT name, detailed_text FROM named_texts WHERE build_id = ? ORDER BY position
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query named texts: %w", err)
	}

	snap.Rejected, err = s.queryStrings(ctx, `
		SELECT code FROM rejected_codes WHERE build_id = ? ORDER BY position
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query rejected codes: %w", err)
	}

	snap.Suspicious, err = s.querySuspicious(ctx, buildID)
	if err != nil {
		return nil, err
	}

	return corpus.Restore(snap), nil
}

func (s *SnapshotStore) queryPairs(ctx context.Context, query string, args ...any) ([]corpus.Pair, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []corpus.Pair
	for rows.Next() {
		var p corpus.Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SnapshotStore) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SnapshotStore) querySuspicious(ctx context.Context, buildID string) ([]corpus.Suspicious, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT line, text FROM suspicious_lines WHERE build_id = ? ORDER BY line
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query suspicious lines: %w", err)
	}
	defer rows.Close()

	var out []corpus.Suspicious
	for rows.Next() {
		var sl corpus.Suspicious
		if err := rows.Scan(&sl.Line, &sl.Text); err != nil {
			return nil, fmt.Errorf("scan suspicious line: %w", err)
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

// Builds lists saved builds, newest first.
func (s *SnapshotStore) Builds(ctx context.Context) ([]Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, COALESCE(b.document, ''), COALESCE(b.override_source, ''), b.compiled_at,
			(SELECT COUNT(*) FROM archetypes a WHERE a.build_id = b.id)
		FROM builds b
		ORDER BY b.compiled_at DESC, b.saved_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.ID, &b.Document, &b.OverrideSource, &b.CompiledAt, &b.Entries); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// Prune deletes all but the newest keep builds.
func (s *SnapshotStore) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM builds WHERE id NOT IN (
			SELECT id FROM builds ORDER BY compiled_at DESC, saved_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune builds: %w", err)
	}
	return result.RowsAffected()
}
