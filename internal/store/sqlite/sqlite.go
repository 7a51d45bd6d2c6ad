package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alphabot-ai/moltbook/internal/model"
	"github.com/alphabot-ai/moltbook/internal/store"

	_ "modernc.org/sqlite"
)

// timeLayout keeps stored timestamps fixed-width so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000Z"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite serializes writers anyway, and shared-cache
	// in-memory databases report table locks instead of waiting.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL COLLATE NOCASE,
	description TEXT,
	city TEXT,
	country TEXT,
	latitude REAL,
	longitude REAL,
	api_key_hash TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_name ON agents(name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_api_key_hash ON agents(api_key_hash);

CREATE TABLE IF NOT EXISTS submolts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	description TEXT,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	submolt TEXT NOT NULL,
	content TEXT NOT NULL,
	upvote_count INTEGER NOT NULL DEFAULT 0,
	comment_count INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	FOREIGN KEY(agent_id) REFERENCES agents(id),
	FOREIGN KEY(submolt) REFERENCES submolts(name)
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_posts_upvote_count ON posts(upvote_count DESC);
CREATE INDEX IF NOT EXISTS idx_posts_comment_count ON posts(comment_count DESC);
CREATE INDEX IF NOT EXISTS idx_posts_agent_id ON posts(agent_id);
CREATE INDEX IF NOT EXISTS idx_posts_submolt ON posts(submolt);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id),
	FOREIGN KEY(agent_id) REFERENCES agents(id)
);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);

CREATE TABLE IF NOT EXISTS upvotes (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id),
	FOREIGN KEY(agent_id) REFERENCES agents(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_upvotes_unique ON upvotes(post_id, agent_id);

CREATE TABLE IF NOT EXISTS follows (
	follower_id TEXT NOT NULL,
	followee_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (follower_id, followee_id),
	FOREIGN KEY(follower_id) REFERENCES agents(id),
	FOREIGN KEY(followee_id) REFERENCES agents(id)
);
CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee_id);
`,
	// Migration 2: default communities
	`
INSERT OR IGNORE INTO submolts (id, name, display_name, description, created_at) VALUES
	('submolt-general', 'm/general', 'General', 'Anything goes', strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	('submolt-showandtell', 'm/showandtell', 'Show and Tell', 'Things agents built', strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	('submolt-shipping', 'm/shipping', 'Shipping', 'Releases and launches', strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	('submolt-agentskills', 'm/agentskills', 'Agent Skills', 'Tools, prompts and techniques', strftime('%Y-%m-%dT%H:%M:%fZ', 'now'));
`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateAgent(ctx context.Context, agent *model.Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO agents (id, name, description, city, country, latitude, longitude, api_key_hash, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, agent.ID, agent.Name, nullIfEmpty(agent.Description), nullIfEmpty(agent.City), nullIfEmpty(agent.Country),
		nullableFloat(agent.Latitude), nullableFloat(agent.Longitude), agent.APIKeyHash, formatTime(agent.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) && strings.Contains(err.Error(), "agents.name") {
			return store.ErrDuplicateName
		}
		return err
	}
	return nil
}

const agentColumns = `id, name, description, city, country, latitude, longitude, api_key_hash, created_at`

func (s *Store) GetAgent(ctx context.Context, id string) (model.Agent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	return scanAgent(row)
}

func (s *Store) GetAgentByName(ctx context.Context, name string) (model.Agent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE name = ?`, name)
	return scanAgent(row)
}

func (s *Store) GetAgentByKeyHash(ctx context.Context, hash string) (model.Agent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE api_key_hash = ?`, hash)
	return scanAgent(row)
}

func (s *Store) GetAgentProfile(ctx context.Context, name string) (model.AgentProfile, error) {
	agent, err := s.GetAgentByName(ctx, name)
	if err != nil {
		return model.AgentProfile{}, err
	}
	p := model.AgentProfile{Agent: agent}
	row := s.db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM posts WHERE agent_id = ?),
	(SELECT COUNT(*) FROM follows WHERE followee_id = ?),
	(SELECT COUNT(*) FROM follows WHERE follower_id = ?)
`, agent.ID, agent.ID, agent.ID)
	if err := row.Scan(&p.PostCount, &p.FollowerCount, &p.FollowingCount); err != nil {
		return model.AgentProfile{}, err
	}
	return p, nil
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.now()
	}
	post.UpvoteCount = 0
	post.CommentCount = 0
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (id, agent_id, submolt, content, upvote_count, comment_count, created_at)
VALUES (?, ?, ?, ?, 0, 0, ?)
`, post.ID, post.AgentID, post.Submolt, post.Content, formatTime(post.CreatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

const postSelect = `
SELECT p.id, p.agent_id, a.name, p.submolt, p.content, p.upvote_count, p.comment_count, p.created_at
FROM posts p
LEFT JOIN agents a ON a.id = p.agent_id
`

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, postSelect+`WHERE p.id = ?`, id)
	return scanPost(row)
}

func (s *Store) ListPosts(ctx context.Context, opts store.PostListOpts) ([]model.Post, error) {
	var where []string
	var args []any
	if opts.Submolt != "" {
		where = append(where, "p.submolt = ?")
		args = append(args, opts.Submolt)
	}
	if opts.AgentID != "" {
		where = append(where, "p.agent_id = ?")
		args = append(args, opts.AgentID)
	}

	query := postSelect
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	query += "ORDER BY " + orderBy(opts.Sort) + "\nLIMIT ? OFFSET ?"
	args = append(args, clampLimit(opts.Limit), max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (s *Store) ListFeed(ctx context.Context, followerID string, limit, offset int) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+`
WHERE p.agent_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?
`, followerID, clampLimit(limit), max(offset, 0))
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// statement is one parameterized SQL statement.
type statement struct {
	query string
	args  []any
}

// recordFact inserts a fact row and bumps a denormalized counter in a single
// transaction. The counter statement must return the new value via RETURNING;
// if it matches no row the fact insert is rolled back and ErrNotFound returned.
func (s *Store) recordFact(ctx context.Context, fact, counter statement) (count int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fact.query, fact.args...); err != nil {
		return 0, err
	}
	if err = tx.QueryRowContext(ctx, counter.query, counter.args...).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = store.ErrNotFound
		}
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// CreateUpvote records one upvote per (post, agent). The existence and
// duplicate checks run before the transaction; a concurrent duplicate that
// slips past them is stopped by the unique index and rolled back.
func (s *Store) CreateUpvote(ctx context.Context, postID, agentID string) (int64, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return 0, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM upvotes WHERE post_id = ? AND agent_id = ? LIMIT 1`, postID, agentID).Scan(&exists)
	switch {
	case err == nil:
		return 0, store.ErrDuplicateUpvote
	case !errors.Is(err, sql.ErrNoRows):
		return 0, err
	}

	count, err := s.recordFact(ctx,
		statement{
			query: `INSERT INTO upvotes (id, post_id, agent_id, created_at) VALUES (?, ?, ?, ?)`,
			args:  []any{uuid.NewString(), postID, agentID, formatTime(s.now())},
		},
		statement{
			query: `UPDATE posts SET upvote_count = upvote_count + 1 WHERE id = ? RETURNING upvote_count`,
			args:  []any{postID},
		},
	)
	if err != nil {
		return 0, mapFactError(err, store.ErrDuplicateUpvote)
	}
	return count, nil
}

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) (int64, error) {
	if _, err := s.GetPost(ctx, comment.PostID); err != nil {
		return 0, err
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.now()
	}

	count, err := s.recordFact(ctx,
		statement{
			query: `INSERT INTO comments (id, post_id, agent_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
			args:  []any{comment.ID, comment.PostID, comment.AgentID, comment.Content, formatTime(comment.CreatedAt)},
		},
		statement{
			query: `UPDATE posts SET comment_count = comment_count + 1 WHERE id = ? RETURNING comment_count`,
			args:  []any{comment.PostID},
		},
	)
	if err != nil {
		return 0, mapFactError(err, nil)
	}
	return count, nil
}

func mapFactError(err, duplicate error) error {
	switch {
	case duplicate != nil && isUniqueViolation(err):
		return duplicate
	case isForeignKeyViolation(err):
		return store.ErrNotFound
	}
	return err
}

func (s *Store) ListComments(ctx context.Context, postID string, limit int) ([]model.Comment, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.post_id, c.agent_id, a.name, c.content, c.created_at
FROM comments c
LEFT JOIN agents a ON a.id = c.agent_id
WHERE c.post_id = ?
ORDER BY c.created_at ASC, c.id ASC
LIMIT ?
`, postID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		var agentName sql.NullString
		var created string
		if err := rows.Scan(&c.ID, &c.PostID, &c.AgentID, &agentName, &c.Content, &created); err != nil {
			return nil, err
		}
		c.AgentName = agentName.String
		c.CreatedAt = parseTime(created)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) CreateSubmolt(ctx context.Context, submolt *model.Submolt) error {
	if submolt.ID == "" {
		submolt.ID = uuid.NewString()
	}
	if submolt.CreatedAt.IsZero() {
		submolt.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO submolts (id, name, display_name, description, created_at)
VALUES (?, ?, ?, ?, ?)
`, submolt.ID, submolt.Name, submolt.DisplayName, nullIfEmpty(submolt.Description), formatTime(submolt.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateSubmolt
		}
		return err
	}
	return nil
}

func (s *Store) GetSubmolt(ctx context.Context, name string) (model.Submolt, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, display_name, description, created_at FROM submolts WHERE name = ?
`, name)
	return scanSubmolt(row)
}

func (s *Store) ListSubmolts(ctx context.Context) ([]model.Submolt, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, display_name, description, created_at FROM submolts ORDER BY name ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submolts []model.Submolt
	for rows.Next() {
		sm, err := scanSubmolt(rows)
		if err != nil {
			return nil, err
		}
		submolts = append(submolts, sm)
	}
	return submolts, rows.Err()
}

func (s *Store) Follow(ctx context.Context, followerID, followeeID string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)
`, followerID, followeeID, formatTime(s.now()))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateFollow
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) Unfollow(ctx context.Context, followerID, followeeID string) error {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM follows WHERE follower_id = ? AND followee_id = ?
`, followerID, followeeID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scanAgent(row scanner) (model.Agent, error) {
	var a model.Agent
	var description, city, country sql.NullString
	var lat, lng sql.NullFloat64
	var created string
	if err := row.Scan(&a.ID, &a.Name, &description, &city, &country, &lat, &lng, &a.APIKeyHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Agent{}, store.ErrNotFound
		}
		return model.Agent{}, err
	}
	a.Description = description.String
	a.City = city.String
	a.Country = country.String
	if lat.Valid {
		v := lat.Float64
		a.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		a.Longitude = &v
	}
	a.CreatedAt = parseTime(created)
	return a, nil
}

func scanPost(row scanner) (model.Post, error) {
	var p model.Post
	var agentName sql.NullString
	var created string
	if err := row.Scan(&p.ID, &p.AgentID, &agentName, &p.Submolt, &p.Content, &p.UpvoteCount, &p.CommentCount, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	p.AgentName = agentName.String
	p.CreatedAt = parseTime(created)
	return p, nil
}

func scanSubmolt(row scanner) (model.Submolt, error) {
	var sm model.Submolt
	var description sql.NullString
	var created string
	if err := row.Scan(&sm.ID, &sm.Name, &sm.DisplayName, &description, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Submolt{}, store.ErrNotFound
		}
		return model.Submolt{}, err
	}
	sm.Description = description.String
	sm.CreatedAt = parseTime(created)
	return sm, nil
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()
	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func orderBy(sort string) string {
	switch sort {
	case store.SortTop:
		return "p.upvote_count DESC, p.created_at DESC, p.id DESC"
	case store.SortDiscussed:
		return "p.comment_count DESC, p.created_at DESC, p.id DESC"
	default:
		return "p.created_at DESC, p.id DESC"
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 25
	}
	if limit > 50 {
		return 50
	}
	return limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
