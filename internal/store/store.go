package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"

	"leadscout/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a query matches no record.
var ErrNotFound = errors.New("record not found")

// Store persists subreddits, posts, comments and leads in Postgres.
type Store struct {
	db *sql.DB
}

// New wires a sql.DB implementation.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// GetOrCreateSubreddit returns the subreddit with the given name,
// creating it on first reference. The upsert form guarantees a row is
// returned in both cases.
func (s *Store) GetOrCreateSubreddit(ctx context.Context, name string) (*model.Subreddit, error) {
	query := `
		INSERT INTO subreddits (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`
	var sub model.Subreddit
	err := s.db.QueryRowContext(ctx, query, name).Scan(&sub.ID, &sub.Name, &sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or create subreddit %q: %w", name, err)
	}
	return &sub, nil
}

// SubredditsByNames resolves a set of subreddit names to records.
// Unknown names are silently absent from the result.
func (s *Store) SubredditsByNames(ctx context.Context, names []string) ([]model.Subreddit, error) {
	query := `SELECT id, name, created_at FROM subreddits WHERE name = ANY($1) ORDER BY name`
	return s.querySubreddits(ctx, query, pq.StringArray(names))
}

// ListSubreddits returns all subreddits, or only those with the given
// ids when the slice is non-empty.
func (s *Store) ListSubreddits(ctx context.Context, ids []string) ([]model.Subreddit, error) {
	if len(ids) == 0 {
		return s.querySubreddits(ctx, `SELECT id, name, created_at FROM subreddits ORDER BY name`)
	}
	query := `SELECT id, name, created_at FROM subreddits WHERE id = ANY($1) ORDER BY name`
	return s.querySubreddits(ctx, query, pq.StringArray(ids))
}

func (s *Store) querySubreddits(ctx context.Context, query string, args ...interface{}) ([]model.Subreddit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subreddits: %w", err)
	}
	defer rows.Close()

	var subs []model.Subreddit
	for rows.Next() {
		var sub model.Subreddit
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subreddit: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// UpsertPost inserts the post or, when the reddit id is already known,
// refreshes its mutable fields (title, content, score, comment count).
// The original created_at, author, url and classification state are
// preserved on update. Returns the internal id.
func (s *Store) UpsertPost(ctx context.Context, p *model.Post) (string, error) {
	query := `
		INSERT INTO posts (reddit_id, title, content, author, url, score, num_comments, created_at, subreddit_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (reddit_id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			score = EXCLUDED.score,
			num_comments = EXCLUDED.num_comments
		RETURNING id
	`
	var id string
	err := s.db.QueryRowContext(ctx, query,
		p.RedditID, p.Title, p.Content, p.Author, p.URL, p.Score, p.NumComments, p.CreatedAt, p.SubredditID,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert post %s: %w", p.RedditID, err)
	}
	p.ID = id
	return id, nil
}

// UpsertComment inserts the comment or refreshes content and score for
// a known reddit id. Returns the internal id.
func (s *Store) UpsertComment(ctx context.Context, c *model.Comment) (string, error) {
	query := `
		INSERT INTO comments (reddit_id, content, author, score, created_at, post_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (reddit_id) DO UPDATE SET
			content = EXCLUDED.content,
			score = EXCLUDED.score
		RETURNING id
	`
	var id string
	err := s.db.QueryRowContext(ctx, query,
		c.RedditID, c.Content, c.Author, c.Score, c.CreatedAt, c.PostID,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert comment %s: %w", c.RedditID, err)
	}
	c.ID = id
	return id, nil
}

// UnclassifiedPosts returns posts that have not yet been marked as
// leads, optionally scoped to a set of subreddits.
func (s *Store) UnclassifiedPosts(ctx context.Context, filter model.ItemFilter) ([]model.Post, error) {
	query := `
		SELECT id, reddit_id, title, content, author, url, score, num_comments, created_at, subreddit_id, is_lead, lead_score
		FROM posts
		WHERE is_lead = FALSE
	`
	var args []interface{}
	if len(filter.SourceIDs) > 0 {
		query += ` AND subreddit_id = ANY($1)`
		args = append(args, pq.StringArray(filter.SourceIDs))
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unclassified posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// UnclassifiedComments returns comments that have not yet been marked
// as leads, optionally scoped to a set of parent posts.
func (s *Store) UnclassifiedComments(ctx context.Context, filter model.ItemFilter) ([]model.Comment, error) {
	query := `
		SELECT id, reddit_id, content, author, score, created_at, post_id, is_lead, lead_score
		FROM comments
		WHERE is_lead = FALSE
	`
	var args []interface{}
	if len(filter.ParentIDs) > 0 {
		query += ` AND post_id = ANY($1)`
		args = append(args, pq.StringArray(filter.ParentIDs))
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unclassified comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// PostIDsBySources returns the internal ids of all posts belonging to
// the given subreddits.
func (s *Store) PostIDsBySources(ctx context.Context, sourceIDs []string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM posts WHERE subreddit_id = ANY($1)`, pq.StringArray(sourceIDs))
	if err != nil {
		return nil, fmt.Errorf("query post ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan post id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkPostClassified records a classification verdict on a post.
func (s *Store) MarkPostClassified(ctx context.Context, id string, isLead bool, score float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET is_lead = $2, lead_score = $3 WHERE id = $1`, id, isLead, score)
	if err != nil {
		return fmt.Errorf("mark post classified: %w", err)
	}
	return checkAffected(res)
}

// MarkCommentClassified records a classification verdict on a comment.
func (s *Store) MarkCommentClassified(ctx context.Context, id string, isLead bool, score float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE comments SET is_lead = $2, lead_score = $3 WHERE id = $1`, id, isLead, score)
	if err != nil {
		return fmt.Errorf("mark comment classified: %w", err)
	}
	return checkAffected(res)
}

// InsertLead stores a positive verdict. The lead must reference exactly
// one item: a post or a comment.
func (s *Store) InsertLead(ctx context.Context, lead *model.Lead) error {
	if (lead.PostID == nil) == (lead.CommentID == nil) {
		return fmt.Errorf("lead must reference exactly one of post or comment")
	}
	query := `
		INSERT INTO leads (type, confidence, reason, post_id, comment_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		string(lead.Type), lead.Confidence, lead.Reason, lead.PostID, lead.CommentID,
	).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// ListLeads returns leads with their referenced item and subreddit,
// ordered by confidence descending then creation time descending.
// When sourceIDs is non-empty, only leads from those subreddits are
// returned.
func (s *Store) ListLeads(ctx context.Context, sourceIDs []string) ([]model.Lead, error) {
	postLeads, err := s.queryPostLeads(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}
	commentLeads, err := s.queryCommentLeads(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}

	leads := append(postLeads, commentLeads...)
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].Confidence != leads[j].Confidence {
			return leads[i].Confidence > leads[j].Confidence
		}
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	return leads, nil
}

func (s *Store) queryPostLeads(ctx context.Context, sourceIDs []string) ([]model.Lead, error) {
	query := `
		SELECT l.id, l.type, l.confidence, l.reason, l.created_at, l.post_id,
		       p.id, p.reddit_id, p.title, p.content, p.author, p.url, p.score, p.num_comments,
		       p.created_at, p.subreddit_id, s.name, p.is_lead, p.lead_score
		FROM leads l
		JOIN posts p ON p.id = l.post_id
		JOIN subreddits s ON s.id = p.subreddit_id
		WHERE l.post_id IS NOT NULL
	`
	var args []interface{}
	if len(sourceIDs) > 0 {
		query += ` AND p.subreddit_id = ANY($1)`
		args = append(args, pq.StringArray(sourceIDs))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query post leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var lead model.Lead
		var post model.Post
		var score sql.NullFloat64
		err := rows.Scan(
			&lead.ID, &lead.Type, &lead.Confidence, &lead.Reason, &lead.CreatedAt, &lead.PostID,
			&post.ID, &post.RedditID, &post.Title, &post.Content, &post.Author, &post.URL,
			&post.Score, &post.NumComments, &post.CreatedAt, &post.SubredditID, &post.Subreddit,
			&post.IsLead, &score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post lead: %w", err)
		}
		if score.Valid {
			post.LeadScore = &score.Float64
		}
		lead.Post = &post
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (s *Store) queryCommentLeads(ctx context.Context, sourceIDs []string) ([]model.Lead, error) {
	query := `
		SELECT l.id, l.type, l.confidence, l.reason, l.created_at, l.comment_id,
		       c.id, c.reddit_id, c.content, c.author, c.score, c.created_at, c.post_id,
		       c.is_lead, c.lead_score
		FROM leads l
		JOIN comments c ON c.id = l.comment_id
		JOIN posts p ON p.id = c.post_id
		WHERE l.comment_id IS NOT NULL
	`
	var args []interface{}
	if len(sourceIDs) > 0 {
		query += ` AND p.subreddit_id = ANY($1)`
		args = append(args, pq.StringArray(sourceIDs))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comment leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var lead model.Lead
		var comment model.Comment
		var score sql.NullFloat64
		err := rows.Scan(
			&lead.ID, &lead.Type, &lead.Confidence, &lead.Reason, &lead.CreatedAt, &lead.CommentID,
			&comment.ID, &comment.RedditID, &comment.Content, &comment.Author, &comment.Score,
			&comment.CreatedAt, &comment.PostID, &comment.IsLead, &score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment lead: %w", err)
		}
		if score.Valid {
			comment.LeadScore = &score.Float64
		}
		lead.Comment = &comment
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// SourceStats computes fresh per-subreddit lead statistics. Subreddits
// with no items report zero totals and a zero coefficient.
func (s *Store) SourceStats(ctx context.Context, sourceIDs []string) ([]model.SourceStats, error) {
	postQuery := `
		SELECT s.id, s.name, COUNT(p.id), COUNT(p.id) FILTER (WHERE p.is_lead)
		FROM subreddits s
		LEFT JOIN posts p ON p.subreddit_id = s.id
	`
	commentQuery := `
		SELECT s.id, COUNT(c.id), COUNT(c.id) FILTER (WHERE c.is_lead)
		FROM subreddits s
		LEFT JOIN posts p ON p.subreddit_id = s.id
		LEFT JOIN comments c ON c.post_id = p.id
	`
	var args []interface{}
	if len(sourceIDs) > 0 {
		postQuery += ` WHERE s.id = ANY($1)`
		commentQuery += ` WHERE s.id = ANY($1)`
		args = append(args, pq.StringArray(sourceIDs))
	}
	postQuery += ` GROUP BY s.id, s.name ORDER BY s.name`
	commentQuery += ` GROUP BY s.id`

	stats := make([]model.SourceStats, 0)
	index := make(map[string]int)

	rows, err := s.db.QueryContext(ctx, postQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query post stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		var total, leads int
		if err := rows.Scan(&id, &name, &total, &leads); err != nil {
			return nil, fmt.Errorf("scan post stats: %w", err)
		}
		index[id] = len(stats)
		stats = append(stats, model.SourceStats{
			Subreddit: name,
			Posts:     statBlock(total, leads),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.db.QueryContext(ctx, commentQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query comment stats: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var id string
		var total, leads int
		if err := crows.Scan(&id, &total, &leads); err != nil {
			return nil, fmt.Errorf("scan comment stats: %w", err)
		}
		if i, ok := index[id]; ok {
			stats[i].Comments = statBlock(total, leads)
		}
	}
	return stats, crows.Err()
}

func statBlock(total, leads int) model.StatBlock {
	block := model.StatBlock{Total: total, Leads: leads}
	if total > 0 {
		block.Coefficient = float64(leads) / float64(total)
	}
	return block
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPost(rows *sql.Rows) (model.Post, error) {
	var p model.Post
	var score sql.NullFloat64
	err := rows.Scan(
		&p.ID, &p.RedditID, &p.Title, &p.Content, &p.Author, &p.URL,
		&p.Score, &p.NumComments, &p.CreatedAt, &p.SubredditID, &p.IsLead, &score,
	)
	if err != nil {
		return model.Post{}, fmt.Errorf("scan post: %w", err)
	}
	if score.Valid {
		p.LeadScore = &score.Float64
	}
	return p, nil
}

func scanComment(rows *sql.Rows) (model.Comment, error) {
	var c model.Comment
	var score sql.NullFloat64
	err := rows.Scan(
		&c.ID, &c.RedditID, &c.Content, &c.Author, &c.Score,
		&c.CreatedAt, &c.PostID, &c.IsLead, &score,
	)
	if err != nil {
		return model.Comment{}, fmt.Errorf("scan comment: %w", err)
	}
	if score.Valid {
		c.LeadScore = &score.Float64
	}
	return c, nil
}
