package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"leadscout/internal/model"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	return New(db), mock, func() { _ = db.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestStore_GetOrCreateSubreddit(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO subreddits \(name\) VALUES \(\$1\)`).
		WithArgs("golang").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow("sub-1", "golang", created))

	sub, err := s.GetOrCreateSubreddit(context.Background(), "golang")
	if err != nil {
		t.Fatalf("GetOrCreateSubreddit failed: %v", err)
	}
	if sub.ID != "sub-1" || sub.Name != "golang" {
		t.Errorf("Unexpected subreddit: %+v", sub)
	}
	expectationsMet(t, mock)
}

func TestStore_UpsertPost(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	post := &model.Post{
		RedditID:    "abc1",
		Title:       "Need a developer",
		Content:     "Budget is 5k",
		Author:      "alice",
		URL:         "https://reddit.com/r/golang/comments/abc1/",
		Score:       42,
		NumComments: 7,
		CreatedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		SubredditID: "sub-1",
	}

	mock.ExpectQuery(`INSERT INTO posts .+ ON CONFLICT \(reddit_id\) DO UPDATE`).
		WithArgs(post.RedditID, post.Title, post.Content, post.Author, post.URL,
			post.Score, post.NumComments, post.CreatedAt, post.SubredditID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("post-1"))

	id, err := s.UpsertPost(context.Background(), post)
	if err != nil {
		t.Fatalf("UpsertPost failed: %v", err)
	}
	if id != "post-1" || post.ID != "post-1" {
		t.Errorf("Expected id post-1 on result and entity, got %q / %q", id, post.ID)
	}
	expectationsMet(t, mock)
}

func TestStore_UpsertComment(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	comment := &model.Comment{
		RedditID:  "c1",
		Content:   "still hiring?",
		Author:    "carol",
		Score:     3,
		CreatedAt: time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC),
		PostID:    "post-1",
	}

	mock.ExpectQuery(`INSERT INTO comments .+ ON CONFLICT \(reddit_id\) DO UPDATE`).
		WithArgs(comment.RedditID, comment.Content, comment.Author,
			comment.Score, comment.CreatedAt, comment.PostID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("comment-1"))

	if _, err := s.UpsertComment(context.Background(), comment); err != nil {
		t.Fatalf("UpsertComment failed: %v", err)
	}
	if comment.ID != "comment-1" {
		t.Errorf("Expected entity id comment-1, got %q", comment.ID)
	}
	expectationsMet(t, mock)
}

func TestStore_UnclassifiedPosts_Scoped(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM posts\s+WHERE is_lead = FALSE\s+AND subreddit_id = ANY\(\$1\)`).
		WithArgs(pq.StringArray{"sub-1"}).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "reddit_id", "title", "content", "author", "url",
			"score", "num_comments", "created_at", "subreddit_id", "is_lead", "lead_score",
		}).AddRow("post-1", "abc1", "t", "c", "alice", "u", 1, 0, created, "sub-1", false, nil))

	posts, err := s.UnclassifiedPosts(context.Background(), model.ItemFilter{SourceIDs: []string{"sub-1"}})
	if err != nil {
		t.Fatalf("UnclassifiedPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "post-1" {
		t.Fatalf("Unexpected posts: %+v", posts)
	}
	if posts[0].LeadScore != nil {
		t.Error("Expected nil lead score for unclassified post")
	}
	expectationsMet(t, mock)
}

func TestStore_UnclassifiedComments_Unscoped(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	created := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM comments\s+WHERE is_lead = FALSE\s+ORDER BY created_at`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "reddit_id", "content", "author", "score", "created_at", "post_id", "is_lead", "lead_score",
		}).AddRow("comment-1", "c1", "text", "carol", 3, created, "post-1", false, nil))

	comments, err := s.UnclassifiedComments(context.Background(), model.ItemFilter{})
	if err != nil {
		t.Fatalf("UnclassifiedComments failed: %v", err)
	}
	if len(comments) != 1 || comments[0].PostID != "post-1" {
		t.Fatalf("Unexpected comments: %+v", comments)
	}
	expectationsMet(t, mock)
}

func TestStore_MarkPostClassified_NotFound(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	mock.ExpectExec(`UPDATE posts SET is_lead = \$2, lead_score = \$3`).
		WithArgs("missing", true, 0.9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.MarkPostClassified(context.Background(), "missing", true, 0.9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestStore_MarkCommentClassified(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	mock.ExpectExec(`UPDATE comments SET is_lead = \$2, lead_score = \$3`).
		WithArgs("comment-1", false, 0.3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.MarkCommentClassified(context.Background(), "comment-1", false, 0.3); err != nil {
		t.Fatalf("MarkCommentClassified failed: %v", err)
	}
	expectationsMet(t, mock)
}

func TestStore_InsertLead_RequiresExactlyOneReference(t *testing.T) {
	s, _, closeDB := newMock(t)
	defer closeDB()

	postID := "post-1"
	commentID := "comment-1"
	cases := []model.Lead{
		{Type: model.LeadTypePost},
		{Type: model.LeadTypePost, PostID: &postID, CommentID: &commentID},
	}
	for _, lead := range cases {
		if err := s.InsertLead(context.Background(), &lead); err == nil {
			t.Errorf("Expected reference validation error for %+v", lead)
		}
	}
}

func TestStore_InsertLead(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	postID := "post-1"
	lead := &model.Lead{Type: model.LeadTypePost, Confidence: 0.7, Reason: "keywords", PostID: &postID}

	created := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO leads \(type, confidence, reason, post_id, comment_id\)`).
		WithArgs("post", 0.7, "keywords", "post-1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("lead-1", created))

	if err := s.InsertLead(context.Background(), lead); err != nil {
		t.Fatalf("InsertLead failed: %v", err)
	}
	if lead.ID != "lead-1" || !lead.CreatedAt.Equal(created) {
		t.Errorf("Expected returned id and timestamp on entity, got %+v", lead)
	}
	expectationsMet(t, mock)
}

func TestStore_ListLeads_OrdersByConfidenceThenRecency(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	older := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	postCols := []string{
		"l_id", "l_type", "l_confidence", "l_reason", "l_created_at", "l_post_id",
		"p_id", "p_reddit_id", "p_title", "p_content", "p_author", "p_url",
		"p_score", "p_num_comments", "p_created_at", "p_subreddit_id", "s_name",
		"p_is_lead", "p_lead_score",
	}
	mock.ExpectQuery(`JOIN posts p ON p.id = l.post_id`).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow("lead-a", "post", 0.5, "r", older, "post-1",
				"post-1", "abc1", "t", "c", "alice", "u", 1, 0, older, "sub-1", "golang", true, 0.5).
			AddRow("lead-b", "post", 0.5, "r", newer, "post-2",
				"post-2", "abc2", "t2", "c2", "bob", "u2", 2, 0, newer, "sub-1", "golang", true, 0.5))

	commentCols := []string{
		"l_id", "l_type", "l_confidence", "l_reason", "l_created_at", "l_comment_id",
		"c_id", "c_reddit_id", "c_content", "c_author", "c_score", "c_created_at",
		"c_post_id", "c_is_lead", "c_lead_score",
	}
	mock.ExpectQuery(`JOIN comments c ON c.id = l.comment_id`).
		WillReturnRows(sqlmock.NewRows(commentCols).
			AddRow("lead-c", "comment", 0.9, "r", older, "comment-1",
				"comment-1", "c1", "text", "carol", 3, older, "post-1", true, 0.9))

	leads, err := s.ListLeads(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 3 {
		t.Fatalf("Expected 3 leads, got %d", len(leads))
	}
	// Highest confidence first, ties broken by recency.
	if leads[0].ID != "lead-c" || leads[1].ID != "lead-b" || leads[2].ID != "lead-a" {
		t.Errorf("Unexpected order: %s, %s, %s", leads[0].ID, leads[1].ID, leads[2].ID)
	}
	if leads[0].Comment == nil || leads[0].Comment.Author != "carol" {
		t.Error("Expected comment lead to embed its comment")
	}
	if leads[1].Post == nil || leads[1].Post.Subreddit != "golang" {
		t.Error("Expected post lead to embed post and subreddit name")
	}
	expectationsMet(t, mock)
}

func TestStore_SourceStats(t *testing.T) {
	s, mock, closeDB := newMock(t)
	defer closeDB()

	mock.ExpectQuery(`LEFT JOIN posts p ON p.subreddit_id = s.id\s+WHERE s.id = ANY\(\$1\)\s+GROUP BY s.id, s.name`).
		WithArgs(pq.StringArray{"sub-1", "sub-2"}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total", "leads"}).
			AddRow("sub-1", "golang", 10, 4).
			AddRow("sub-2", "webdev", 0, 0))

	mock.ExpectQuery(`LEFT JOIN comments c ON c.post_id = p.id`).
		WithArgs(pq.StringArray{"sub-1", "sub-2"}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total", "leads"}).
			AddRow("sub-1", 20, 5).
			AddRow("sub-2", 0, 0))

	stats, err := s.SourceStats(context.Background(), []string{"sub-1", "sub-2"})
	if err != nil {
		t.Fatalf("SourceStats failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Expected 2 stat rows, got %d", len(stats))
	}

	golang := stats[0]
	if golang.Subreddit != "golang" {
		t.Fatalf("Expected golang first, got %s", golang.Subreddit)
	}
	if golang.Posts.Total != 10 || golang.Posts.Leads != 4 || golang.Posts.Coefficient != 0.4 {
		t.Errorf("Unexpected post stats: %+v", golang.Posts)
	}
	if golang.Comments.Total != 20 || golang.Comments.Coefficient != 0.25 {
		t.Errorf("Unexpected comment stats: %+v", golang.Comments)
	}

	// Empty subreddit reports zero totals and a zero coefficient.
	webdev := stats[1]
	if webdev.Posts.Coefficient != 0 || webdev.Comments.Coefficient != 0 {
		t.Errorf("Expected zero coefficients for empty subreddit: %+v", webdev)
	}
	expectationsMet(t, mock)
}
