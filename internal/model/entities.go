package model

import "time"

// Subreddit is a named content channel tracked by the scout.
// Created on first ingestion; never deleted by the pipeline.
type Subreddit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is one top-level content unit fetched from a subreddit.
type Post struct {
	ID          string    `json:"id"`
	RedditID    string    `json:"redditId"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	URL         string    `json:"url"`
	Score       int       `json:"score"`
	NumComments int       `json:"numComments"`
	CreatedAt   time.Time `json:"createdAt"`
	SubredditID string    `json:"subredditId"`
	Subreddit   string    `json:"subreddit,omitempty"`
	IsLead      bool      `json:"isLead"`
	LeadScore   *float64  `json:"leadScore,omitempty"`
}

// Comment is one reply unit nested under a post.
type Comment struct {
	ID        string    `json:"id"`
	RedditID  string    `json:"redditId"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	PostID    string    `json:"postId"`
	IsLead    bool      `json:"isLead"`
	LeadScore *float64  `json:"leadScore,omitempty"`
}

// LeadType distinguishes which kind of item a lead references.
type LeadType string

const (
	LeadTypePost    LeadType = "post"
	LeadTypeComment LeadType = "comment"
)

// Lead is a positive classification verdict. It references exactly one
// item: a post or a comment, never both. Leads are created once and
// never mutated.
type Lead struct {
	ID         string    `json:"id"`
	Type       LeadType  `json:"type"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
	PostID     *string   `json:"postId,omitempty"`
	CommentID  *string   `json:"commentId,omitempty"`
	Post       *Post     `json:"post,omitempty"`
	Comment    *Comment  `json:"comment,omitempty"`
}
