package reddit

import (
	"encoding/json"
	"fmt"
)

// listing is the envelope Reddit wraps around both post and comment
// pages.
type listing struct {
	Data struct {
		Children []child `json:"children"`
	} `json:"data"`
}

// child carries one listing entry. Kind is "t3" for posts and "t1" for
// comments.
type child struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

type commentData struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	// Replies is a nested listing for threaded comments, or the empty
	// string when there are none. Decoded lazily during traversal.
	Replies json.RawMessage `json:"replies"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// FetchError marks a failed fetch for one subreddit. Callers decide
// whether to continue with other sources.
type FetchError struct {
	Subreddit string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch r/%s: %v", e.Subreddit, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
