package pipeline

import (
	"context"
	"fmt"
	"time"

	"leadscout/internal/classify"
	"leadscout/internal/model"
)

// fakeFetcher serves canned posts and comments per subreddit and can
// fail selected subreddits.
type fakeFetcher struct {
	posts    map[string][]model.Post
	comments map[string][]model.Comment
	failing  map[string]bool
}

func (f *fakeFetcher) FetchPosts(_ context.Context, subreddit string, _ int) ([]model.Post, error) {
	if f.failing[subreddit] {
		return nil, fmt.Errorf("upstream unavailable for %s", subreddit)
	}
	return f.posts[subreddit], nil
}

func (f *fakeFetcher) FetchComments(_ context.Context, postRedditID, _ string, _ time.Time) []model.Comment {
	return f.comments[postRedditID]
}

// fakeStore is an in-memory Store that records calls.
type fakeStore struct {
	subreddits map[string]*model.Subreddit
	posts      []model.Post
	comments   []model.Comment
	leads      []model.Lead
	stats      []model.SourceStats

	postVerdicts    map[string]bool
	commentVerdicts map[string]bool

	upsertPostErr error
	nextID        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		subreddits:      make(map[string]*model.Subreddit),
		postVerdicts:    make(map[string]bool),
		commentVerdicts: make(map[string]bool),
	}
}

func (s *fakeStore) genID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeStore) GetOrCreateSubreddit(_ context.Context, name string) (*model.Subreddit, error) {
	if sub, ok := s.subreddits[name]; ok {
		return sub, nil
	}
	sub := &model.Subreddit{ID: s.genID("sub"), Name: name, CreatedAt: time.Now()}
	s.subreddits[name] = sub
	return sub, nil
}

func (s *fakeStore) SubredditsByNames(_ context.Context, names []string) ([]model.Subreddit, error) {
	var subs []model.Subreddit
	for _, name := range names {
		if sub, ok := s.subreddits[name]; ok {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

func (s *fakeStore) UpsertPost(_ context.Context, p *model.Post) (string, error) {
	if s.upsertPostErr != nil {
		return "", s.upsertPostErr
	}
	for i := range s.posts {
		if s.posts[i].RedditID == p.RedditID {
			p.ID = s.posts[i].ID
			s.posts[i] = *p
			return p.ID, nil
		}
	}
	p.ID = s.genID("post")
	s.posts = append(s.posts, *p)
	return p.ID, nil
}

func (s *fakeStore) UpsertComment(_ context.Context, c *model.Comment) (string, error) {
	for i := range s.comments {
		if s.comments[i].RedditID == c.RedditID {
			c.ID = s.comments[i].ID
			s.comments[i] = *c
			return c.ID, nil
		}
	}
	c.ID = s.genID("comment")
	s.comments = append(s.comments, *c)
	return c.ID, nil
}

func (s *fakeStore) UnclassifiedPosts(_ context.Context, filter model.ItemFilter) ([]model.Post, error) {
	var out []model.Post
	for _, p := range s.posts {
		if p.IsLead || (len(filter.SourceIDs) > 0 && !contains(filter.SourceIDs, p.SubredditID)) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) UnclassifiedComments(_ context.Context, filter model.ItemFilter) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range s.comments {
		if c.IsLead || (len(filter.ParentIDs) > 0 && !contains(filter.ParentIDs, c.PostID)) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeStore) PostIDsBySources(_ context.Context, sourceIDs []string) ([]string, error) {
	var ids []string
	for _, p := range s.posts {
		if contains(sourceIDs, p.SubredditID) {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *fakeStore) MarkPostClassified(_ context.Context, id string, isLead bool, score float64) error {
	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts[i].IsLead = isLead
			s.posts[i].LeadScore = &score
			s.postVerdicts[id] = isLead
			return nil
		}
	}
	return fmt.Errorf("post %s not found", id)
}

func (s *fakeStore) MarkCommentClassified(_ context.Context, id string, isLead bool, score float64) error {
	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].IsLead = isLead
			s.comments[i].LeadScore = &score
			s.commentVerdicts[id] = isLead
			return nil
		}
	}
	return fmt.Errorf("comment %s not found", id)
}

func (s *fakeStore) InsertLead(_ context.Context, lead *model.Lead) error {
	lead.ID = s.genID("lead")
	lead.CreatedAt = time.Now()
	s.leads = append(s.leads, *lead)
	return nil
}

func (s *fakeStore) SourceStats(_ context.Context, _ []string) ([]model.SourceStats, error) {
	return s.stats, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// fixedClassifier returns one verdict for every item.
type fixedClassifier struct {
	result classify.Result
}

func (c *fixedClassifier) Classify(_ context.Context, _ string, _ classify.Kind) classify.Result {
	return c.result
}
