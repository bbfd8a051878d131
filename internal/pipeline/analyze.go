package pipeline

import (
	"context"

	"leadscout/internal/classify"
	"leadscout/internal/logging"
	"leadscout/internal/model"
	"leadscout/internal/monitoring"
)

// Analyzer streams unclassified items through the classifier, persists
// the verdicts and materializes Lead records for positive ones.
//
// Only items with is_lead = false are selected, so re-running analysis
// never duplicates a lead: once an item is marked, it stays out of
// later passes.
type Analyzer struct {
	store      Store
	classifier classify.Classifier
	logger     logging.Logger
	metrics    *monitoring.Metrics
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(store Store, classifier classify.Classifier, logger logging.Logger, metrics *monitoring.Metrics) *Analyzer {
	return &Analyzer{
		store:      store,
		classifier: classifier,
		logger:     logger,
		metrics:    metrics,
	}
}

// AnalyzePosts classifies all unclassified posts, optionally scoped to
// a set of subreddits.
func (a *Analyzer) AnalyzePosts(ctx context.Context, sourceIDs []string) (model.AnalysisResult, error) {
	posts, err := a.store.UnclassifiedPosts(ctx, model.ItemFilter{SourceIDs: sourceIDs})
	if err != nil {
		return model.AnalysisResult{}, err
	}

	result := model.AnalysisResult{Analyzed: len(posts)}
	for _, post := range posts {
		verdict := a.classifier.Classify(ctx, post.Title+"\n\n"+post.Content, classify.KindPost)
		a.metrics.IncClassified("post")

		if err := a.store.MarkPostClassified(ctx, post.ID, verdict.IsLead, verdict.Confidence); err != nil {
			a.logger.WithError(err).WithFields(logging.Fields{"post": post.ID}).
				Error("Failed to persist post verdict")
			continue
		}
		if !verdict.IsLead {
			continue
		}

		postID := post.ID
		lead := model.Lead{
			Type:       model.LeadTypePost,
			Confidence: verdict.Confidence,
			Reason:     verdict.Reason,
			PostID:     &postID,
		}
		if err := a.store.InsertLead(ctx, &lead); err != nil {
			a.logger.WithError(err).WithFields(logging.Fields{"post": post.ID}).
				Error("Failed to create lead")
			continue
		}
		result.Leads++
		a.metrics.IncLead("post")
	}
	return result, nil
}

// AnalyzeComments classifies all unclassified comments, optionally
// scoped to a set of parent posts.
func (a *Analyzer) AnalyzeComments(ctx context.Context, postIDs []string) (model.AnalysisResult, error) {
	comments, err := a.store.UnclassifiedComments(ctx, model.ItemFilter{ParentIDs: postIDs})
	if err != nil {
		return model.AnalysisResult{}, err
	}

	result := model.AnalysisResult{Analyzed: len(comments)}
	for _, comment := range comments {
		verdict := a.classifier.Classify(ctx, comment.Content, classify.KindComment)
		a.metrics.IncClassified("comment")

		if err := a.store.MarkCommentClassified(ctx, comment.ID, verdict.IsLead, verdict.Confidence); err != nil {
			a.logger.WithError(err).WithFields(logging.Fields{"comment": comment.ID}).
				Error("Failed to persist comment verdict")
			continue
		}
		if !verdict.IsLead {
			continue
		}

		commentID := comment.ID
		lead := model.Lead{
			Type:       model.LeadTypeComment,
			Confidence: verdict.Confidence,
			Reason:     verdict.Reason,
			CommentID:  &commentID,
		}
		if err := a.store.InsertLead(ctx, &lead); err != nil {
			a.logger.WithError(err).WithFields(logging.Fields{"comment": comment.ID}).
				Error("Failed to create lead")
			continue
		}
		result.Leads++
		a.metrics.IncLead("comment")
	}
	return result, nil
}

// AnalyzeAll runs the post pass first, then scopes the comment pass to
// the posts of the same subreddits.
func (a *Analyzer) AnalyzeAll(ctx context.Context, sourceIDs []string) (model.AnalysisSummary, error) {
	posts, err := a.AnalyzePosts(ctx, sourceIDs)
	if err != nil {
		return model.AnalysisSummary{}, err
	}

	var postIDs []string
	if len(sourceIDs) > 0 {
		postIDs, err = a.store.PostIDsBySources(ctx, sourceIDs)
		if err != nil {
			return model.AnalysisSummary{}, err
		}
		// Scoped run with no posts: nothing for the comment pass to do.
		if len(postIDs) == 0 {
			return model.AnalysisSummary{Posts: posts}, nil
		}
	}

	comments, err := a.AnalyzeComments(ctx, postIDs)
	if err != nil {
		return model.AnalysisSummary{}, err
	}

	return model.AnalysisSummary{Posts: posts, Comments: comments}, nil
}
