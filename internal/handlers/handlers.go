package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"leadscout/internal/logging"
	"leadscout/internal/model"
)

// suggestedSubreddits is the static list offered to clients as a
// starting point.
var suggestedSubreddits = []string{
	"webdev",
	"forhire",
	"startups",
	"entrepreneur",
	"smallbusiness",
	"freelance",
	"SideProject",
	"indiebiz",
}

// API holds the HTTP handlers for the lead pipeline.
type API struct {
	pipeline PipelineService
	leads    LeadStore
	logger   logging.Logger
}

// NewAPI creates the handler set.
func NewAPI(pipeline PipelineService, leads LeadStore, logger logging.Logger) *API {
	return &API{
		pipeline: pipeline,
		leads:    leads,
		logger:   logger,
	}
}

type parseRequest struct {
	Subreddits []string `json:"subreddits" binding:"required"`
	PostsLimit int      `json:"postsLimit"`
}

// ParseSubreddits handles POST /api/reddit/parse.
func (a *API) ParseSubreddits(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}
	if err := model.ValidateParseRequest(req.Subreddits, req.PostsLimit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := a.pipeline.Ingest(c.Request.Context(), req.Subreddits, req.PostsLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// SuggestedSubreddits handles GET /api/reddit/subreddits.
func (a *API) SuggestedSubreddits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggested": suggestedSubreddits})
}

// ParseAndAnalyze handles POST /api/leads/parse-and-analyze.
func (a *API) ParseAndAnalyze(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}
	if err := model.ValidateParseRequest(req.Subreddits, req.PostsLimit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := a.pipeline.ParseAndAnalyze(c.Request.Context(), req.Subreddits, req.PostsLimit)
	if err != nil {
		a.logger.WithError(err).Error("Parse-and-analyze failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pipeline failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListLeads handles GET /api/leads.
func (a *API) ListLeads(c *gin.Context) {
	leads, err := a.leads.ListLeads(c.Request.Context(), querySourceIDs(c))
	if err != nil {
		a.logger.WithError(err).Error("Failed to list leads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list leads"})
		return
	}
	c.JSON(http.StatusOK, leads)
}

// Statistics handles GET /api/leads/statistics.
func (a *API) Statistics(c *gin.Context) {
	stats, err := a.leads.SourceStats(c.Request.Context(), querySourceIDs(c))
	if err != nil {
		a.logger.WithError(err).Error("Failed to compute statistics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// querySourceIDs parses the optional comma-separated subredditIds
// query parameter.
func querySourceIDs(c *gin.Context) []string {
	raw := c.Query("subredditIds")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
