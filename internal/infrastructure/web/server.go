package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"DailyDigest/internal/domain"
)

const defaultRunLimit = 30

// RunHistory is the read side of the run repository.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
	ItemsByDate(ctx context.Context, date string) ([]domain.Item, error)
}

// Archive lists published documents.
type Archive interface {
	Dates() ([]string, error)
	Dir() string
	LatestPath() string
}

// Server exposes the published digest and run history over HTTP.
type Server struct {
	archive Archive
	runs    RunHistory
	logger  *slog.Logger
}

// NewServer builds the HTTP surface. runs may be nil when no database is configured.
func NewServer(archive Archive, runs RunHistory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{archive: archive, runs: runs, logger: logger}
}

// Handler returns the configured gin engine.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/archive", s.listArchive)
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:date/items", s.listItems)
	}

	if s.archive != nil {
		r.StaticFile("/", s.archive.LatestPath())
		r.StaticFile("/index.html", s.archive.LatestPath())
		r.Static("/archive", s.archive.Dir())
	}
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listArchive(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusOK, gin.H{"code": "ok", "data": []string{}})
		return
	}

	dates, err := s.archive.Dates()
	if err != nil {
		s.internalError(c, "list archive", err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "data": dates})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "unavailable",
			"message": "run history is not configured",
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRunLimit)))
	if err != nil || limit <= 0 {
		limit = defaultRunLimit
	}

	runs, err := s.runs.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, "list runs", err)
		return
	}

	data := make([]runView, 0, len(runs))
	for _, r := range runs {
		data = append(data, newRunView(r))
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "data": data})
}

func (s *Server) listItems(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "unavailable",
			"message": "run history is not configured",
		})
		return
	}

	date := c.Param("date")
	if _, err := time.Parse(domain.DateKeyLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "date must be YYYY-MM-DD",
		})
		return
	}

	items, err := s.runs.ItemsByDate(c.Request.Context(), date)
	if err != nil {
		s.internalError(c, "list items", err)
		return
	}

	data := make([]itemView, 0, len(items))
	for _, it := range items {
		data = append(data, newItemView(it))
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "data": data})
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

type runView struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"`
	NewsCount       int       `json:"news_count"`
	PaperCount      int       `json:"paper_count"`
	FailedSources   int       `json:"failed_sources"`
	FailedSummaries int       `json:"failed_summaries"`
	CreatedAt       time.Time `json:"created_at"`
}

func newRunView(r domain.RunRecord) runView {
	return runView{
		ID:              r.ID,
		Date:            domain.DateKey(r.RunDate),
		NewsCount:       r.NewsCount,
		PaperCount:      r.PaperCount,
		FailedSources:   r.FailedSources,
		FailedSummaries: r.FailedSummaries,
		CreatedAt:       r.CreatedAt,
	}
}

type itemView struct {
	Source     string `json:"source"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Kind       string `json:"kind"`
	Point      string `json:"point,omitempty"`
	Background string `json:"background,omitempty"`
	Impact     string `json:"impact,omitempty"`
}

func newItemView(it domain.Item) itemView {
	v := itemView{Source: it.Source, Title: it.Title, URL: it.URL, Kind: string(it.Kind)}
	if it.Summary != nil {
		v.Point = it.Summary.Point
		v.Background = it.Summary.Background
		v.Impact = it.Summary.Impact
	}
	return v
}
