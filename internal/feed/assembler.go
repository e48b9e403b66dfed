// Package feed scores posts for a viewer and assembles the ranked,
// paginated feed.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/emilythestrangee/minifeed/backend/internal/apperr"
	"github.com/emilythestrangee/minifeed/backend/internal/models"
	"github.com/emilythestrangee/minifeed/backend/internal/rank"
	"github.com/emilythestrangee/minifeed/backend/internal/store"
)

const (
	DefaultPageSize = 15
	// DefaultTopN caps the ranked list independently of the page size.
	DefaultTopN = 90
)

// CorpusReader loads every user and post.
type CorpusReader interface {
	Read(ctx context.Context) (*store.Corpus, error)
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPosts int  `json:"totalPosts"`
	HasMore    bool `json:"hasMore"`
}

type Page struct {
	Posts      []models.ScoredPost `json:"posts"`
	Pagination Pagination          `json:"pagination"`
}

type Assembler struct {
	corpus   CorpusReader
	feedback NegativeFeedback
	pick     func(n int) int
	now      func() time.Time
	topN     int
	pageSize int
}

type Option func(*Assembler)

// WithPicker replaces the random choice of the discovery boost target.
// pick receives the number of candidates and returns an index.
func WithPicker(pick func(n int) int) Option {
	return func(a *Assembler) { a.pick = pick }
}

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func WithNegativeFeedback(src NegativeFeedback) Option {
	return func(a *Assembler) { a.feedback = src }
}

func WithTopN(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.topN = n
		}
	}
}

func WithPageSize(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.pageSize = n
		}
	}
}

func NewAssembler(corpus CorpusReader, opts ...Option) *Assembler {
	a := &Assembler{
		corpus:   corpus,
		feedback: NoNegativeFeedback{},
		pick:     rand.IntN,
		now:      time.Now,
		topN:     DefaultTopN,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Feed returns one page of the ranked feed for userID. page is 1-indexed;
// values below 1 fall back to the first page and the default page size.
func (a *Assembler) Feed(ctx context.Context, userID string, page, limit int) (*Page, error) {
	ctx, span := tracer.Start(ctx, "feed.Assemble", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("feed.page", page),
		attribute.Int("feed.limit", limit),
	))
	defer span.End()
	start := time.Now()

	corpus, err := a.corpus.Read(ctx)
	if err != nil {
		feedRequestsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "load corpus")
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	viewer := corpus.User(userID)
	if viewer == nil {
		feedRequestsTotal.WithLabelValues("not_found").Inc()
		return nil, apperr.NotFound("User not found")
	}

	if limit < 1 {
		limit = a.pageSize
	}
	ranked := a.Rank(viewer, corpus, a.now())
	result := Paginate(ranked.TopN(a.topN), page, limit)

	elapsed := time.Since(start)
	feedRequestsTotal.WithLabelValues("ok").Inc()
	feedAssemblyDuration.Observe(elapsed.Seconds())
	feedCandidates.Observe(float64(len(corpus.Posts)))
	span.SetAttributes(
		attribute.Int("feed.candidates", len(corpus.Posts)),
		attribute.Int("feed.returned", len(result.Posts)),
	)
	if top, ok := ranked.Peek(); ok {
		span.SetAttributes(attribute.Float64("feed.top_score", top.Score))
	}
	slog.Debug("feed assembled",
		"user_id", userID,
		"candidates", len(corpus.Posts),
		"returned", len(result.Posts),
		"duration", elapsed)

	return result, nil
}

// Rank scores every post in the corpus for viewer, pushes them into a heap
// and applies the discovery boost.
func (a *Assembler) Rank(viewer *models.User, corpus *store.Corpus, now time.Time) *rank.MaxHeap[*models.ScoredPost] {
	negAuthors, negGenres := a.feedback.NegativeSignals(viewer)
	v := NewViewer(viewer, negAuthors, negGenres)

	authors := make(map[string]models.UserSnapshot, len(corpus.Users))
	for i := range corpus.Users {
		authors[corpus.Users[i].ID] = corpus.Users[i].Snapshot()
	}

	heap := rank.NewMaxHeap(func(sp *models.ScoredPost) float64 { return sp.Score })
	var outsiders []*models.ScoredPost

	for i := range corpus.Posts {
		post := corpus.Posts[i]
		score, factors := Score(&post, v, now)

		author, ok := authors[post.UserID]
		if !ok {
			author = models.UnknownAuthor
		}
		sp := &models.ScoredPost{
			Post:           post,
			Score:          score,
			ScoringFactors: factors,
			User:           author,
		}
		heap.Insert(sp)

		if post.UserID != viewer.ID && !v.follows(post.UserID) {
			outsiders = append(outsiders, sp)
		}
	}

	a.applyDiscoveryBoost(heap, outsiders)
	return heap
}

// applyDiscoveryBoost bumps one random post from outside the viewer's
// follow graph and restores heap order around it.
func (a *Assembler) applyDiscoveryBoost(heap *rank.MaxHeap[*models.ScoredPost], candidates []*models.ScoredPost) {
	if len(candidates) == 0 {
		return
	}
	i := a.pick(len(candidates))
	if i < 0 || i >= len(candidates) {
		return
	}
	target := candidates[i]

	target.Score += DiscoveryBoost
	target.ScoringFactors[FactorDiscoveryBoost] = DiscoveryBoost
	heap.Fix(heap.Index(func(sp *models.ScoredPost) bool { return sp == target }))
}

// Paginate slices one page out of the ranked list.
func Paginate(ranked []*models.ScoredPost, page, limit int) *Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	skip := (page - 1) * limit
	posts := []models.ScoredPost{}
	if skip < len(ranked) {
		end := min(skip+limit, len(ranked))
		for _, sp := range ranked[skip:end] {
			posts = append(posts, *sp)
		}
	}

	return &Page{
		Posts: posts,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalPosts: len(ranked),
			HasMore:    skip+limit < len(ranked),
		},
	}
}
