package feed

import (
	"math"
	"time"

	"github.com/emilythestrangee/minifeed/backend/internal/models"
)

// Scoring factor names, as exposed in scoringFactors.
const (
	FactorOwnPost           = "ownPost"
	FactorFollowedAuthor    = "followedAuthor"
	FactorExactGenreMatch   = "exactGenreMatch"
	FactorPartialGenreMatch = "partialGenreMatch"
	FactorGenrePreference   = "genrePreference"
	FactorLikedSameAuthor   = "likedSameAuthor"
	FactorImageBonus        = "imageBonus"
	FactorRecencyBonus      = "recencyBonus"
	FactorLikes             = "likes"
	FactorComments          = "comments"
	FactorViews             = "views"
	FactorNegativeFeedback  = "negativeFeedback"
	FactorDiscoveryBoost    = "discoveryBoost"
)

const (
	// Own posts and genre preference are kept in the breakdown at zero weight.
	ownPostWeight         = 0.0
	genrePreferenceWeight = 0.0

	followedAuthorWeight  = 4.0
	exactGenreMatchWeight = 5.0
	partialGenreBase      = 1.0
	partialGenrePerMatch  = 0.5
	partialGenreCap       = 3.5
	authorAffinityWeight  = 2.0
	imageWeight           = 1.0

	recencyMax        = 3.0
	recencyFullHours  = 1.0
	recencyDecayHours = 5.0

	likeWeight    = 1.0
	commentWeight = 1.5
	viewWeight    = 0.25

	negativeAuthorPenalty = -4.0
	negativeGenrePenalty  = -2.0

	DiscoveryBoost = 2.0
)

// Factors maps a factor name to its signed contribution.
type Factors map[string]float64

// Viewer is the requesting user as seen by the scorer.
type Viewer struct {
	ID              string
	Genres          models.GenreList
	Following       map[string]struct{}
	AuthorAffinity  map[string]float64
	GenrePreference map[string]float64
	NegativeAuthors map[string]struct{}
	NegativeGenres  map[string]struct{}
}

// NewViewer builds a Viewer from a user record and the negative feedback
// sets for this request. Nil sets are treated as empty.
func NewViewer(u *models.User, negativeAuthors, negativeGenres map[string]struct{}) Viewer {
	following := make(map[string]struct{}, len(u.Following))
	for _, id := range u.Following {
		following[id] = struct{}{}
	}
	return Viewer{
		ID:              u.ID,
		Genres:          u.Genre,
		Following:       following,
		AuthorAffinity:  u.AuthorAffinity,
		GenrePreference: u.GenrePreference,
		NegativeAuthors: negativeAuthors,
		NegativeGenres:  negativeGenres,
	}
}

func (v Viewer) follows(userID string) bool {
	_, ok := v.Following[userID]
	return ok
}

// Score computes the feed score of p for v at the given instant. The score
// is the sum of the returned factors.
func Score(p *models.Post, v Viewer, now time.Time) (float64, Factors) {
	score := 0.0
	factors := Factors{}
	add := func(name string, value float64) {
		factors[name] = value
		score += value
	}

	if p.UserID == v.ID {
		add(FactorOwnPost, ownPostWeight)
	}

	if v.follows(p.UserID) {
		add(FactorFollowedAuthor, followedAuthorWeight)
	}

	if name, value, ok := genreMatch(p.Genres, v.Genres); ok {
		add(name, value)
	}

	for _, g := range p.Genres {
		if v.GenrePreference[g] > 0 {
			add(FactorGenrePreference, genrePreferenceWeight)
			break
		}
	}

	if v.AuthorAffinity[p.UserID] > 0 {
		add(FactorLikedSameAuthor, authorAffinityWeight)
	}

	if p.Image != "" {
		add(FactorImageBonus, imageWeight)
	}

	if bonus := recencyBonus(now.Sub(p.Timestamp)); bonus > 0 {
		add(FactorRecencyBonus, bonus)
	}

	if n := len(p.Likes); n > 0 {
		add(FactorLikes, float64(n)*likeWeight)
	}
	if n := len(p.Comments); n > 0 {
		add(FactorComments, float64(n)*commentWeight)
	}
	if n := len(p.Views); n > 0 {
		add(FactorViews, float64(n)*viewWeight)
	}

	penalty := 0.0
	if _, ok := v.NegativeAuthors[p.UserID]; ok {
		penalty += negativeAuthorPenalty
	}
	for _, g := range p.Genres {
		if _, ok := v.NegativeGenres[g]; ok {
			penalty += negativeGenrePenalty
		}
	}
	if penalty < 0 {
		add(FactorNegativeFeedback, penalty)
	}

	return score, factors
}

// genreMatch compares the genre sets. Identical non-empty sets are an exact
// match; any other overlap is partial and capped.
func genreMatch(postGenres, userGenres models.GenreList) (string, float64, bool) {
	if len(postGenres) == 0 || len(userGenres) == 0 {
		return "", 0, false
	}

	postSet := postGenres.Set()
	userSet := userGenres.Set()
	matches := 0
	for g := range postSet {
		if _, ok := userSet[g]; ok {
			matches++
		}
	}
	if matches == 0 {
		return "", 0, false
	}

	if matches == len(postSet) && matches == len(userSet) {
		return FactorExactGenreMatch, exactGenreMatchWeight, true
	}
	return FactorPartialGenreMatch, math.Min(partialGenreCap, partialGenreBase+partialGenrePerMatch*float64(matches)), true
}

// recencyBonus is flat for the first hour, then decays linearly to zero at
// five hours, rounded to one decimal.
func recencyBonus(age time.Duration) float64 {
	hours := age.Hours()
	switch {
	case hours < recencyFullHours:
		return recencyMax
	case hours < recencyDecayHours:
		return math.Round(recencyMax*(1-hours/recencyDecayHours)*10) / 10
	default:
		return 0
	}
}
