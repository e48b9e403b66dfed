package feed

import "github.com/emilythestrangee/minifeed/backend/internal/models"

// NegativeFeedback supplies the authors and genres a viewer asked to see
// less of. The scorer penalizes posts matching either set.
type NegativeFeedback interface {
	NegativeSignals(viewer *models.User) (authors, genres map[string]struct{})
}

// NoNegativeFeedback is the default source and always returns empty sets.
type NoNegativeFeedback struct{}

func (NoNegativeFeedback) NegativeSignals(*models.User) (map[string]struct{}, map[string]struct{}) {
	return map[string]struct{}{}, map[string]struct{}{}
}
