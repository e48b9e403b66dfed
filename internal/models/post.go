package models

import (
	"encoding/json"
	"time"
)

type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"index;not null" json:"userId"`
	Text      string    `gorm:"not null" json:"text"`
	Genres    GenreList `gorm:"serializer:json" json:"genres"`
	Image     string    `json:"image,omitempty"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	Views     []string  `gorm:"serializer:json" json:"views"`
	Likes     []string  `gorm:"serializer:json" json:"likes"`
	Comments  []Comment `gorm:"serializer:json" json:"comments"`
	ViewScore float64   `json:"viewScore,omitempty"`
}

// UnmarshalJSON folds the legacy singular "genre" field into Genres and the
// legacy "score" view tally into ViewScore.
func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	aux := struct {
		*plain
		Genre     GenreList `json:"genre"`
		Score     *float64  `json:"score"`
		ViewScore *float64  `json:"viewScore"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(p.Genres) == 0 && len(aux.Genre) > 0 {
		p.Genres = aux.Genre
	}
	switch {
	case aux.ViewScore != nil:
		p.ViewScore = *aux.ViewScore
	case aux.Score != nil:
		p.ViewScore = *aux.Score
	}
	return nil
}

func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ViewsBy counts the view records left by one user.
func (p *Post) ViewsBy(userID string) int {
	n := 0
	for _, id := range p.Views {
		if id == userID {
			n++
		}
	}
	return n
}

// ScoredPost is a post ranked for one feed request. It is never persisted.
type ScoredPost struct {
	Post
	Score          float64            `json:"score"`
	ScoringFactors map[string]float64 `json:"scoringFactors"`
	User           UserSnapshot       `json:"user"`
}
