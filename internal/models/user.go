package models

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string    `json:"name"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"passwordHash,omitempty"`
	Genre        GenreList `gorm:"serializer:json" json:"genre"`
	Following    []string  `gorm:"serializer:json" json:"following"`

	// Interaction accumulators consumed by the feed scorer
	GenrePreference map[string]float64 `gorm:"serializer:json" json:"genrePreference,omitempty"`
	AuthorAffinity  map[string]float64 `gorm:"serializer:json" json:"authorAffinity,omitempty"`
}

// UserSnapshot is the credential-free view of a user embedded in responses.
type UserSnapshot struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Genre     GenreList `json:"genre,omitempty"`
	Following []string  `json:"following,omitempty"`
}

// UnknownAuthor stands in for posts whose author record is missing.
var UnknownAuthor = UserSnapshot{Name: "Unknown", Username: "Unknown"}

func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Genre:     u.Genre,
		Following: u.Following,
	}
}

// IsFollowing reports whether u follows the given user.
func (u *User) IsFollowing(userID string) bool {
	for _, id := range u.Following {
		if id == userID {
			return true
		}
	}
	return false
}

// EnsureAccumulators allocates the preference maps if absent.
func (u *User) EnsureAccumulators() {
	if u.GenrePreference == nil {
		u.GenrePreference = map[string]float64{}
	}
	if u.AuthorAffinity == nil {
		u.AuthorAffinity = map[string]float64{}
	}
}
