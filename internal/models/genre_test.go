package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenreList_UnmarshalArray(t *testing.T) {
	var g GenreList
	require.NoError(t, json.Unmarshal([]byte(`["rock", " jazz ", ""]`), &g))

	assert.Equal(t, GenreList{"rock", "jazz"}, g)
}

func TestGenreList_UnmarshalCommaString(t *testing.T) {
	var g GenreList
	require.NoError(t, json.Unmarshal([]byte(`"rock, jazz,,pop"`), &g))

	assert.Equal(t, GenreList{"rock", "jazz", "pop"}, g)
}

func TestGenreList_UnmarshalNull(t *testing.T) {
	g := GenreList{"stale"}
	require.NoError(t, json.Unmarshal([]byte(`null`), &g))

	assert.Nil(t, g)
}

func TestGenreList_EmptyArrayStaysEmpty(t *testing.T) {
	var g GenreList
	require.NoError(t, json.Unmarshal([]byte(`[]`), &g))

	assert.NotNil(t, g)
	assert.Empty(t, g)
}

func TestGenreList_NilMarshalsAsEmptyArray(t *testing.T) {
	raw, err := json.Marshal(Post{ID: "p1"})
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"genres":[]`)
}

func TestGenreList_UnmarshalRejectsNumbers(t *testing.T) {
	var g GenreList
	assert.Error(t, json.Unmarshal([]byte(`42`), &g))
}

func TestUser_LegacyStringGenre(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","genre":"sci-fi,fantasy","following":[]}`), &u))

	assert.Equal(t, GenreList{"sci-fi", "fantasy"}, u.Genre)
}

func TestPost_LegacySingularGenre(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","userId":"u1","text":"hi","genre":"rock"}`), &p))

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "hi", p.Text)
	assert.Equal(t, GenreList{"rock"}, p.Genres)
}

func TestPost_GenresWinOverLegacyField(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","genres":["jazz"],"genre":"rock"}`), &p))

	assert.Equal(t, GenreList{"jazz"}, p.Genres)
}

func TestPost_LegacyScoreBecomesViewScore(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","views":["a","a","b"],"score":1.5}`), &p))

	assert.Equal(t, 1.5, p.ViewScore)
}

func TestPost_ViewScoreWinsOverLegacyScore(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","viewScore":2,"score":1.5}`), &p))

	assert.Equal(t, 2.0, p.ViewScore)
}

func TestPost_ViewsByCountsDuplicates(t *testing.T) {
	p := Post{Views: []string{"a", "b", "a"}}

	assert.Equal(t, 2, p.ViewsBy("a"))
	assert.Equal(t, 0, p.ViewsBy("c"))
}

func TestUser_SnapshotOmitsCredentials(t *testing.T) {
	u := User{ID: "u1", Name: "Ada", Username: "ada", PasswordHash: "secret-hash"}

	raw, err := json.Marshal(u.Snapshot())
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret-hash")
	assert.Contains(t, string(raw), `"username":"ada"`)
}
