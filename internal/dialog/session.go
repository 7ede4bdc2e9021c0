// Package dialog implements the conversation state machine: per-user
// dialog state, legal transitions, and the completion pipeline that turns
// accumulated selections into a persisted recommendation.
package dialog

import "github.com/soyeahso/kinobot/internal/domain"

// State is the dialog position of a session. Terminal outcomes (completed,
// cancelled) have no State value: entering them destroys the session.
type State string

const (
	StateGenre    State = "awaiting_genre"
	StateYear     State = "awaiting_year"
	StateKeywords State = "awaiting_keywords"
)

// Session is one user's in-progress dialog. Fields fill strictly in
// order: YearRange only after Genres, Keywords only after both.
type Session struct {
	Key       domain.UserKey `json:"key"`
	State     State          `json:"state"`
	Genres    []string       `json:"genres,omitempty"`
	YearRange string         `json:"yearRange,omitempty"`
	Keywords  string         `json:"keywords,omitempty"`
}

// hasGenre reports whether the session has a genre selected.
func (s *Session) hasGenre(value string) bool {
	for _, g := range s.Genres {
		if g == value {
			return true
		}
	}
	return false
}

// toggleGenre adds the genre if absent or removes it if present.
func (s *Session) toggleGenre(value string) {
	for i, g := range s.Genres {
		if g == value {
			s.Genres = append(s.Genres[:i], s.Genres[i+1:]...)
			return
		}
	}
	s.Genres = append(s.Genres, value)
}
