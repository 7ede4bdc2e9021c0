package domain

import "time"

// RecommendationRequest is one completed dialog: the query the user
// assembled, the raw model answer, and the titles extracted from it.
// Rows are append-only once written.
type RecommendationRequest struct {
	ID            string    `json:"id"`
	Key           UserKey   `json:"key"`
	Genres        string    `json:"genres"`   // rendered, comma-separated
	Years         string    `json:"years"`    // rendered, comma-separated
	Keywords      string    `json:"keywords"`
	ModelResponse string    `json:"modelResponse"`
	Titles        [3]string `json:"titles"` // empty string = rank not extracted
	RequestedAt   time.Time `json:"requestedAt"`
}
