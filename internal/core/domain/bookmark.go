package domain

import "time"

type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SchemeID  int       `json:"schemeId"`
	CreatedAt time.Time `json:"createdAt"`
	Scheme    *Scheme   `json:"scheme,omitempty"`
}
