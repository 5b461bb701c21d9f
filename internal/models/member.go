package models

import "time"

// Member is one row of community_members. Nullable columns are pointers so
// an absent value is stored as NULL rather than an empty string.
type Member struct {
	ID               string
	Name             string
	FirstName        *string
	LastName         *string
	Email            string
	Location         *string
	Activity         *string
	ImageURL         *string
	OriginalImageURL *string
	CreatedAt        time.Time
}
