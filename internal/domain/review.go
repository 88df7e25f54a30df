package domain

type Review struct {
	ID         int64
	UserID     int64
	BusinessID int64
	Stars      float64
	ReviewText *string // nil when never supplied or explicitly nulled
}

type ReviewInput struct {
	UserID     int64   `json:"user_id"`
	BusinessID int64   `json:"business_id"`
	Stars      float64 `json:"stars"`
	ReviewText *string `json:"review_text"`
}

// ReviewPatch carries the mutable review fields. HasText reports whether
// review_text was present in the payload at all, so that an omitted key
// leaves the stored text untouched.
type ReviewPatch struct {
	Stars      float64
	ReviewText *string
	HasText    bool
}
