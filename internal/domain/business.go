package domain

// Kinds stored in the datastore.
const (
	KindBusiness = "Business"
	KindReview   = "Review"
)

type Business struct {
	ID            int64
	OwnerID       int64
	Name          string
	StreetAddress string
	City          string
	State         string
	ZipCode       string
}

// BusinessInput is the full required attribute set for create and update.
type BusinessInput struct {
	OwnerID       int64  `json:"owner_id"`
	Name          string `json:"name"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
}
