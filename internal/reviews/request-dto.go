package reviews

type CreateReviewRequest struct {
	TourID string `json:"tourId" validate:"required,uuid"`
	Review string `json:"review" validate:"required,min=1,max=2000"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}
