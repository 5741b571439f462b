package tours

import "time"

type TourResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Summary         string   `json:"summary"`
	Description     string   `json:"description"`
	Duration        int      `json:"duration"`
	MaxGroupSize    int      `json:"maxGroupSize"`
	Price           int64    `json:"price"`
	PriceDiscount   *int     `json:"priceDiscount,omitempty"`
	ImageCover      string   `json:"imageCover"`
	Images          []string `json:"images"`
	Status          Status   `json:"status"`
	PartnerID       string   `json:"partnerId"`
	RatingsAverage  float64  `json:"ratingsAverage"`
	RatingsQuantity int      `json:"ratingsQuantity"`
	// YYYY-MM-DD, ascending
	StartDates []string  `json:"startDates"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type StartDatesResponse struct {
	TourID     string   `json:"tourId"`
	StartDates []string `json:"startDates"`
}

func (t *Tour) ToResponse() TourResponse {
	images := []string(t.Images)
	if images == nil {
		images = []string{}
	}

	days := t.SortedStartDates()
	startDates := make([]string, len(days))
	for i, d := range days {
		startDates[i] = FormatDay(d)
	}

	return TourResponse{
		ID:              t.ID.String(),
		Name:            t.Name,
		Slug:            t.Slug,
		Summary:         t.Summary,
		Description:     t.Description,
		Duration:        t.Duration,
		MaxGroupSize:    t.MaxGroupSize,
		Price:           t.Price,
		PriceDiscount:   t.PriceDiscount,
		ImageCover:      t.ImageCover,
		Images:          images,
		Status:          t.Status,
		PartnerID:       t.PartnerID.String(),
		RatingsAverage:  t.RatingsAverage,
		RatingsQuantity: t.RatingsQuantity,
		StartDates:      startDates,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func ToResponses(list []Tour) []TourResponse {
	out := make([]TourResponse, len(list))
	for i := range list {
		out[i] = list[i].ToResponse()
	}
	return out
}
