package tours

type CreateTourRequest struct {
	Name          string   `json:"name" validate:"required,min=10,max=40"`
	Summary       string   `json:"summary" validate:"required,max=255"`
	Description   string   `json:"description" validate:"required"`
	Duration      int      `json:"duration" validate:"required,min=2"`
	MaxGroupSize  int      `json:"maxGroupSize" validate:"required,min=2,max=100"`
	Price         int64    `json:"price" validate:"min=0"`
	PriceDiscount *int     `json:"priceDiscount" validate:"omitempty,min=0,max=100"`
	ImageCover    string   `json:"imageCover" validate:"omitempty,url"`
	Images        []string `json:"images" validate:"omitempty,dive,url"`
	StartDates    []string `json:"startDates" validate:"required,min=1,dive,required"`
}

// UpdateTourRequest is a partial update; nil fields are left unchanged.
// A non-nil StartDates replaces the whole schedule.
type UpdateTourRequest struct {
	Name          *string   `json:"name" validate:"omitempty,min=10,max=40"`
	Summary       *string   `json:"summary" validate:"omitempty,max=255"`
	Description   *string   `json:"description"`
	Duration      *int      `json:"duration" validate:"omitempty,min=2"`
	MaxGroupSize  *int      `json:"maxGroupSize" validate:"omitempty,min=2,max=100"`
	Price         *int64    `json:"price" validate:"omitempty,min=0"`
	PriceDiscount *int      `json:"priceDiscount" validate:"omitempty,min=0,max=100"`
	ImageCover    *string   `json:"imageCover" validate:"omitempty,url"`
	Images        []string  `json:"images" validate:"omitempty,dive,url"`
	StartDates    *[]string `json:"startDates" validate:"omitempty,min=1,dive,required"`
}

type ReviewTourRequest struct {
	Decision string `json:"decision" validate:"required,oneof=active inactive ACTIVE INACTIVE"`
}
