package reviews

import "time"

type ReviewResponse struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tourId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	UserPhoto string    `json:"userPhoto,omitempty"`
	Review    string    `json:"review"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToReviewResponse(r *Review) ReviewResponse {
	resp := ReviewResponse{
		ID:        r.ID.String(),
		TourID:    r.TourID.String(),
		UserID:    r.UserID.String(),
		Review:    r.Review,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
	if r.User != nil {
		resp.UserName = r.User.Name
		resp.UserPhoto = r.User.Photo
	}
	return resp
}

func ToReviewResponses(list []Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(list))
	for i := range list {
		out = append(out, ToReviewResponse(&list[i]))
	}
	return out
}
