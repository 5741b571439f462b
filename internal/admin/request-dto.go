package admin

type CreatePartnerRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	Photo       string `json:"photo" validate:"omitempty,url"`
}
