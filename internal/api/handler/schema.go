package handler

import (
	"mime/multipart"
	"time"

	"github.com/sweetshop/sweets-api/internal/core/domain"
)

// errorResponse documents the envelope rendered by the HTTP error handler.
type errorResponse struct {
	Message string `json:"message" example:"Sweet not found"`
}

type messageResponse struct {
	Message string `json:"message" example:"Sweet deleted successfully"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email"    example:"alice@example.com" validate:"omitempty,email"`
	Password string `json:"password" example:"s3cret"`
	Role     string `json:"role"     example:"user" enums:"user,admin"`
	Address  string `json:"address"  example:"12 Mithai Lane"`
}

type loginRequest struct {
	Email    string `json:"email"    example:"alice@example.com"`
	Password string `json:"password" example:"s3cret"`
}

// userResponse is the public projection of a user. The password hash never
// leaves the service.
type userResponse struct {
	ID       string `json:"id"                example:"665f1c2e8b3e4a0012345678"`
	Username string `json:"username"          example:"alice"`
	Email    string `json:"email"             example:"alice@example.com"`
	Role     string `json:"role"              example:"user"`
	Address  string `json:"address,omitempty" example:"12 Mithai Lane"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Address:  u.Address,
	}
}

type authResponse struct {
	Message string       `json:"message" example:"Logged in successfully"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type profileResponse struct {
	User userResponse `json:"user"`
}

// --- Sweets ---

// sweetRequest is the JSON body of create and update. Every field is a
// pointer so that absent and zero can be told apart.
type sweetRequest struct {
	Name     *string  `json:"name"     example:"Ladoo"`
	Category *string  `json:"category" example:"Indian"`
	Price    *float64 `json:"price"    example:"50"`
	Quantity *int     `json:"quantity" example:"20"`
}

// imageUpload carries the files of a multipart create or update.
type imageUpload struct {
	Images []*multipart.FileHeader `form:"images" validate:"max=10"`
}

// searchQuery holds the raw search parameters. Price bounds stay strings
// until they pass validation.
type searchQuery struct {
	Name     string `query:"name"`
	Category string `query:"category"`
	MinPrice string `query:"minPrice" validate:"omitempty,numeric"`
	MaxPrice string `query:"maxPrice" validate:"omitempty,numeric"`
}

type sweetResponse struct {
	ID        string    `json:"_id"       example:"665f1c2e8b3e4a0012345678"`
	Name      string    `json:"name"      example:"Ladoo"`
	Category  string    `json:"category"  example:"Indian"`
	Price     float64   `json:"price"     example:"50"`
	Quantity  int       `json:"quantity"  example:"20"`
	ImageURLs []string  `json:"imageUrls"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toSweetResponse(s *domain.Sweet) sweetResponse {
	urls := s.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return sweetResponse{
		ID:        s.ID,
		Name:      s.Name,
		Category:  s.Category,
		Price:     s.Price,
		Quantity:  s.Quantity,
		ImageURLs: urls,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toSweetResponses(in []*domain.Sweet) []sweetResponse {
	out := make([]sweetResponse, 0, len(in))
	for _, s := range in {
		out = append(out, toSweetResponse(s))
	}
	return out
}

// purchaseRequest accepts a number or a numeric string; anything else falls
// back to one unit.
type purchaseRequest struct {
	Quantity any `json:"quantity" swaggertype:"integer" example:"2"`
}

type restockRequest struct {
	Amount any `json:"amount" swaggertype:"integer" example:"5"`
}

type stockResponse struct {
	Message string        `json:"message" example:"Purchase successful"`
	Sweet   sweetResponse `json:"sweet"`
}
