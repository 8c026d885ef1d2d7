package domain

import (
	"strings"
	"time"
)

// MinPrice is the lowest price a sweet may be listed at.
const MinPrice = 1

// Sweet is a catalog item.
type Sweet struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	ImageURLs []string  `json:"imageUrls"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InStock reports whether at least one unit is available.
func (s *Sweet) InStock() bool {
	return s.Quantity > 0
}

// SweetPatch holds the fields of a partial update. Nil fields are left
// untouched; a non-nil ImageURLs replaces the whole list.
type SweetPatch struct {
	Name      *string
	Category  *string
	Price     *float64
	Quantity  *int
	ImageURLs []string
}

// Empty reports whether the patch would change nothing.
func (p SweetPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Quantity == nil && p.ImageURLs == nil
}

// Apply copies the present fields onto s.
func (p SweetPatch) Apply(s *Sweet) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	if p.ImageURLs != nil {
		s.ImageURLs = p.ImageURLs
	}
}

// ValidateSweet trims name and category in place and checks the catalog
// constraints. Zero quantity is valid: a sold-out sweet stays listed.
func ValidateSweet(s *Sweet) error {
	s.Name = strings.TrimSpace(s.Name)
	s.Category = strings.TrimSpace(s.Category)
	if s.Name == "" || s.Category == "" {
		return ErrMissingSweetFields
	}
	if s.Price < MinPrice {
		return ErrInvalidPrice
	}
	if s.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// ValidateSweetPatch trims and checks only the fields present in p.
func ValidateSweetPatch(p *SweetPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ErrEmptyName
		}
		p.Name = &name
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		if category == "" {
			return ErrEmptyCategory
		}
		p.Category = &category
	}
	if p.Price != nil && *p.Price < MinPrice {
		return ErrInvalidPrice
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}
