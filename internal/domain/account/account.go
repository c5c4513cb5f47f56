// Package account holds the authenticated-user model and the auth store:
// token pair persistence, the cached profile, and the guest session
// identity used for cart continuity before login.
package account

import (
	"strings"
	"time"
)

// User is the cached profile of the authenticated user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// IsAdmin reports whether the user may call the admin surface.
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

// Session is the access/refresh token pair plus profile returned by the
// backend's login, register, and refresh endpoints.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// AddressInput is the create/update payload for a saved address.
type AddressInput struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault,omitempty"`
}

// Validate checks the fields a deliverable address cannot do without.
func (in AddressInput) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", in.FullName},
		{"phone", in.Phone},
		{"line1", in.Line1},
		{"city", in.City},
		{"postalCode", in.PostalCode},
		{"country", in.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ValidationError reports which address fields are missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Address is a saved address in the user's address book.
type Address struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}
