package accounts

import (
	"time"

	"github.com/notesafe/notesafe/internal/validation"
)

// User is the stored account. JSON names match users.json.
type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	DisplayUsername string     `json:"display_username"`
	FirstName       string     `json:"first_name"`
	MiddleName      string     `json:"middle_name"`
	LastName        string     `json:"last_name"`
	DOB             string     `json:"dob"`
	Age             int        `json:"age"`
	Contact         string     `json:"contact"`
	Province        string     `json:"province"`
	City            string     `json:"city"`
	Barangay        string     `json:"barangay"`
	Zipcode         string     `json:"zipcode"`
	Street          string     `json:"street"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"password"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	LastLogin       *time.Time `json:"last_login"`
	IsActive        bool       `json:"is_active"`
	LoginAttempts   int        `json:"login_attempts"`
	FailedAttempts  int        `json:"failed_attempts,omitempty"`
	LockoutUntil    int64      `json:"lockout_until,omitempty"`
}

// DisplayName is the first name, else the display username, else the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.DisplayUsername != "":
		return u.DisplayUsername
	default:
		return u.Username
	}
}

// PublicUser is a user record without credentials or counters.
type PublicUser struct {
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	FirstName   string     `json:"first_name"`
	MiddleName  string     `json:"middle_name"`
	LastName    string     `json:"last_name"`
	DOB         string     `json:"dob"`
	Age         int        `json:"age"`
	Contact     string     `json:"contact"`
	Province    string     `json:"province"`
	City        string     `json:"city"`
	Barangay    string     `json:"barangay"`
	Zipcode     string     `json:"zipcode"`
	Street      string     `json:"street"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		Username:    u.Username,
		DisplayName: u.DisplayName(),
		FirstName:   u.FirstName,
		MiddleName:  u.MiddleName,
		LastName:    u.LastName,
		DOB:         u.DOB,
		Age:         u.Age,
		Contact:     u.Contact,
		Province:    u.Province,
		City:        u.City,
		Barangay:    u.Barangay,
		Zipcode:     u.Zipcode,
		Street:      u.Street,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// PendingEdit is a validated profile change waiting for OTP confirmation.
type PendingEdit struct {
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	DOB        string `json:"dob"`
	Age        int    `json:"age"`
	Contact    string `json:"contact"`
	Province   string `json:"province"`
	City       string `json:"city"`
	Barangay   string `json:"barangay"`
	Zipcode    string `json:"zipcode"`
	Street     string `json:"street"`
	Email      string `json:"email"`
}

// NewPendingEdit builds a pending edit from a checked profile form.
func NewPendingEdit(p validation.Profile, d validation.Derived) PendingEdit {
	return PendingEdit{
		FirstName:  p.FirstName,
		MiddleName: p.MiddleName,
		LastName:   p.LastName,
		DOB:        p.DOB,
		Age:        d.Age,
		Contact:    d.Contact,
		Province:   p.Province,
		City:       p.City,
		Barangay:   p.Barangay,
		Zipcode:    p.Zipcode,
		Street:     p.Street,
		Email:      p.Email,
	}
}

// Apply merges the edit into u and stamps UpdatedAt.
func (e PendingEdit) Apply(u *User, now time.Time) {
	u.FirstName = e.FirstName
	u.MiddleName = e.MiddleName
	u.LastName = e.LastName
	u.DOB = e.DOB
	u.Age = e.Age
	u.Contact = e.Contact
	u.Province = e.Province
	u.City = e.City
	u.Barangay = e.Barangay
	u.Zipcode = e.Zipcode
	u.Street = e.Street
	u.Email = e.Email
	stamp := now.UTC()
	u.UpdatedAt = &stamp
}

// Field names a column that must be unique among active users.
type Field string

const (
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
	FieldContact  Field = "contact"
)
