package validation

import (
	"strings"
	"time"
)

// Registration is the sign-up form as submitted.
type Registration struct {
	FirstName  string `json:"first_name" form:"first_name"`
	MiddleName string `json:"middle_name" form:"middle_name"`
	LastName   string `json:"last_name" form:"last_name"`
	DOB        string `json:"dob" form:"dob"`
	Contact    string `json:"contact" form:"contact"`
	Province   string `json:"province" form:"province"`
	City       string `json:"city" form:"city"`
	Barangay   string `json:"barangay" form:"barangay"`
	Zipcode    string `json:"zipcode" form:"zipcode"`
	Street     string `json:"street" form:"street"`
	Username   string `json:"username" form:"username"`
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	Confirm    string `json:"confirm" form:"confirm"`
}

// Normalized trims every text field and lowercases the email. Passwords are
// kept verbatim.
func (r Registration) Normalized() Registration {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.MiddleName = strings.TrimSpace(r.MiddleName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.DOB = strings.TrimSpace(r.DOB)
	r.Contact = strings.TrimSpace(r.Contact)
	r.Province = strings.TrimSpace(r.Province)
	r.City = strings.TrimSpace(r.City)
	r.Barangay = strings.TrimSpace(r.Barangay)
	r.Zipcode = strings.TrimSpace(r.Zipcode)
	r.Street = strings.TrimSpace(r.Street)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return r
}

// Profile is the editable subset of a user record.
type Profile struct {
	FirstName  string `json:"first_name" form:"first_name"`
	MiddleName string `json:"middle_name" form:"middle_name"`
	LastName   string `json:"last_name" form:"last_name"`
	DOB        string `json:"dob" form:"dob"`
	Contact    string `json:"contact" form:"contact"`
	Province   string `json:"province" form:"province"`
	City       string `json:"city" form:"city"`
	Barangay   string `json:"barangay" form:"barangay"`
	Zipcode    string `json:"zipcode" form:"zipcode"`
	Street     string `json:"street" form:"street"`
	Email      string `json:"email" form:"email"`
}

func (p Profile) Normalized() Profile {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.MiddleName = strings.TrimSpace(p.MiddleName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.DOB = strings.TrimSpace(p.DOB)
	p.Contact = strings.TrimSpace(p.Contact)
	p.Province = strings.TrimSpace(p.Province)
	p.City = strings.TrimSpace(p.City)
	p.Barangay = strings.TrimSpace(p.Barangay)
	p.Zipcode = strings.TrimSpace(p.Zipcode)
	p.Street = strings.TrimSpace(p.Street)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	return p
}

// Derived carries values computed while checking a form.
type Derived struct {
	Age     int
	Contact string
}

// CheckRegistration runs the registration group on a normalized form.
// Uniqueness against stored accounts is not part of it.
func (e *Engine) CheckRegistration(f Registration, now time.Time) (Derived, error) {
	var d Derived
	err := required(
		[]string{"first_name", "last_name", "dob", "contact", "username", "email", "password", "confirm", "province", "city", "barangay"},
		map[string]string{
			"first_name": f.FirstName, "last_name": f.LastName, "dob": f.DOB, "contact": f.Contact,
			"username": f.Username, "email": f.Email, "password": f.Password, "confirm": f.Confirm,
			"province": f.Province, "city": f.City, "barangay": f.Barangay,
		},
	)
	if err != nil {
		return d, err
	}
	if err := e.names(f.FirstName, f.LastName, f.MiddleName); err != nil {
		return d, err
	}
	if d.Age, err = e.DateOfBirth(f.DOB, now); err != nil {
		return d, err
	}
	if d.Contact, err = e.Contact(f.Contact); err != nil {
		return d, err
	}
	if err := e.Username(f.Username); err != nil {
		return d, err
	}
	if err := e.Email(f.Email); err != nil {
		return d, err
	}
	if err := e.Password(f.Password, f.Confirm, f.Username, f.Email); err != nil {
		return d, err
	}
	if err := e.address(f.Province, f.City, f.Barangay, f.Street); err != nil {
		return d, err
	}
	if f.Zipcode != "" {
		if err := e.Zip(f.Zipcode); err != nil {
			return d, err
		}
	}
	return d, nil
}

// CheckProfile runs the profile-edit group on a normalized form. Uniqueness
// excluding the editing user is checked by the caller.
func (e *Engine) CheckProfile(f Profile, now time.Time) (Derived, error) {
	var d Derived
	err := required(
		[]string{"first_name", "last_name", "dob", "contact", "province", "city", "barangay", "email"},
		map[string]string{
			"first_name": f.FirstName, "last_name": f.LastName, "dob": f.DOB, "contact": f.Contact,
			"province": f.Province, "city": f.City, "barangay": f.Barangay, "email": f.Email,
		},
	)
	if err != nil {
		return d, err
	}
	if err := e.names(f.FirstName, f.LastName, f.MiddleName); err != nil {
		return d, err
	}
	if d.Age, err = e.dateOfBirth(f.DOB, now, "You must be at least 13 years old."); err != nil {
		return d, err
	}
	if d.Contact, err = e.Contact(f.Contact); err != nil {
		return d, err
	}
	if err := e.Email(f.Email); err != nil {
		return d, err
	}
	if err := e.address(f.Province, f.City, f.Barangay, f.Street); err != nil {
		return d, err
	}
	if f.Zipcode != "" {
		if err := e.Zip(f.Zipcode); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (e *Engine) names(first, last, middle string) error {
	if err := e.Name("first_name", "First name", first, true); err != nil {
		return err
	}
	if err := e.Name("last_name", "Last name", last, true); err != nil {
		return err
	}
	return e.Name("middle_name", "Middle name", middle, false)
}

func (e *Engine) address(province, city, barangay, street string) error {
	if err := e.Address("province", "Province", province); err != nil {
		return err
	}
	if err := e.Address("city", "City/Municipality", city); err != nil {
		return err
	}
	if err := e.Address("barangay", "Barangay", barangay); err != nil {
		return err
	}
	if street != "" {
		return e.Address("street", "Street", street)
	}
	return nil
}
