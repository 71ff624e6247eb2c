// Package validation holds the field rules applied to registration, profile
// edits and password resets. Checks are pure, ordered and fail fast: the
// first violated rule is reported and nothing after it runs.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Rejection is returned for the first rule a form violates.
type Rejection struct {
	Field  string `json:"field"`
	Reason string `json:"error"`
}

func (r *Rejection) Error() string { return r.Reason }

func Reject(field, reason string) error {
	return &Rejection{Field: field, Reason: reason}
}

type rule struct {
	failed func(string) bool
	reason string
}

func check(field, value string, rules []rule) error {
	for _, r := range rules {
		if r.failed(value) {
			return Reject(field, r.reason)
		}
	}
	return nil
}

var (
	emailPattern       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameCharset    = regexp.MustCompile(`^[a-zA-Z0-9_@.+\-]+$`)
	addressInvalidChar = regexp.MustCompile(`[^a-zA-Z0-9\s\-\.\(\)]`)
	passwordSymbol     = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Engine evaluates fields against a fixed rule order and the configured lists.
type Engine struct {
	emailDomains      set
	disposableDomains set
	genericUsernames  set
	fakeContacts      set
	commonPasswords   set
}

func New(rules Rules) *Engine {
	return &Engine{
		emailDomains:      newSet(rules.EmailDomains),
		disposableDomains: newSet(rules.DisposableDomains),
		genericUsernames:  newSet(rules.GenericUsernames),
		fakeContacts:      newSet(rules.FakeContacts),
		commonPasswords:   newSet(rules.CommonPasswords),
	}
}

// Name checks a personal name. Empty values pass; required-ness is checked
// by the form groups.
func (e *Engine) Name(field, label, value string, minLen bool) error {
	if value == "" {
		return nil
	}
	compact := strings.ReplaceAll(value, " ", "")
	return check(field, value, []rule{
		{func(v string) bool { return !onlyLetters(compact) }, label + " must contain only letters and spaces."},
		{func(v string) bool { return utf8.RuneCountInString(v) > 50 }, label + " too long (max 50 characters)"},
		{func(v string) bool { return minLen && utf8.RuneCountInString(v) < 2 }, label + " must be at least 2 characters long."},
		{func(string) bool { return hasRun(compact, 4) }, label + " cannot contain repeated characters like 'aaaa' or 'gggg'."},
		{func(string) bool { return utf8.RuneCountInString(compact) == 1 }, label + " must be more than one character."},
		{func(string) bool { return distinct(strings.ToLower(compact)) < 2 }, label + " must contain at least 2 different letters."},
		{func(v string) bool { return strings.Contains(v, "  ") }, label + " cannot contain consecutive spaces."},
		{func(v string) bool { return v != strings.TrimSpace(v) }, label + " cannot have leading or trailing spaces."},
	})
}

// DateOfBirth parses YYYY-MM-DD and returns the age in whole years at now.
func (e *Engine) DateOfBirth(value string, now time.Time) (int, error) {
	return e.dateOfBirth(value, now, "You must be at least 13 years old to register.")
}

func (e *Engine) dateOfBirth(value string, now time.Time, tooYoung string) (int, error) {
	birth, err := time.ParseInLocation("2006-1-2", value, now.Location())
	if err != nil {
		return 0, Reject("dob", "Invalid date format. Please use YYYY-MM-DD format.")
	}
	age := Age(birth, now)
	switch {
	case age < 13:
		return 0, Reject("dob", tooYoung)
	case age > 80:
		return 0, Reject("dob", "Maximum age limit is 80 years.")
	case birth.After(now):
		return 0, Reject("dob", "Date of birth cannot be in the future.")
	}
	return age, nil
}

// Age counts full years between birth and now.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// Contact strips spaces and hyphens, validates, and returns the clean number.
func (e *Engine) Contact(value string) (string, error) {
	clean := strings.NewReplacer(" ", "", "-", "").Replace(value)
	err := check("contact", clean, []rule{
		{func(v string) bool { return !onlyDigits(v) }, "Contact number must contain only digits."},
		{func(v string) bool { return len(v) != 11 }, "Contact number must be exactly 11 digits (starting with 09)."},
		{func(v string) bool { return !strings.HasPrefix(v, "09") }, "Contact number must start with 09."},
		{func(v string) bool { return hasRun(v, 10) }, "Contact number cannot be all the same digit."},
		{e.fakeContacts.has, "Please enter a valid contact number."},
	})
	if err != nil {
		return "", err
	}
	return clean, nil
}

func (e *Engine) Username(value string) error {
	return check("username", value, []rule{
		{func(v string) bool { return utf8.RuneCountInString(v) < 3 }, "Username must be at least 3 characters long."},
		{func(v string) bool { return utf8.RuneCountInString(v) > 30 }, "Username too long (max 30 characters)"},
		{func(v string) bool { return !usernameCharset.MatchString(v) }, "Username can only contain letters, numbers, underscores, @, ., +, and hyphens."},
		{func(v string) bool { return hasRun(v, 4) }, "Username cannot contain repeated characters like 'aaaa' or '1111'."},
		{ascendingLetters, "Username cannot contain sequential letters like 'abc' or 'xyz'."},
		{ascendingDigits, "Username cannot contain sequential numbers like '123' or '456'."},
		{e.genericUsernames.has, "Please choose a more unique username."},
		{func(v string) bool { return strings.HasPrefix(v, "_") || strings.HasSuffix(v, "_") }, "Username cannot start or end with an underscore."},
	})
}

// Email expects a trimmed, lowercased address.
func (e *Engine) Email(value string) error {
	local, domain, _ := strings.Cut(value, "@")
	labels := strings.Split(domain, ".")
	tld := labels[len(labels)-1]

	return check("email", value, []rule{
		{func(v string) bool { return !emailPattern.MatchString(v) }, "Please enter a valid email address."},
		{func(v string) bool { return strings.Count(v, "@") != 1 }, "Invalid email format. Please use format: example@domain.com"},
		{func(string) bool { return local == "" || utf8.RuneCountInString(local) > 64 }, "Invalid email local part."},
		{func(string) bool {
			return domain == "" || !strings.Contains(domain, ".") ||
				strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".")
		}, "Invalid email domain."},
		{func(string) bool { return len(labels) < 2 }, "Invalid email domain. Domain must have a proper extension (e.g., .com, .org)."},
		{func(string) bool { return len(tld) < 2 }, "Invalid email domain extension. Domain extension must be at least 2 characters (e.g., .com, .org)."},
		{func(v string) bool { return utf8.RuneCountInString(v) > 100 }, "Email address too long (max 100 characters)"},
		{func(string) bool { return !e.emailDomains.has(domain) }, "Please use a common email domain (gmail, yahoo, outlook, hotmail, icloud)."},
		{func(string) bool { return e.disposableDomains.has(domain) }, "Please use a permanent email address."},
	})
}

// Password applies the registration password rules. The confirmation is
// compared before anything else.
func (e *Engine) Password(value, confirm, username, email string) error {
	if value != confirm {
		return Reject("confirm", "Passwords do not match.")
	}
	localPart, _, _ := strings.Cut(strings.ToLower(email), "@")
	lower := strings.ToLower(value)

	return check("password", value, []rule{
		{func(v string) bool { return utf8.RuneCountInString(v) < 8 }, "Password must be at least 8 characters long."},
		{func(v string) bool { return !strings.ContainsFunc(v, isASCIIUpper) }, "Password must contain at least one uppercase letter."},
		{func(v string) bool { return !strings.ContainsFunc(v, isASCIILower) }, "Password must contain at least one lowercase letter."},
		{func(v string) bool { return !strings.ContainsFunc(v, unicode.IsDigit) }, "Password must contain at least one number."},
		{func(v string) bool { return !passwordSymbol.MatchString(v) }, "Password must contain at least one special character."},
		{func(v string) bool { return utf8.RuneCountInString(v) > 128 }, "Password too long (max 128 characters)"},
		{func(string) bool { return e.commonPasswords.has(lower) }, "Password is too common. Please choose a stronger password."},
		{func(string) bool { return username != "" && strings.Contains(lower, strings.ToLower(username)) }, "Password should not contain your username."},
		{func(string) bool { return localPart != "" && strings.Contains(lower, localPart) }, "Password should not contain your email address."},
		{func(v string) bool { return hasRun(v, 3) }, "Password should not contain repeated characters."},
	})
}

// ResetPassword is the single rule applied when a password is replaced
// through an OTP flow.
func (e *Engine) ResetPassword(value string) error {
	strong := utf8.RuneCountInString(value) >= 8 &&
		strings.ContainsFunc(value, isASCIILower) &&
		strings.ContainsFunc(value, isASCIIUpper) &&
		strings.ContainsFunc(value, unicode.IsDigit) &&
		strings.ContainsFunc(value, isNonWord) &&
		!strings.Contains(value, "\n")
	if !strong {
		return Reject("new_password", "Password must be at least 8 chars and include uppercase, lowercase, number and symbol.")
	}
	return nil
}

// Address checks one address component. Required-ness is up to the caller.
func (e *Engine) Address(field, label, value string) error {
	return check(field, value, []rule{
		{addressInvalidChar.MatchString, label + " contains invalid characters."},
		{func(v string) bool { return utf8.RuneCountInString(v) > 100 }, label + " too long (max 100 characters)"},
		{func(v string) bool { return hasRun(strings.ReplaceAll(v, " ", ""), 6) }, label + " contains invalid pattern."},
	})
}

func (e *Engine) Zip(value string) error {
	return check("zipcode", value, []rule{
		{func(v string) bool { return !onlyDigits(v) }, "ZIP code must contain only numbers."},
		{func(v string) bool { return len(v) != 4 }, "ZIP code must be exactly 4 digits."},
	})
}

func required(fields []string, values map[string]string) error {
	for _, f := range fields {
		if strings.TrimSpace(values[f]) == "" {
			return Reject(f, fmt.Sprintf("%s is required.", title(f)))
		}
	}
	return nil
}

// title renders a form key the way users see it: "first_name" -> "First Name".
func title(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
