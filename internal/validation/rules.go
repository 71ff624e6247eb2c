package validation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules holds the list-driven parts of the engine. Everything else is fixed.
type Rules struct {
	EmailDomains      []string `yaml:"email_domains"`
	DisposableDomains []string `yaml:"disposable_domains"`
	GenericUsernames  []string `yaml:"generic_usernames"`
	FakeContacts      []string `yaml:"fake_contacts"`
	CommonPasswords   []string `yaml:"common_passwords"`
}

func DefaultRules() Rules {
	return Rules{
		EmailDomains: []string{
			"gmail.com", "yahoo.com", "outlook.com", "hotmail.com", "icloud.com",
		},
		DisposableDomains: []string{
			"tempmail.com", "throwaway.com", "fake.com", "example.com", "mailinator.com",
			"guerrillamail.com", "10minutemail.com", "trashmail.com", "yopmail.com",
			"temp-mail.org", "fakeinbox.com", "sharklasers.com", "getairmail.com",
		},
		GenericUsernames: []string{
			"user", "admin", "test", "demo", "guest", "username", "account",
			"root", "system", "manager", "operator", "support", "help", "info",
		},
		FakeContacts: []string{
			"09123456789", "09987654321", "09111111111", "09000000000",
		},
		CommonPasswords: []string{
			"password", "12345678", "qwerty", "admin", "welcome", "password123",
		},
	}
}

// LoadRules overlays the lists found in a YAML file on top of DefaultRules.
// Lists missing from the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules file: %w", err)
	}
	var overlay Rules
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return rules, fmt.Errorf("parse rules file: %w", err)
	}
	if len(overlay.EmailDomains) > 0 {
		rules.EmailDomains = overlay.EmailDomains
	}
	if len(overlay.DisposableDomains) > 0 {
		rules.DisposableDomains = overlay.DisposableDomains
	}
	if len(overlay.GenericUsernames) > 0 {
		rules.GenericUsernames = overlay.GenericUsernames
	}
	if len(overlay.FakeContacts) > 0 {
		rules.FakeContacts = overlay.FakeContacts
	}
	if len(overlay.CommonPasswords) > 0 {
		rules.CommonPasswords = overlay.CommonPasswords
	}
	return rules, nil
}

type set map[string]struct{}

func newSet(values []string) set {
	s := make(set, len(values))
	for _, v := range values {
		s[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[strings.ToLower(v)]
	return ok
}
