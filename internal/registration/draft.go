package registration

import (
	"regexp"
	"strings"
)

// User roles selectable in the wizard. Evaluator sign-up is reserved and
// currently rejected at selection time.
const (
	RoleAnnotator = "annotator"
	RoleEvaluator = "evaluator"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Draft is the transient, server-held registration form. It exists only while
// the wizard is open and is discarded on success or abandonment.
type Draft struct {
	Email             string   `json:"email"`
	Username          string   `json:"username"`
	Password          string   `json:"-"`
	ConfirmPassword   string   `json:"-"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	UserType          string   `json:"user_type"`
	Languages         []string `json:"languages"`
	PreferredLanguage string   `json:"preferred_language"`
}

func NewDraft() Draft {
	return Draft{UserType: RoleAnnotator}
}

// HasLanguage reports whether lang is in the proficient-language set.
func (d *Draft) HasLanguage(lang string) bool {
	for _, l := range d.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// ToggleLanguage adds or removes a language from the proficient set while
// keeping the preferred language consistent: a singleton set forces the
// preferred language, removing the current preferred reassigns it to the first
// remaining language, and an empty set clears it.
func (d *Draft) ToggleLanguage(lang string) {
	removing := d.HasLanguage(lang)

	if removing {
		kept := d.Languages[:0]
		for _, l := range d.Languages {
			if l != lang {
				kept = append(kept, l)
			}
		}
		d.Languages = kept
	} else {
		d.Languages = append(d.Languages, lang)
	}

	switch {
	case len(d.Languages) == 1:
		d.PreferredLanguage = d.Languages[0]
	case len(d.Languages) > 1 && removing && lang == d.PreferredLanguage:
		d.PreferredLanguage = d.Languages[0]
	case len(d.Languages) == 0:
		d.PreferredLanguage = ""
	}
}

// SetPreferredLanguage picks the primary language. It must already be in the
// proficient set.
func (d *Draft) SetPreferredLanguage(lang string) bool {
	if !d.HasLanguage(lang) {
		return false
	}
	d.PreferredLanguage = lang
	return true
}

// ValidatePersonalInfo guards the step 2 → 3 transition.
func (d *Draft) ValidatePersonalInfo() bool {
	return strings.TrimSpace(d.FirstName) != "" &&
		strings.TrimSpace(d.LastName) != "" &&
		len(d.Languages) > 0
}

// ValidateAccountDetails checks the full form and reports every violated
// field at once so the caller can show per-field messages.
func (d *Draft) ValidateAccountDetails() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(d.FirstName) == "" {
		errors["first_name"] = "First name is required"
	}
	if strings.TrimSpace(d.LastName) == "" {
		errors["last_name"] = "Last name is required"
	}

	if strings.TrimSpace(d.Username) == "" {
		errors["username"] = "Username is required"
	} else if len(d.Username) < 3 {
		errors["username"] = "Username must be at least 3 characters long"
	}

	if strings.TrimSpace(d.Email) == "" {
		errors["email"] = "Email is required"
	} else if !emailPattern.MatchString(d.Email) {
		errors["email"] = "Email is invalid"
	}

	if d.Password == "" {
		errors["password"] = "Password is required"
	} else if len(d.Password) < 6 {
		errors["password"] = "Password must be at least 6 characters long"
	}

	if d.Password != d.ConfirmPassword {
		errors["confirm_password"] = "Passwords do not match"
	}

	if len(d.Languages) == 0 {
		errors["languages"] = "Please select at least one language"
	}

	return errors
}

// CapitalizedLanguages returns the language set with each name capitalized,
// matching how languages are stored in the question bank.
func (d *Draft) CapitalizedLanguages() []string {
	out := make([]string, len(d.Languages))
	for i, lang := range d.Languages {
		out[i] = Capitalize(lang)
	}
	return out
}

// Capitalize upper-cases the first byte of a language identifier
// ("cebuano" → "Cebuano").
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
