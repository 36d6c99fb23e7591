package registration

import (
	"reflect"
	"testing"
)

func TestToggleLanguageAddAndRemove(t *testing.T) {
	d := NewDraft()

	d.ToggleLanguage("tagalog")
	if !reflect.DeepEqual(d.Languages, []string{"tagalog"}) {
		t.Errorf("Languages = %v, want [tagalog]", d.Languages)
	}
	if d.PreferredLanguage != "tagalog" {
		t.Errorf("PreferredLanguage = %q, want tagalog", d.PreferredLanguage)
	}

	d.ToggleLanguage("tagalog")
	if len(d.Languages) != 0 {
		t.Errorf("Languages = %v, want empty", d.Languages)
	}
	if d.PreferredLanguage != "" {
		t.Errorf("PreferredLanguage = %q, want empty", d.PreferredLanguage)
	}
}

func TestToggleLanguageSingletonForcesPreferred(t *testing.T) {
	d := NewDraft()
	d.ToggleLanguage("cebuano")
	d.ToggleLanguage("ilocano")
	d.SetPreferredLanguage("ilocano")

	// Removing down to one language must force that language as preferred.
	d.ToggleLanguage("ilocano")
	if d.PreferredLanguage != "cebuano" {
		t.Errorf("PreferredLanguage = %q, want cebuano", d.PreferredLanguage)
	}
}

func TestToggleLanguageRemovePreferredWithOthersRemaining(t *testing.T) {
	d := NewDraft()
	d.ToggleLanguage("tagalog")
	d.ToggleLanguage("cebuano")
	d.ToggleLanguage("ilocano")
	d.SetPreferredLanguage("cebuano")

	d.ToggleLanguage("cebuano")

	if d.HasLanguage("cebuano") {
		t.Error("cebuano should have been removed")
	}
	if d.PreferredLanguage != "tagalog" {
		t.Errorf("PreferredLanguage = %q, want first remaining (tagalog)", d.PreferredLanguage)
	}
}

func TestSetPreferredLanguageMustBeSelected(t *testing.T) {
	d := NewDraft()
	d.ToggleLanguage("tagalog")

	if d.SetPreferredLanguage("cebuano") {
		t.Error("SetPreferredLanguage should reject a language outside the set")
	}
	if d.PreferredLanguage != "tagalog" {
		t.Errorf("PreferredLanguage = %q, want tagalog", d.PreferredLanguage)
	}
}

func TestValidatePersonalInfo(t *testing.T) {
	tests := []struct {
		name      string
		first     string
		last      string
		languages []string
		want      bool
	}{
		{"complete", "Maria", "Santos", []string{"tagalog"}, true},
		{"missing first name", "", "Santos", []string{"tagalog"}, false},
		{"whitespace first name", "   ", "Santos", []string{"tagalog"}, false},
		{"missing last name", "Maria", "", []string{"tagalog"}, false},
		{"no languages", "Maria", "Santos", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft()
			d.FirstName = tt.first
			d.LastName = tt.last
			d.Languages = tt.languages

			if got := d.ValidatePersonalInfo(); got != tt.want {
				t.Errorf("ValidatePersonalInfo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateAccountDetailsReportsAllErrors(t *testing.T) {
	d := NewDraft()
	d.FirstName = "Maria"
	d.LastName = "Santos"
	d.Languages = []string{"tagalog"}
	d.Username = "ab"           // too short
	d.Email = "not-an-email"    // no @ and domain
	d.Password = "12345"        // too short
	d.ConfirmPassword = "54321" // mismatch

	errs := d.ValidateAccountDetails()

	for _, field := range []string{"username", "email", "password", "confirm_password"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected a validation error for %q, got %v", field, errs)
		}
	}
	if _, ok := errs["first_name"]; ok {
		t.Errorf("first_name should be valid, got %v", errs)
	}
}

func TestValidateAccountDetailsAcceptsCompleteDraft(t *testing.T) {
	d := NewDraft()
	d.FirstName = "Maria"
	d.LastName = "Santos"
	d.Languages = []string{"tagalog", "cebuano"}
	d.PreferredLanguage = "tagalog"
	d.Username = "maria_s"
	d.Email = "maria@example.com"
	d.Password = "secret123"
	d.ConfirmPassword = "secret123"

	if errs := d.ValidateAccountDetails(); len(errs) != 0 {
		t.Errorf("ValidateAccountDetails() = %v, want no errors", errs)
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tagalog", "Tagalog"},
		{"cebuano", "Cebuano"},
		{"", ""},
		{"x", "X"},
	}

	for _, tt := range tests {
		if got := Capitalize(tt.in); got != tt.want {
			t.Errorf("Capitalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
