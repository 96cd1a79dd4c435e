package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"president@riverside-club.org", true},
		{"ana.silva+clubhub@example.com", true},
		{"treasurer@north.region.example.org", true},
		{"ops@intranet", true},

		{"", false},
		{"  ", false},
		{"riverside-club.org", false},
		{"president@", false},
		{"@riverside-club.org", false},
		{".ana@example.com", false},
		{"ana.@example.com", false},
		{"ana..silva@example.com", false},
		{"ana@example..com", false},
		{"Ana Silva <ana@example.com>", false},
		{"ana silva@example.com", false},
		{"ana@riverside club.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestValidate_EmailRule(t *testing.T) {
	type signIn struct {
		Email string `json:"email" validate:"required,max=254,email" label:"Email"`
	}

	tests := []struct {
		email     string
		wantFirst string
	}{
		{"member@example.com", ""},
		{"", "Email is required."},
		{"member..x@example.com", "A valid email address is required."},
		{"Member <member@example.com>", "A valid email address is required."},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			res := Validate(signIn{Email: tt.email})
			if res.First() != tt.wantFirst {
				t.Errorf("First() = %q, want %q", res.First(), tt.wantFirst)
			}
		})
	}
}
