package normalize

import "testing"

func TestLowercasingNormalizers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"email mixed case", Email, "  Ana.Silva@Riverside-Club.ORG ", "ana.silva@riverside-club.org"},
		{"email blank", Email, " \t", ""},
		{"status", Status, " Approved", "approved"},
		{"status pending", Status, "PENDING\n", "pending"},
		{"role", Role, "  President ", "president"},
		{"role national", Role, "NATIONAL", "national"},
		{"role blank", Role, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryParam_KeepsCase(t *testing.T) {
	if got := QueryParam("  LoginSuccess "); got != "LoginSuccess" {
		t.Errorf("QueryParam = %q, want %q", got, "LoginSuccess")
	}
}

func TestClubID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"65a1f0c2e4b0a1b2c3d4e5f6", "65a1f0c2e4b0a1b2c3d4e5f6"},
		{" 65a1f0c2e4b0a1b2c3d4e5f6 ", "65a1f0c2e4b0a1b2c3d4e5f6"},
		{"all", ""},
		{" All ", ""},
		{"ALL", ""},
		{"", ""},
		{"allclubs", "allclubs"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ClubID(tt.in); got != tt.want {
				t.Errorf("ClubID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
