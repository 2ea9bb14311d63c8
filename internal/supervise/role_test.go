package supervise

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "build", want: RoleBuild},
		{in: "test", want: RoleTest},
		{in: "format", want: RoleFormat},
		{in: "fmt", want: RoleFormat},
		{in: "lint", want: RoleLint},
		{in: "clippy", want: RoleLint},
		{in: "deploy", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRole(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoleRoundTrip(t *testing.T) {
	for _, r := range Roles {
		got, err := ParseRole(r.String())
		if err != nil {
			t.Errorf("ParseRole(%q): %v", r.String(), err)
			continue
		}
		if got != r {
			t.Errorf("round trip %v -> %q -> %v", r, r.String(), got)
		}
	}
}
