package naming

import (
	"strings"
	"testing"
)

func TestValidateProjectName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{name: "valid", in: "my-project"},
		{name: "single char", in: "x"},
		{name: "empty", in: "", wantErr: "must not be empty"},
		{name: "uppercase", in: "Demo", wantErr: "invalid project name"},
		{name: "leading dash", in: "-demo", wantErr: "invalid project name"},
		{name: "too long", in: strings.Repeat("a", 33), wantErr: "exceeds 32"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateProjectName(tt.in)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Fatalf("error = %v, want nil", err)
			case tt.wantErr != "" && err == nil:
				t.Fatalf("error = nil, want containing %q", tt.wantErr)
			case tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr):
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRoleName(t *testing.T) {
	t.Parallel()

	if err := ValidateRoleName("models"); err != nil {
		t.Fatalf("valid role rejected: %v", err)
	}
	if err := ValidateRoleName("With Space"); err == nil {
		t.Fatalf("invalid role accepted")
	}
}
