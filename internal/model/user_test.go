package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{raw: "ACTIVATE", want: StatusActivate},
		{raw: "INACTIVATE", want: StatusInactivate},
		{raw: "DELETED", want: StatusDeleted},
		{raw: "  DELETED ", want: StatusDeleted},
		{raw: "activate", wantErr: true}, // case-sensitive
		{raw: "", wantErr: true},
		{raw: "ARCHIVED", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseStatus(%q) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Errorf("%q.Valid() = false, want true", s)
		}
	}
	if Status("").Valid() {
		t.Error(`Status("").Valid() = true, want false`)
	}
}

// TestUserJSONOmitsPasswordHash guards the json:"-" tag on PasswordHash.
func TestUserJSONOmitsPasswordHash(t *testing.T) {
	u := User{ID: 1, Username: "u1", PasswordHash: "$2a$04$secret", Status: StatusActivate}

	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Contains(string(b), "secret") || strings.Contains(string(b), "password") {
		t.Errorf("encoded user leaks the password hash: %s", b)
	}
}
