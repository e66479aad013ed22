package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestUserID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want UserID
	}{
		{"number", `{"id":1}`, "1"},
		{"large number", `{"id":9007199254740993}`, "9007199254740993"},
		{"string", `{"id":"u-42"}`, "u-42"},
		{"null", `{"id":null}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id Identity
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if id.ID != tt.want {
				t.Errorf("ID = %q, want %q", id.ID, tt.want)
			}
		})
	}

	var id Identity
	if err := json.Unmarshal([]byte(`{"id":true}`), &id); err == nil {
		t.Error("expected error for boolean id")
	}
}

func TestIdentity_EncodesIDAsString(t *testing.T) {
	data, err := json.Marshal(Identity{ID: "7", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if raw["id"] != "7" {
		t.Errorf("id = %#v, want \"7\"", raw["id"])
	}
}

func TestIdentity_DisplayName(t *testing.T) {
	tests := []struct {
		id   Identity
		want string
	}{
		{Identity{Email: "a@x.com", FirstName: "Ann", LastName: "Lee"}, "Ann Lee"},
		{Identity{Email: "a@x.com", FirstName: "Ann"}, "Ann"},
		{Identity{Email: "a@x.com"}, "a@x.com"},
	}
	for _, tt := range tests {
		if got := tt.id.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

func TestSession_Validate(t *testing.T) {
	complete := &Session{AccessToken: "A1", RefreshToken: "R1", Identity: Identity{Email: "a@x.com"}}
	if err := complete.Validate(); err != nil {
		t.Errorf("Validate() on complete session = %v", err)
	}

	partials := []*Session{
		{RefreshToken: "R1", Identity: Identity{Email: "a@x.com"}},
		{AccessToken: "A1", Identity: Identity{Email: "a@x.com"}},
		{AccessToken: "A1", RefreshToken: "R1"},
	}
	for i, s := range partials {
		if err := s.Validate(); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("partial %d: Validate() = %v, want ErrInvalidArgument", i, err)
		}
	}
}

func TestSession_RecordRoundTrip(t *testing.T) {
	s := &Session{
		AccessToken:  "A1",
		RefreshToken: "R1",
		Identity:     Identity{ID: "1", Email: "a@x.com", FirstName: "A"},
	}
	back := s.Record().Session()
	if *back != *s {
		t.Errorf("Record().Session() = %+v, want %+v", back, s)
	}
}

func TestSession_CloneIsIndependent(t *testing.T) {
	s := &Session{AccessToken: "A1", RefreshToken: "R1", Identity: Identity{Email: "a@x.com"}}
	c := s.Clone()
	c.AccessToken = "A2"
	c.Identity.FirstName = "Changed"

	if s.AccessToken != "A1" || s.Identity.FirstName != "" {
		t.Error("Clone() shares state with the original")
	}
	if (*Session)(nil).Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}

func TestProfilePatch_Validate(t *testing.T) {
	if err := (ProfilePatch{FirstName: "A"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if err := (ProfilePatch{FirstName: "  ", LastName: ""}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Validate() = %v, want ErrValidation", err)
	}
}

func TestProfileUpdateResult_Kind(t *testing.T) {
	id := &Identity{Email: "a@x.com", FirstName: "B"}
	only := IdentityOnlyResult(id)
	if only.Kind() != ProfileIdentityOnly {
		t.Errorf("Kind() = %v, want identity_only", only.Kind())
	}
	if only.Identity().FirstName != "B" {
		t.Errorf("Identity().FirstName = %q", only.Identity().FirstName)
	}

	rotated := RotatedResult(&Session{AccessToken: "A2", RefreshToken: "R2", Identity: *id})
	if rotated.Kind() != ProfileRotated {
		t.Errorf("Kind() = %v, want rotated", rotated.Kind())
	}
	if rotated.IdentityOnly != nil {
		t.Error("rotated result must not carry IdentityOnly")
	}
	if rotated.Kind().String() != "rotated" {
		t.Errorf("String() = %q", rotated.Kind().String())
	}
}

func TestNameFromEmail(t *testing.T) {
	tests := []struct {
		email       string
		first, last string
	}{
		{"jane.doe@x.com", "Jane", "Doe"},
		{"alice@x.com", "Alice", ""},
		{"bob_smith@x.com", "Bob", "Smith"},
		{"carol+news@x.com", "Carol", ""},
		{"@x.com", "", ""},
		{"noatsign", "Noatsign", ""},
		{"élise@x.com", "Élise", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			first, last := NameFromEmail(tt.email)
			if first != tt.first || last != tt.last {
				t.Errorf("NameFromEmail(%q) = (%q, %q), want (%q, %q)", tt.email, first, last, tt.first, tt.last)
			}
		})
	}
}
