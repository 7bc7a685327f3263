package profile

import "testing"

func TestDefaultsValidate(t *testing.T) {
	t.Parallel()
	ps := Defaults()
	if len(ps) != 2 || ps[0].ID != "sora" || ps[1].ID != "sorajs" {
		t.Fatalf("unexpected defaults: %+v", ps)
	}
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			t.Fatalf("profile %s invalid: %v", p.ID, err)
		}
	}
}

func TestValidateRejectsIncomplete(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		edit func(p *Profile)
	}{
		{name: "missing id", edit: func(p *Profile) { p.ID = "" }},
		{name: "missing url", edit: func(p *Profile) { p.URL = "" }},
		{name: "missing blocks", edit: func(p *Profile) { p.Blocks = "" }},
		{name: "missing section notes", edit: func(p *Profile) { p.Sections.Notes = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Sora()
			tt.edit(&p)
			if err := p.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()
	if got := SoraJS().DisplayName(); got != "Sora JavaScript SDK" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := (Profile{ID: "x"}).DisplayName(); got != "x" {
		t.Fatalf("DisplayName fallback = %q", got)
	}
}
