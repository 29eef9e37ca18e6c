package model

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero dt", func(p *Params) { p.Dt = 0 }},
		{"negative dt", func(p *Params) { p.Dt = -0.01 }},
		{"one step", func(p *Params) { p.Steps = 1 }},
		{"zero cart mass", func(p *Params) { p.CartMass = 0 }},
		{"negative pole mass", func(p *Params) { p.PoleMass = -0.1 }},
		{"zero pole length", func(p *Params) { p.PoleLength = 0 }},
		{"zero gravity", func(p *Params) { p.Gravity = 0 }},
		{"zero wall offset", func(p *Params) { p.WallOffset1 = 0 }},
		{"negative wall stiffness", func(p *Params) { p.WallStiffness2 = -200 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDuration(t *testing.T) {
	p := Default()
	want := 100 * 0.02
	if got := p.Duration(); got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}
}
