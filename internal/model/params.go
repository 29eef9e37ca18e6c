package model

import "fmt"

// Params holds the physical and discretization constants of the pushbot:
// a cart-pole between two one-sided walls that the pole tip can push
// against. All residual functions take these explicitly; there are no
// package-level constants.
type Params struct {
	Dt    float64 `yaml:"dt"`
	Steps int     `yaml:"steps"`

	CartMass   float64 `yaml:"cart_mass"`
	PoleMass   float64 `yaml:"pole_mass"`
	PoleLength float64 `yaml:"pole_length"`
	Gravity    float64 `yaml:"gravity"`

	// Wall 1 sits at +WallOffset1, wall 2 at -WallOffset2, both measured
	// from the cart origin. Stiffnesses soften the contact complementarity.
	WallOffset1    float64 `yaml:"wall_offset_1"`
	WallOffset2    float64 `yaml:"wall_offset_2"`
	WallStiffness1 float64 `yaml:"wall_stiffness_1"`
	WallStiffness2 float64 `yaml:"wall_stiffness_2"`
}

func Default() Params {
	return Params{
		Dt:             0.02,
		Steps:          100,
		CartMass:       1.0,
		PoleMass:       0.1,
		PoleLength:     0.8,
		Gravity:        9.8,
		WallOffset1:    1.0,
		WallOffset2:    1.0,
		WallStiffness1: 200.0,
		WallStiffness2: 200.0,
	}
}

func (p Params) Validate() error {
	if p.Dt <= 0 {
		return fmt.Errorf("model: dt must be positive, got %g", p.Dt)
	}
	if p.Steps < 2 {
		return fmt.Errorf("model: need at least 2 timesteps, got %d", p.Steps)
	}
	if p.CartMass <= 0 || p.PoleMass <= 0 {
		return fmt.Errorf("model: masses must be positive, got mc=%g mp=%g", p.CartMass, p.PoleMass)
	}
	if p.PoleLength <= 0 {
		return fmt.Errorf("model: pole length must be positive, got %g", p.PoleLength)
	}
	if p.Gravity <= 0 {
		return fmt.Errorf("model: gravity must be positive, got %g", p.Gravity)
	}
	if p.WallOffset1 <= 0 || p.WallOffset2 <= 0 {
		return fmt.Errorf("model: wall offsets must be positive, got d1=%g d2=%g", p.WallOffset1, p.WallOffset2)
	}
	if p.WallStiffness1 <= 0 || p.WallStiffness2 <= 0 {
		return fmt.Errorf("model: wall stiffnesses must be positive, got k1=%g k2=%g", p.WallStiffness1, p.WallStiffness2)
	}
	return nil
}

// Horizon time covered by the trajectory.
func (p Params) Duration() float64 {
	return float64(p.Steps) * p.Dt
}
