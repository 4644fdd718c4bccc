// Package rules holds every tunable number of a battle so tests and config
// can vary them without touching engine code.
package rules

import (
	"errors"
	"fmt"
)

type Rules struct {
	FieldWidth  float64 `yaml:"field_width" mapstructure:"field_width"`
	FieldHeight float64 `yaml:"field_height" mapstructure:"field_height"`

	SoldierSize   float64 `yaml:"soldier_size" mapstructure:"soldier_size"`
	HealthKitSize float64 `yaml:"health_kit_size" mapstructure:"health_kit_size"`
	TrenchWidth   float64 `yaml:"trench_width" mapstructure:"trench_width"`
	// TrenchMargin is the gap between a trench and the vertical midline.
	TrenchMargin  float64 `yaml:"trench_margin" mapstructure:"trench_margin"`
	WallThickness float64 `yaml:"wall_thickness" mapstructure:"wall_thickness"`
	WallMinLength float64 `yaml:"wall_min_length" mapstructure:"wall_min_length"`
	WallMaxLength float64 `yaml:"wall_max_length" mapstructure:"wall_max_length"`

	BulletSpeed  float64 `yaml:"bullet_speed" mapstructure:"bullet_speed"`
	BulletRadius float64 `yaml:"bullet_radius" mapstructure:"bullet_radius"`

	StartHealth   int `yaml:"start_health" mapstructure:"start_health"`
	ArmoredHealth int `yaml:"armored_health" mapstructure:"armored_health"`

	// SquadRadius is how close a regular must be to its general to follow a move.
	SquadRadius       float64 `yaml:"squad_radius" mapstructure:"squad_radius"`
	NudgeRange        float64 `yaml:"nudge_range" mapstructure:"nudge_range"`
	NudgeAttempts     int     `yaml:"nudge_attempts" mapstructure:"nudge_attempts"`
	PlacementAttempts int     `yaml:"placement_attempts" mapstructure:"placement_attempts"`

	GeneralsPerTeam int `yaml:"generals_per_team" mapstructure:"generals_per_team"`
	RegularsPerTeam int `yaml:"regulars_per_team" mapstructure:"regulars_per_team"`
	Walls           int `yaml:"walls" mapstructure:"walls"`
	HealthKits      int `yaml:"health_kits" mapstructure:"health_kits"`
}

// Default returns the stock battlefield: 95% of a 1852x634 window.
func Default() Rules {
	return Rules{
		FieldWidth:  1759,
		FieldHeight: 602,

		SoldierSize:   25.6,
		HealthKitSize: 19.2,
		TrenchWidth:   120,
		TrenchMargin:  25,
		WallThickness: 19.2,
		WallMinLength: 72,
		WallMaxLength: 96,

		BulletSpeed:  300,
		BulletRadius: 3,

		StartHealth:   2,
		ArmoredHealth: 3,

		SquadRadius:       100,
		NudgeRange:        10,
		NudgeAttempts:     50,
		PlacementAttempts: 1000,

		GeneralsPerTeam: 2,
		RegularsPerTeam: 10,
		Walls:           5,
		HealthKits:      10,
	}
}

// Validate rejects values the engine cannot work with.
func (r Rules) Validate() error {
	var errs []error
	positive := map[string]float64{
		"field_width":     r.FieldWidth,
		"field_height":    r.FieldHeight,
		"soldier_size":    r.SoldierSize,
		"health_kit_size": r.HealthKitSize,
		"trench_width":    r.TrenchWidth,
		"wall_thickness":  r.WallThickness,
		"wall_min_length": r.WallMinLength,
		"bullet_speed":    r.BulletSpeed,
	}
	for name, v := range positive {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %v", name, v))
		}
	}
	if r.BulletRadius < 0 {
		errs = append(errs, fmt.Errorf("bullet_radius must be >= 0, got %v", r.BulletRadius))
	}
	if r.WallMaxLength < r.WallMinLength {
		errs = append(errs, fmt.Errorf("wall_max_length %v < wall_min_length %v", r.WallMaxLength, r.WallMinLength))
	}
	if r.StartHealth <= 0 {
		errs = append(errs, fmt.Errorf("start_health must be > 0, got %d", r.StartHealth))
	}
	if r.NudgeAttempts <= 0 || r.PlacementAttempts <= 0 {
		errs = append(errs, errors.New("nudge_attempts and placement_attempts must be > 0"))
	}
	if r.GeneralsPerTeam+r.RegularsPerTeam <= 0 {
		errs = append(errs, errors.New("each team needs at least one soldier"))
	}
	if r.Walls < 0 || r.HealthKits < 0 {
		errs = append(errs, errors.New("walls and health_kits must be >= 0"))
	}
	// Both trenches must fit between the quarter lines and the midline margin.
	if r.FieldWidth/4+r.TrenchWidth/2 > r.FieldWidth/2-r.TrenchMargin-r.TrenchWidth/2 {
		errs = append(errs, fmt.Errorf("field_width %v too narrow for trench_width %v", r.FieldWidth, r.TrenchWidth))
	}
	return errors.Join(errs...)
}

// MidX is the vertical midline.
func (r Rules) MidX() float64 { return r.FieldWidth / 2 }

// LeftQuarter and RightQuarter bound the two team deployment zones.
func (r Rules) LeftQuarter() float64  { return r.FieldWidth / 4 }
func (r Rules) RightQuarter() float64 { return r.FieldWidth * 3 / 4 }
