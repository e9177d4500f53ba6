// Package tuning centralizes every simulation design constant: need rates,
// decision weights, relationship gates, decay, and milestone thresholds.
// Defaults live in Default; a YAML file can override any subset.
package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the full threshold table.
type Tuning struct {
	Needs         Needs         `yaml:"needs"`
	Psyche        Psyche        `yaml:"psyche"`
	Decisions     Decisions     `yaml:"decisions"`
	Relationships Relationships `yaml:"relationships"`
	Milestones    Milestones    `yaml:"milestones"`

	MemoryCapacity  int `yaml:"memory_capacity"`
	HistoryCapacity int `yaml:"history_capacity"`
}

// NeedRates carries one value per need.
type NeedRates struct {
	Hunger  float64 `yaml:"hunger"`
	Energy  float64 `yaml:"energy"`
	Hygiene float64 `yaml:"hygiene"`
	Fun     float64 `yaml:"fun"`
	Social  float64 `yaml:"social"`
	Bladder float64 `yaml:"bladder"`
	Libido  float64 `yaml:"libido"`
}

type Needs struct {
	// Points per simulated hour. Satisfaction needs lose them, urgency needs gain them.
	DecayPerHour NeedRates `yaml:"decay_per_hour"`
	// Points per hour an action aimed at the need gives back.
	RestorePerHour NeedRates `yaml:"restore_per_hour"`

	// Energy drains faster while hunger-satisfaction is below HungryBelow.
	HungryBelow        float64 `yaml:"hungry_below"`
	HungryEnergyFactor float64 `yaml:"hungry_energy_factor"`
}

type Psyche struct {
	LonelySocialBelow     float64 `yaml:"lonely_social_below"`
	LonelinessRisePerHour float64 `yaml:"loneliness_rise_per_hour"`
	LonelinessFallPerHour float64 `yaml:"loneliness_fall_per_hour"`
	StressRisePerHour     float64 `yaml:"stress_rise_per_hour"`
	StressFallPerHour     float64 `yaml:"stress_fall_per_hour"`
	StressDriftPerHour    float64 `yaml:"stress_drift_per_hour"`
	UrgentBelow           float64 `yaml:"urgent_below"`
}

type Decisions struct {
	TraitHigh        float64 `yaml:"trait_high"`
	TraitLow         float64 `yaml:"trait_low"`
	UrgencyThreshold float64 `yaml:"urgency_threshold"`
	UrgencyBoost     float64 `yaml:"urgency_boost"`
	MinWeight        float64 `yaml:"min_weight"`
	WinterOutdoor    float64 `yaml:"winter_outdoor"`
	SummerOutdoor    float64 `yaml:"summer_outdoor"`
}

// Gate is the scalar minimum a relationship status requires. Zero means the
// scalar is not part of the gate.
type Gate struct {
	Friendship float64 `yaml:"friendship"`
	Romance    float64 `yaml:"romance"`
}

type Gates struct {
	Acquaintance     Gate `yaml:"acquaintance"`
	Friend           Gate `yaml:"friend"`
	CloseFriend      Gate `yaml:"close_friend"`
	BestFriend       Gate `yaml:"best_friend"`
	RomanticInterest Gate `yaml:"romantic_interest"`
	Dating           Gate `yaml:"dating"`
	Committed        Gate `yaml:"committed"`
	Married          Gate `yaml:"married"`
}

// Delta is the scalar change one interaction applies.
type Delta struct {
	Friendship float64 `yaml:"friendship"`
	Romance    float64 `yaml:"romance"`
	Trust      float64 `yaml:"trust"`
	Respect    float64 `yaml:"respect"`
}

type Relationships struct {
	Gates            Gates   `yaml:"gates"`
	HysteresisMargin float64 `yaml:"hysteresis_margin"`

	DecayPerDay       float64 `yaml:"decay_per_day"`
	RomanceDecayRatio float64 `yaml:"romance_decay_ratio"`
	DecayGraceDays    float64 `yaml:"decay_grace_days"`

	InitialTrust   float64 `yaml:"initial_trust"`
	InitialRespect float64 `yaml:"initial_respect"`
	FamilyBond     Delta   `yaml:"family_bond"`

	EnemyFriendshipBelow float64 `yaml:"enemy_friendship_below"`
	EnemyTrustBelow      float64 `yaml:"enemy_trust_below"`
	EnemyClearFriendship float64 `yaml:"enemy_clear_friendship"`

	StrengthCutoff float64          `yaml:"strength_cutoff"`
	Interactions   map[string]Delta `yaml:"interactions"`
}

type Milestones struct {
	FriendshipFormedAt float64 `yaml:"friendship_formed_at"`
	RomanceStartedAt   float64 `yaml:"romance_started_at"`
	BrokenFrom         float64 `yaml:"broken_from"`
	BrokenBelow        float64 `yaml:"broken_below"`
	RearmMargin        float64 `yaml:"rearm_margin"`
	NeedCriticalBelow  float64 `yaml:"need_critical_below"`
	NeedRecoveredAbove float64 `yaml:"need_recovered_above"`
}

// Default returns the built-in table.
func Default() *Tuning {
	return &Tuning{
		Needs: Needs{
			DecayPerHour: NeedRates{
				Hunger: 4, Energy: 4, Hygiene: 1.6, Fun: 1.2, Social: 0.8,
				Bladder: 3, Libido: 2.1,
			},
			RestorePerHour: NeedRates{
				Hunger: 40, Energy: 12, Hygiene: 50, Fun: 15, Social: 12,
				Bladder: 80, Libido: 30,
			},
			HungryBelow:        20,
			HungryEnergyFactor: 1.5,
		},
		Psyche: Psyche{
			LonelySocialBelow:     30,
			LonelinessRisePerHour: 2,
			LonelinessFallPerHour: 3,
			StressRisePerHour:     2,
			StressFallPerHour:     1.5,
			StressDriftPerHour:    0.5,
			UrgentBelow:           20,
		},
		Decisions: Decisions{
			TraitHigh:        65,
			TraitLow:         35,
			UrgencyThreshold: 30,
			UrgencyBoost:     3,
			MinWeight:        0.01,
			WinterOutdoor:    0.7,
			SummerOutdoor:    1.2,
		},
		Relationships: Relationships{
			Gates: Gates{
				Acquaintance:     Gate{Friendship: 20},
				Friend:           Gate{Friendship: 40},
				CloseFriend:      Gate{Friendship: 70},
				BestFriend:       Gate{Friendship: 85},
				RomanticInterest: Gate{Romance: 30},
				Dating:           Gate{Friendship: 30, Romance: 40},
				Committed:        Gate{Friendship: 60, Romance: 70},
				Married:          Gate{Friendship: 70, Romance: 85},
			},
			HysteresisMargin:     5,
			DecayPerDay:          0.5,
			RomanceDecayRatio:    0.7,
			DecayGraceDays:       1,
			InitialTrust:         50,
			InitialRespect:       50,
			FamilyBond:           Delta{Friendship: 50, Trust: 70, Respect: 60},
			EnemyFriendshipBelow: 10,
			EnemyTrustBelow:      20,
			EnemyClearFriendship: 30,
			StrengthCutoff:       20,
			Interactions: map[string]Delta{
				"talk":      {Friendship: 2},
				"deep_talk": {Friendship: 5, Trust: 3},
				"flirt":     {Romance: 5},
				"date":      {Friendship: 5, Romance: 10},
				"kiss":      {Romance: 15},
				"gift":      {Friendship: 10, Romance: 5},
				"help":      {Friendship: 4, Trust: 2, Respect: 3},
				"conflict":  {Friendship: -15, Trust: -20, Respect: -5},
				"propose":   {Romance: 5, Trust: 5},
			},
		},
		Milestones: Milestones{
			FriendshipFormedAt: 70,
			RomanceStartedAt:   80,
			BrokenFrom:         50,
			BrokenBelow:        20,
			RearmMargin:        5,
			NeedCriticalBelow:  10,
			NeedRecoveredAbove: 30,
		},
		MemoryCapacity:  50,
		HistoryCapacity: 20,
	}
}

// Load reads a YAML file and overlays it on the defaults.
func Load(path string) (*Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects tables that would break the gate ordering or the
// hysteresis guarantees.
func (t *Tuning) Validate() error {
	var errs []error

	g := t.Relationships.Gates
	ladder := []float64{
		g.Acquaintance.Friendship, g.Friend.Friendship,
		g.CloseFriend.Friendship, g.BestFriend.Friendship,
	}
	for i := 1; i < len(ladder); i++ {
		if ladder[i] <= ladder[i-1] {
			errs = append(errs, fmt.Errorf("friendship gates must increase (%v)", ladder))
			break
		}
	}
	if g.Dating.Romance < g.RomanticInterest.Romance ||
		g.Committed.Romance < g.Dating.Romance ||
		g.Married.Romance < g.Committed.Romance {
		errs = append(errs, errors.New("romance gates must not decrease"))
	}

	m := t.Relationships.HysteresisMargin
	if m < 0 {
		errs = append(errs, errors.New("hysteresis_margin must be >= 0"))
	}
	if m >= g.Acquaintance.Friendship {
		errs = append(errs, errors.New("hysteresis_margin must be below the acquaintance gate"))
	}
	if t.Relationships.DecayPerDay < 0 {
		errs = append(errs, errors.New("decay_per_day must be >= 0"))
	}
	if t.Milestones.RearmMargin < 0 {
		errs = append(errs, errors.New("rearm_margin must be >= 0"))
	}
	if t.MemoryCapacity <= 0 || t.HistoryCapacity <= 0 {
		errs = append(errs, errors.New("memory_capacity and history_capacity must be positive"))
	}
	if t.Decisions.MinWeight <= 0 {
		errs = append(errs, errors.New("min_weight must be positive"))
	}
	if t.Decisions.TraitLow >= t.Decisions.TraitHigh {
		errs = append(errs, errors.New("trait_low must be below trait_high"))
	}

	for name, rate := range map[string]NeedRates{
		"decay_per_hour":   t.Needs.DecayPerHour,
		"restore_per_hour": t.Needs.RestorePerHour,
	} {
		for _, v := range []float64{rate.Hunger, rate.Energy, rate.Hygiene, rate.Fun, rate.Social, rate.Bladder, rate.Libido} {
			if v < 0 {
				errs = append(errs, fmt.Errorf("%s values must be >= 0", name))
				break
			}
		}
	}

	return errors.Join(errs...)
}

// Interaction returns the delta for an interaction name.
func (t *Tuning) Interaction(name string) (Delta, bool) {
	d, ok := t.Relationships.Interactions[name]
	return d, ok
}
