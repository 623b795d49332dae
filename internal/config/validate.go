package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidStrategy indicates an unsupported splitting strategy
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrInvalidWindow indicates an invalid cut point search window
	ErrInvalidWindow = errors.New("invalid search window")

	// ErrInvalidImbalancePolicy indicates an unsupported on_imbalance value
	ErrInvalidImbalancePolicy = errors.New("invalid imbalance policy")

	// ErrEmptyPrimary indicates a missing primary partition id
	ErrEmptyPrimary = errors.New("empty primary partition")

	// ErrInvalidRules indicates a malformed category rule table
	ErrInvalidRules = errors.New("invalid rule table")

	// ErrInvalidTargets indicates malformed depth targets
	ErrInvalidTargets = errors.New("invalid targets")
)

// Validate checks that the configuration is valid and complete. The rule
// table check mirrors the categorizer's own compile-time check so a missing
// catch-all is reported at load time, before any input is read.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateSplit(&cfg.Split); err != nil {
		errs = append(errs, err)
	}
	if err := validateRules(cfg.Rules); err != nil {
		errs = append(errs, err)
	}
	if cfg.Split.Strategy == StrategyDepthTarget {
		if err := validateTargets(cfg.Targets); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateSplit(cfg *SplitConfig) error {
	var errs []error

	switch cfg.Strategy {
	case StrategyDeclaration, StrategyDepthTarget:
	default:
		errs = append(errs, fmt.Errorf("%w: must be %q or %q, got %q",
			ErrInvalidStrategy, StrategyDeclaration, StrategyDepthTarget, cfg.Strategy))
	}

	if cfg.SearchWindow <= 0 {
		errs = append(errs, fmt.Errorf("%w: search_window must be positive, got %d", ErrInvalidWindow, cfg.SearchWindow))
	}

	// Silent fallback on imbalance is not a mode this tool has.
	if cfg.OnImbalance != "abort" {
		errs = append(errs, fmt.Errorf("%w: only \"abort\" is supported, got %q", ErrInvalidImbalancePolicy, cfg.OnImbalance))
	}

	if strings.TrimSpace(cfg.Primary) == "" {
		errs = append(errs, fmt.Errorf("%w: primary partition id is required", ErrEmptyPrimary))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateRules(rules []RuleConfig) error {
	var errs []error

	if len(rules) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one rule required", ErrInvalidRules))
	} else {
		last := rules[len(rules)-1].Pattern
		if last != "*" && last != "**" {
			errs = append(errs, fmt.Errorf("%w: last rule %q is not a catch-all", ErrInvalidRules, last))
		}
		for _, r := range rules {
			if strings.TrimSpace(r.Partition) == "" {
				errs = append(errs, fmt.Errorf("%w: rule %q has no partition id", ErrInvalidRules, r.Pattern))
			}
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateTargets(targets []TargetConfig) error {
	var errs []error

	if len(targets) == 0 {
		errs = append(errs, fmt.Errorf("%w: depth-target strategy requires at least one target", ErrInvalidTargets))
	}
	prev := -1
	for _, t := range targets {
		if t.Line < 0 {
			errs = append(errs, fmt.Errorf("%w: target line cannot be negative, got %d", ErrInvalidTargets, t.Line))
		}
		if t.Line <= prev {
			errs = append(errs, fmt.Errorf("%w: target lines must be strictly ascending", ErrInvalidTargets))
		}
		if strings.TrimSpace(t.Partition) == "" {
			errs = append(errs, fmt.Errorf("%w: target at line %d has no partition id", ErrInvalidTargets, t.Line))
		}
		prev = t.Line
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
