package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts the five standard fields, no seconds and no descriptors.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return errors.New("cron schedule must not be empty")
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("cron schedule %q: %w", schedule, err)
	}
	return nil
}

// ValidateTimezone checks an IANA zone name such as "Europe/Madrid".
func ValidateTimezone(name string) error {
	if name == "" {
		return errors.New("timezone must not be empty")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("timezone %q: %w", name, err)
	}
	return nil
}

// ValidateDuration checks min <= d <= max.
func ValidateDuration(d, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range [%v, %v]", min, max)
	}
	if d < min || d > max {
		return fmt.Errorf("duration %v must be between %v and %v", d, min, max)
	}
	return nil
}

// ValidateIntRange checks min <= v <= max.
func ValidateIntRange(v, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range [%d, %d]", min, max)
	}
	if v < min || v > max {
		return fmt.Errorf("value %d must be between %d and %d", v, min, max)
	}
	return nil
}

// ValidatePositiveDuration checks d > 0.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration %v must be positive", d)
	}
	return nil
}

// ValidateRatio accepts values in [0, 1].
func ValidateRatio(v float64) error {
	if v < 0 || v > 1 || v != v {
		return fmt.Errorf("must be between 0 and 1, got %v", v)
	}
	return nil
}
