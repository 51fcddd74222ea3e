// Package config reads engine configuration from the environment.
// An optional .env file is loaded first for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/stilistico/salonsched/internal/model"
)

func String(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func RequiredString(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func Port(key, fallback string) (string, error) {
	v := String(key, fallback)
	p, err := strconv.Atoi(v)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("%s must be a valid TCP port (got %q)", key, v)
	}
	return v, nil
}

func Int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Reminders is the validated reminder configuration: when the daily
// cycle fires, in which timezone, and how phones are normalized.
type Reminders struct {
	FireTime           model.MinuteOfDay
	Location           *time.Location
	LeadDays           int
	DefaultCountryCode string
	Workers            int
}

// LoadReminders fails fast on a bad timezone or fire time; a scheduler
// armed against the wrong location is worse than a refused start.
func LoadReminders() (Reminders, error) {
	_ = godotenv.Load()

	tzName, err := RequiredString("SALON_TIMEZONE")
	if err != nil {
		return Reminders{}, err
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Reminders{}, fmt.Errorf("SALON_TIMEZONE: %w", err)
	}

	fireTime, err := model.ParseMinuteOfDay(String("REMINDER_FIRE_TIME", "09:00"))
	if err != nil {
		return Reminders{}, fmt.Errorf("REMINDER_FIRE_TIME: %w", err)
	}

	cc, err := RequiredString("DEFAULT_COUNTRY_CODE")
	if err != nil {
		return Reminders{}, err
	}

	leadDays := Int("REMINDER_LEAD_DAYS", 1)
	if leadDays < 0 {
		return Reminders{}, fmt.Errorf("REMINDER_LEAD_DAYS must not be negative")
	}

	workers := Int("DISPATCH_WORKERS", 4)
	if workers < 1 {
		workers = 1
	}

	return Reminders{
		FireTime:           fireTime,
		Location:           loc,
		LeadDays:           leadDays,
		DefaultCountryCode: cc,
		Workers:            workers,
	}, nil
}
