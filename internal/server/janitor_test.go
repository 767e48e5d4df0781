package server

import (
	"testing"
	"time"
)

func TestIsDueHourly(t *testing.T) {
	if !isDue("@hourly", time.Time{}) {
		t.Fatalf("never-run job should be due")
	}
	if isDue("@hourly", time.Now().Add(-30*time.Minute)) {
		t.Fatalf("job run 30m ago should not be due")
	}
	if !isDue("@hourly", time.Now().Add(-2*time.Hour)) {
		t.Fatalf("job run 2h ago should be due")
	}
}

func TestIsDueDaily(t *testing.T) {
	if isDue("@daily", time.Now().Add(-time.Hour)) {
		t.Fatalf("job run 1h ago should not be due daily")
	}
	if !isDue("@daily", time.Now().Add(-25*time.Hour)) {
		t.Fatalf("job run 25h ago should be due daily")
	}
}

func TestIsDueCronExpression(t *testing.T) {
	// every 5 minutes
	if !isDue("*/5 * * * *", time.Now().Add(-10*time.Minute)) {
		t.Fatalf("expired cron schedule should be due")
	}
	if isDue("*/5 * * * *", time.Now()) {
		t.Fatalf("just-run cron schedule should not be due")
	}
}

func TestIsDueInvalidSpecFallsBackToDaily(t *testing.T) {
	if isDue("not a cron", time.Now().Add(-time.Hour)) {
		t.Fatalf("invalid spec should behave as daily")
	}
	if !isDue("not a cron", time.Time{}) {
		t.Fatalf("never-run job should be due even with invalid spec")
	}
}
