package server

import (
	"log"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/mohammad-safakhou/ragchat/internal/index"
	"github.com/mohammad-safakhou/ragchat/internal/memory"
)

// sweeper is implemented by memory backends that need explicit idle
// session eviction. The redis backend relies on key TTLs instead.
type sweeper interface {
	SweepIdle(ttl time.Duration) int
}

// Janitor runs the periodic maintenance loops: idle session sweep and
// index autosave.
type Janitor struct {
	Index        *index.Index
	Memory       memory.Store
	MemoryTTL    time.Duration
	SweepCron    string
	AutosaveCron string
	Stop         chan struct{}

	lastSweep time.Time
	lastSave  time.Time
}

func (j *Janitor) Start() {
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-j.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				j.tick()
			}
		}
	}()
}

func (j *Janitor) tick() {
	logger := log.New(log.Writer(), "[JANITOR] ", log.LstdFlags)

	if sw, ok := j.Memory.(sweeper); ok && j.MemoryTTL > 0 {
		if isDue(j.SweepCron, j.lastSweep) {
			j.lastSweep = time.Now()
			if removed := sw.SweepIdle(j.MemoryTTL); removed > 0 {
				logger.Printf("swept %d idle sessions", removed)
			}
		}
	}

	if j.Index != nil && isDue(j.AutosaveCron, j.lastSave) {
		j.lastSave = time.Now()
		if err := j.Index.Save(); err != nil {
			logger.Printf("autosave index: %v", err)
		}
	}
}

// isDue determines whether a job scheduled by cronSpec should run now
// given its last run time. Supports "@daily", "@hourly" and standard
// 5-field cron expressions; invalid specs fall back to @daily.
func isDue(cronSpec string, last time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		return last.IsZero() || now.Sub(last) >= 24*time.Hour
	case "@hourly":
		return last.IsZero() || now.Sub(last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return last.IsZero() || now.Sub(last) >= 24*time.Hour
		}
		if last.IsZero() {
			return true
		}
		return !expr.Next(last).After(now)
	}
}
