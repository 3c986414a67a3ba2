package calendar

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"MarketSentry/internal/domain/models"

	"gopkg.in/yaml.v3"
)

// Source implements EventSource from a YAML calendar file. Economic calendars
// change rarely, so a file refreshed out of band beats another vendor
// dependency here.
type Source struct {
	path string

	mu     sync.RWMutex
	events []models.MacroEvent
	loaded time.Time
	ttl    time.Duration

	now func() time.Time
}

type fileEvent struct {
	Name       string    `yaml:"name"`
	Country    string    `yaml:"country"`
	Importance string    `yaml:"importance"`
	Scheduled  time.Time `yaml:"scheduled"`
}

type calendarFile struct {
	Events []fileEvent `yaml:"events"`
}

// New creates a file-backed calendar source. The file is re-read at most once
// per minute.
func New(path string) *Source {
	return &Source{
		path: path,
		ttl:  time.Minute,
		now:  time.Now,
	}
}

func (s *Source) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read calendar: %w", err)
	}
	var f calendarFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse calendar: %w", err)
	}

	events := make([]models.MacroEvent, 0, len(f.Events))
	for _, e := range f.Events {
		events = append(events, models.MacroEvent{
			Name:       e.Name,
			Country:    e.Country,
			Importance: e.Importance,
			Scheduled:  e.Scheduled.UTC(),
		})
	}

	s.mu.Lock()
	s.events = events
	s.loaded = s.now()
	s.mu.Unlock()
	return nil
}

// Upcoming returns events scheduled inside [now-window, now+window]. Events
// just past still matter: a print released minutes ago explains a move now.
func (s *Source) Upcoming(ctx context.Context, window time.Duration) ([]models.MacroEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	stale := s.now().Sub(s.loaded) > s.ttl
	s.mu.RUnlock()
	if stale {
		if err := s.load(); err != nil {
			return nil, err
		}
	}

	now := s.now()
	lo, hi := now.Add(-window), now.Add(window)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MacroEvent
	for _, e := range s.events {
		if e.Scheduled.Before(lo) || e.Scheduled.After(hi) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
