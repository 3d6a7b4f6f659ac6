package jobs

import (
	"context"
	"log"
)

// SessionEvictor removes idle chat sessions.
type SessionEvictor interface {
	EvictIdle(ctx context.Context) (int, error)
}

// SessionJanitor evicts idle sessions each time the worker ticks.
type SessionJanitor struct {
	sessions SessionEvictor
}

func NewSessionJanitor(sessions SessionEvictor) *SessionJanitor {
	return &SessionJanitor{sessions: sessions}
}

// ProcessJobs implements JobProcessor.
func (j *SessionJanitor) ProcessJobs(ctx context.Context) error {
	n, err := j.sessions.EvictIdle(ctx)
	if n > 0 {
		log.Printf("session janitor: evicted %d idle sessions", n)
	}
	return err
}
