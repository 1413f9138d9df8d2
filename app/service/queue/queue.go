package queue

import (
	"log/slog"

	"github.com/hyperfocist/ValleyTalk/app/service/history"
	"github.com/samber/do"
)

const bufferSize = 256

var _ do.Shutdownable = (*Service)(nil)

// Service buffers incoming game events so that history writes never block
// the caller. Dropped events are logged, not fatal: history is a memory
// aid, not a ledger.
type Service struct {
	queue chan GameEvent
}

// GameEvent is one world occurrence destined for a character's history.
type GameEvent struct {
	Npc   string
	Time  history.Time
	Event history.Event
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		queue: make(chan GameEvent, bufferSize),
	}, nil
}

func (s *Service) Add(npc string, t history.Time, ev history.Event) {
	defer func() {
		if r := recover(); r != nil {

		}
	}()

	select {
	case s.queue <- GameEvent{npc, t, ev}:
	default:
		slog.Warn("event queue is full", slog.String("npc", npc))
	}
}

func (s *Service) Channel() <-chan GameEvent {
	return s.queue
}

func (s *Service) Shutdown() error {
	close(s.queue)

	return nil
}
