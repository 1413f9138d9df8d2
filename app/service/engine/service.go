package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperfocist/ValleyTalk/app/service/character"
	"github.com/hyperfocist/ValleyTalk/app/service/history"
	"github.com/hyperfocist/ValleyTalk/app/service/queue"
	"github.com/samber/do"
)

// Service drains the event queue into per-character histories. Running it
// on a single goroutine keeps every append ordered with respect to the
// overlap cleanup that precedes it.
type Service struct {
	characterSvc *character.Service
	queueSvc     *queue.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		characterSvc: do.MustInvoke[*character.Service](di),
		queueSvc:     do.MustInvoke[*queue.Service](di),
	}, nil
}

func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.queueSvc.Channel():
			if !ok {
				return
			}

			start := time.Now()
			if err := s.apply(ev); err != nil {
				slog.Warn("could not record game event",
					"npc", ev.Npc,
					"kind", ev.Event.Kind.String(),
					"error", err)
				continue
			}

			slog.Debug("recorded game event",
				"npc", ev.Npc,
				"kind", ev.Event.Kind.String(),
				"duration", time.Since(start))
		}
	}
}

func (s *Service) apply(ev queue.GameEvent) error {
	char, err := s.characterSvc.Get(ev.Npc)
	if err != nil {
		return err
	}

	log := char.History
	switch ev.Event.Kind {
	case history.KindDialogue:
		// The game re-reports the current dialogue while its box is open.
		if log.MatchesLastDialogue(ev.Event.Lines) {
			return nil
		}
	case history.KindOverheard:
		// A character mid-conversation is not eavesdropping on others.
		if log.SpokeJustNow(ev.Time) {
			return nil
		}
	case history.KindEventDialogue:
		log.RemoveOverlappingEvent(ev.Event.Participants, ev.Event.Lines)
	case history.KindConversation:
		log.RemoveOverlappingConversation(ev.Event.Turns)
	}

	log.Append(ev.Time, ev.Event)
	return nil
}
