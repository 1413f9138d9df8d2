package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hyperfocist/ValleyTalk/app/client/llm"
	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/hyperfocist/ValleyTalk/app/dialogue"
	"github.com/hyperfocist/ValleyTalk/app/service/character"
	"github.com/hyperfocist/ValleyTalk/app/service/generate"
	"github.com/hyperfocist/ValleyTalk/app/service/history"
	"github.com/hyperfocist/ValleyTalk/app/service/queue"
	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

// Service exposes the dialogue engine to the game client over HTTP.
type Service struct {
	cfg          *config.Config
	characterSvc *character.Service
	generateSvc  *generate.Service
	queueSvc     *queue.Service
	backend      llm.Backend

	app *fiber.App
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		cfg:          do.MustInvoke[*config.Config](di),
		characterSvc: do.MustInvoke[*character.Service](di),
		generateSvc:  do.MustInvoke[*generate.Service](di),
		queueSvc:     do.MustInvoke[*queue.Service](di),
		backend:      do.MustInvoke[llm.Backend](di),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New())

	s.app.Get("/health", s.handleHealth)
	s.app.Get("/api/stats", s.handleStats)
	s.app.Post("/api/dialogue", s.handleDialogue)
	s.app.Post("/api/events", s.handleEvent)
	s.app.Post("/api/characters/:name/conversations/clear", s.handleClearConversations)

	return s, nil
}

func (s *Service) Run(_ context.Context) {
	if err := s.app.Listen(s.cfg.Server.Listen); err != nil {
		slog.Error("http server stopped", slog.Any("error", err))
	}
}

func (s *Service) Shutdown() error {
	return s.app.Shutdown()
}

type timeBody struct {
	Year      int    `json:"year"`
	Season    string `json:"season"`
	Day       int    `json:"day"`
	TimeOfDay int    `json:"time_of_day"`
}

func (t timeBody) toTime() (history.Time, error) {
	season, ok := dialogue.ParseSeason(t.Season)
	if !ok {
		return history.Time{}, errors.New("unknown season: " + t.Season)
	}
	return history.Time{
		Year:      t.Year,
		Season:    season,
		Day:       t.Day,
		TimeOfDay: t.TimeOfDay,
	}, nil
}

type dialogueRequest struct {
	Npc         string          `json:"npc"`
	Key         string          `json:"key"`
	Time        timeBody        `json:"time"`
	Hearts      *int            `json:"hearts"`
	ChatHistory []dialogue.Turn `json:"chat_history"`
	CanGiveGift bool            `json:"can_give_gift"`
	Milestones  map[string]int  `json:"milestones"`
}

type dialogueResponse struct {
	Lines []string `json:"lines"`
}

func (s *Service) handleDialogue(c *fiber.Ctx) error {
	var req dialogueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Npc == "" {
		return fiber.NewError(fiber.StatusBadRequest, "npc is required")
	}

	now, err := req.Time.toTime()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	char, err := s.characterSvc.Get(req.Npc)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	ctx := dialogue.ParseKey(req.Key)
	if req.Hearts != nil {
		ctx.Hearts = req.Hearts
	}
	ctx.ChatHistory = req.ChatHistory
	ctx.CanGiveGift = req.CanGiveGift

	lines := s.generateSvc.Generate(c.Context(), char, ctx, now, req.Milestones)
	if len(lines) > 0 {
		s.queueSvc.Add(req.Npc, now, history.Dialogue(lines))
	}

	return c.JSON(dialogueResponse{Lines: lines})
}

type eventRequest struct {
	Npc          string          `json:"npc"`
	Time         timeBody        `json:"time"`
	Kind         string          `json:"kind"`
	Lines        []string        `json:"lines"`
	Festival     string          `json:"festival"`
	Participants []string        `json:"participants"`
	Speaker      string          `json:"speaker"`
	Turns        []dialogue.Turn `json:"turns"`
	Activity     string          `json:"activity"`
}

func (s *Service) handleEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Npc == "" {
		return fiber.NewError(fiber.StatusBadRequest, "npc is required")
	}

	at, err := req.Time.toTime()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var ev history.Event
	switch req.Kind {
	case "dialogue":
		ev = history.Dialogue(req.Lines)
	case "event":
		ev = history.EventDialogue(req.Festival, req.Participants, req.Lines)
	case "overheard":
		ev = history.Overheard(req.Speaker, req.Lines)
	case "conversation":
		ev = history.Conversation(req.Turns)
	case "activity":
		ev = history.Activity(req.Activity)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unknown event kind: "+req.Kind)
	}

	s.queueSvc.Add(req.Npc, at, ev)
	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Service) handleClearConversations(c *fiber.Ctx) error {
	char, err := s.characterSvc.Get(c.Params("name"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	char.History.ClearConversations()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) handleStats(c *fiber.Ctx) error {
	calls, promptTokens, completionTokens := s.backend.Stats().Snapshot()
	return c.JSON(fiber.Map{
		"calls":             calls,
		"prompt_tokens":     promptTokens,
		"completion_tokens": completionTokens,
	})
}

func (s *Service) handleHealth(c *fiber.Ctx) error {
	return c.SendString("ok")
}
