package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperfocist/ValleyTalk/app/client/llm"
	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/hyperfocist/ValleyTalk/app/service/bank"
	"github.com/hyperfocist/ValleyTalk/app/service/character"
	"github.com/hyperfocist/ValleyTalk/app/service/generate"
	"github.com/hyperfocist/ValleyTalk/app/service/normalize"
	"github.com/hyperfocist/ValleyTalk/app/service/prompt"
	"github.com/hyperfocist/ValleyTalk/app/service/queue"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *Service {
	t.Helper()

	di := do.New()
	t.Cleanup(func() { _ = di.Shutdown() })

	do.ProvideValue(di, &config.Config{
		Server: config.Server{Listen: ":0"},
		Game:   config.Game{PlayerName: "Casey", Locale: "en", DataDir: t.TempDir()},
		LLM: config.LLM{
			Provider:                "dummy",
			QueryTimeout:            1,
			SuppressConnectionCheck: true,
		},
	})
	do.Provide(di, llm.New)
	do.Provide(di, bank.New)
	do.Provide(di, character.New)
	do.Provide(di, normalize.New)
	do.Provide(di, prompt.New)
	do.Provide(di, generate.New)
	do.Provide(di, queue.New)
	do.Provide(di, New)

	return do.MustInvoke[*Service](di)
}

func postJSON(t *testing.T, svc *Service, path string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	resp, err := svc.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDialogueEndpoint(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	resp := postJSON(t, svc, "/api/dialogue", map[string]any{
		"npc": "Pierre",
		"key": "Mon6",
		"time": map[string]any{
			"year": 1, "season": "spring", "day": 5, "time_of_day": 900,
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Lines []string `json:"lines"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Lines)
	assert.NotEmpty(t, body.Lines[0])
}

func TestDialogueEndpointRequiresNpc(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	resp := postJSON(t, svc, "/api/dialogue", map[string]any{
		"key": "Mon6",
		"time": map[string]any{
			"year": 1, "season": "spring", "day": 5, "time_of_day": 900,
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventEndpoint(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	resp := postJSON(t, svc, "/api/events", map[string]any{
		"npc":  "Pierre",
		"kind": "overheard",
		"time": map[string]any{
			"year": 1, "season": "summer", "day": 2, "time_of_day": 1200,
		},
		"speaker": "Abigail",
		"lines":   []string{"hello there"},
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestEventEndpointRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	resp := postJSON(t, svc, "/api/events", map[string]any{
		"npc":  "Pierre",
		"kind": "prophecy",
		"time": map[string]any{
			"year": 1, "season": "summer", "day": 2, "time_of_day": 1200,
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	resp, err := svc.app.Test(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "calls")
}
