package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/standup/pkg/httpx"
)

func submitBody(t *testing.T, token string, answers ...map[string]any) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"token":   token,
		"answers": answers,
	})
	require.NoError(t, err)
	return body
}

func postJSON(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) httpx.ErrorResponse {
	t.Helper()

	var e httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestSubmissionMetadata(t *testing.T) {
	env := newTestEnv(t, mondayNineNY.Add(time.Hour))
	cfg, member, inst := env.seedStandup(t, mondayNineNY)

	token, _, err := env.Tokens.Issue(context.Background(), inst.ID, member.ID, member.PlatformUserID, cfg.OrgID)
	require.NoError(t, err)

	resp, err := http.Get(env.Server.URL + "/v1/submissions?token=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view SubmissionView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Equal(t, "2025-03-10", view.TargetDate)
	require.Equal(t, []string{"Yesterday?", "Today?", "Blockers?"}, view.Questions)
	require.False(t, view.AlreadySubmitted)

	deadline, err := time.Parse(time.RFC3339, view.Deadline)
	require.NoError(t, err)
	require.Equal(t, mondayNineNY.Add(24*time.Hour), deadline.UTC())
}

func TestSubmissionMetadataRejectsBadToken(t *testing.T) {
	env := newTestEnv(t, mondayNineNY)

	resp, err := http.Get(env.Server.URL + "/v1/submissions?token=garbage")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid_token", decodeError(t, resp).Error)
}

func TestSubmitRecordsAnswers(t *testing.T) {
	env := newTestEnv(t, mondayNineNY.Add(time.Hour))
	cfg, member, inst := env.seedStandup(t, mondayNineNY)

	token, _, err := env.Tokens.Issue(context.Background(), inst.ID, member.ID, member.PlatformUserID, cfg.OrgID)
	require.NoError(t, err)

	body := submitBody(t, token,
		map[string]any{"question_index": 0, "text": "Shipped the importer."},
		map[string]any{"question_index": 1, "text": "Reviews."},
		map[string]any{"question_index": 2, "text": "None."},
	)

	resp := postJSON(t, env.Server.URL+"/v1/submissions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ack SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	require.Equal(t, 3, ack.AnswerCount)

	// A second submission with the same token is refused.
	resp = postJSON(t, env.Server.URL+"/v1/submissions", body)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "already_submitted", decodeError(t, resp).Error)

	// The metadata view now reports the recorded response.
	metaResp, err := http.Get(env.Server.URL + "/v1/submissions?token=" + token)
	require.NoError(t, err)
	defer metaResp.Body.Close()

	var view SubmissionView
	require.NoError(t, json.NewDecoder(metaResp.Body).Decode(&view))
	require.True(t, view.AlreadySubmitted)
}

func TestSubmitTypedRejections(t *testing.T) {
	env := newTestEnv(t, mondayNineNY.Add(time.Hour))
	cfg, member, inst := env.seedStandup(t, mondayNineNY)

	token, _, err := env.Tokens.Issue(context.Background(), inst.ID, member.ID, member.PlatformUserID, cfg.OrgID)
	require.NoError(t, err)

	t.Run("bad question index", func(t *testing.T) {
		body := submitBody(t, token, map[string]any{"question_index": 7, "text": "?"})
		resp := postJSON(t, env.Server.URL+"/v1/submissions", body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "bad_question_index", decodeError(t, resp).Error)
	})

	t.Run("empty answer set", func(t *testing.T) {
		body := submitBody(t, token)
		resp := postJSON(t, env.Server.URL+"/v1/submissions", body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_request", decodeError(t, resp).Error)
	})

	t.Run("malformed json", func(t *testing.T) {
		resp := postJSON(t, env.Server.URL+"/v1/submissions", []byte(`{`))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		body := submitBody(t, "", map[string]any{"question_index": 0, "text": "hi"})
		resp := postJSON(t, env.Server.URL+"/v1/submissions", body)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSubmitAfterWindowClosed(t *testing.T) {
	env := newTestEnv(t, mondayNineNY.Add(25*time.Hour))
	cfg, member, inst := env.seedStandup(t, mondayNineNY)

	token, _, err := env.Tokens.Issue(context.Background(), inst.ID, member.ID, member.PlatformUserID, cfg.OrgID)
	require.NoError(t, err)

	// Token validation already rejects a closed window, so the surface
	// answer is the opaque 401 rather than a window_closed conflict.
	body := submitBody(t, token, map[string]any{"question_index": 0, "text": "late"})
	resp := postJSON(t, env.Server.URL+"/v1/submissions", body)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid_token", decodeError(t, resp).Error)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, mondayNineNY)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := http.Get(env.Server.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var health HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		require.Equal(t, "ok", health.Status)
	}
}
