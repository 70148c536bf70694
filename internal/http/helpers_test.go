package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-match/internal/domain"
	"persona-match/internal/matching"
	"persona-match/internal/repository"
	"persona-match/internal/service"
)

type testApp struct {
	store  *repository.MemoryStore
	jwt    *service.JWTService
	router *gin.Engine
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

func newTestApp(t *testing.T, limiter service.LoginRateLimiter) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	engine := matching.MustEngine(matching.DefaultTuning())
	store := repository.NewMemoryStore()
	jwtSvc := service.NewJWTService("secret", 15*time.Minute, time.Hour, nil)

	users := service.NewUserService(logger, store, store, engine, limiter)
	questionnaire := service.NewQuestionnaireService(engine, logger)
	matches := service.NewMatchService(engine, store, service.DefaultMatchDefaults(), logger)
	quick := service.NewQuickMatchService(questionnaire, users, store, engine, 0, logger)

	handlers := Handlers{
		User:          NewUserHandler(logger, users, jwtSvc, questionnaire),
		Match:         NewMatchHandler(logger, matches, quick, store),
		Questionnaire: NewQuestionnaireHandler(logger, questionnaire),
	}
	return &testApp{
		store:  store,
		jwt:    jwtSvc,
		router: NewRouter(logger, []string{"*"}, handlers, jwtSvc),
	}
}

func performRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func uniformScores(v int) map[string]int {
	out := make(map[string]int, domain.NumTraits)
	for _, t := range domain.Traits() {
		out[string(t)] = v
	}
	return out
}

// registerUser crea un usuario via POST /users y devuelve su id y access token.
func registerUser(t *testing.T, app *testApp, email, gender string, scores map[string]int) (string, string) {
	t.Helper()
	body := map[string]any{
		"user_data": map[string]any{
			"email":    email,
			"password": "supersecret",
			"name":     "User " + email,
			"age":      30,
			"gender":   gender,
		},
		"personality_scores": scores,
	}
	rec := performRequest(app.router, http.MethodPost, "/users", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		User   domain.User       `json:"user"`
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.User.ID, resp.Tokens.AccessToken
}
