package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/quill/internal/blogservice"
	"github.com/sushihentaime/quill/internal/commentservice"
	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mailservice"
	"github.com/sushihentaime/quill/internal/storage"
	"github.com/sushihentaime/quill/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

// newTestApplication wires the application against a throwaway Postgres and RabbitMQ.
// Blob storage is mocked.
func newTestApplication(t *testing.T) (*application, *storage.MockStore) {
	db := common.TestDB("file://../migrations", t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rabbitURI := common.TestRabbitMQ(t)
	rabbitmq, err := common.NewMessageBroker(rabbitURI)
	require.NoError(t, err)
	t.Cleanup(func() { rabbitmq.Close() })

	err = common.SetupUserExchange(rabbitmq)
	require.NoError(t, err)

	cfg, err := loadConfig("../.test.env")
	require.NoError(t, err)

	types := userservice.NewUserTypes(db, common.NewCache(time.Hour, 2*time.Hour))
	hasher := userservice.NewPasswordHasher(4)
	store := new(storage.MockStore)
	r := newMapper()

	app := &application{
		config:         cfg,
		logger:         logger,
		authService:    userservice.NewAuthService(db, types, hasher, newTokenManager(cfg), rabbitmq, r, cfg.ClientURL),
		userService:    userservice.NewUserService(db, hasher, r, store, logger),
		blogService:    blogservice.NewBlogService(db, r, store, logger),
		commentService: commentservice.NewCommentService(db, r, logger),
		mailService:    mailservice.NewMailService(rabbitmq, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger),
		store:          store,
		broker:         rabbitmq,
	}

	return app, store
}

func (ts *testServer) do(t *testing.T, method, path string, payload any, token string) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) post(t *testing.T, path string, payload any, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, payload, token)
}

func (ts *testServer) get(t *testing.T, path string, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, nil, token)
}

func (ts *testServer) put(t *testing.T, path string, payload any, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPut, path, payload, token)
}

func (ts *testServer) delete(t *testing.T, path string, payload any, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, payload, token)
}

// signup registers a user through the API and returns its id and access token.
func (ts *testServer) signup(t *testing.T, name, email string) (int, string) {
	status, _, body := ts.post(t, "/auth/signup", map[string]any{
		"name":     name,
		"email":    email,
		"password": "Test_1234!",
	}, "")
	require.Equal(t, http.StatusCreated, status, body)

	user := body["user"].(map[string]any)
	return int(user["id"].(float64)), body["accessToken"].(string)
}
