package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/teamfinder/internal/config"
	"github.com/mcoot/teamfinder/internal/factory"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/services/auth"
	"github.com/mcoot/teamfinder/internal/services/conversation"
	"github.com/mcoot/teamfinder/internal/telegram"
)

const (
	testBotToken = "123456:e2e-token"
	testSecret   = "e2e-secret"
	testAdminKey = "e2e-admin-key"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	adminKey   string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "teamfinder-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/teamfinder")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)
	if r.adminKey != "" {
		fullArgs = append([]string{"--admin-key", r.adminKey}, fullArgs...)
	}

	cmd := exec.Command(r.binaryPath, fullArgs...)
	// Keep the operator's environment out of the test
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "HOME=" + os.TempDir()}
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) asAdmin() *cliRunner {
	cp := *r
	cp.adminKey = testAdminKey
	return &cp
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// fakeBotAPI stands in for the Telegram Bot API and records every reply
type fakeBotAPI struct {
	mu      sync.Mutex
	replies []telegram.SendMessageRequest
	webhook string
	server  *httptest.Server
}

func newFakeBotAPI(t *testing.T) *fakeBotAPI {
	t.Helper()

	f := &fakeBotAPI{}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBotAPI) serve(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	switch method {
	case "sendMessage", "editMessageText":
		var req telegram.SendMessageRequest
		_ = json.Unmarshal(body, &req)
		f.replies = append(f.replies, req)
	case "setWebhook":
		var req telegram.SetWebhookRequest
		_ = json.Unmarshal(body, &req)
		f.webhook = req.URL
	}
	n := len(f.replies)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d}}`, n)
}

func (f *fakeBotAPI) replyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}

func (f *fakeBotAPI) lastReply() telegram.SendMessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replies[len(f.replies)-1]
}

func (f *fakeBotAPI) registeredWebhook() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.webhook
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	hookURL  string
	botAPI   *fakeBotAPI
	shutdown func()
	updateID int64
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	serverURL := "http://" + addr

	botAPI := newFakeBotAPI(t)

	hash, err := auth.HashKey(testAdminKey)
	require.NoError(t, err)

	cfg := &config.Config{
		Host:          "127.0.0.1",
		Timezone:      "UTC",
		NotifyTimes:   []string{"10:00"},
		MatchLimit:    3,
		StoreTimeout:  5 * time.Second,
		SessionTTL:    time.Hour,
		Storage:       config.StorageMemory,
		SessionStore:  config.StorageMemory,
		PublicURL:     serverURL,
		AdminKeyHash:  hash,
		NotifyEnabled: false,
		Telegram: config.TelegramConfig{
			Token:          testBotToken,
			Mode:           config.ModeWebhook,
			APIURL:         botAPI.server.URL,
			WebhookBaseURL: serverURL,
			WebhookSecret:  testSecret,
			PollTimeout:    time.Second,
		},
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(cfg, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hook := telegram.NewWebhook(ctx, app.Bot, testSecret, logger)
	hookPath := telegram.WebhookPath(testBotToken)
	require.NoError(t, hook.Register(ctx, app.Telegram, serverURL+"/webhook/"+hookPath))

	server := &http.Server{
		Addr:    addr,
		Handler: app.Handler(logger, hook, hookPath),
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	waitForServer(t, serverURL+"/healthz")

	return &testServer{
		addr:    serverURL,
		hookURL: serverURL + "/webhook/" + hookPath,
		botAPI:  botAPI,
		shutdown: func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
			cancel()
			app.Bot.Wait()
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// push delivers one update through the webhook and waits for the bot's reply
func (ts *testServer) push(t *testing.T, upd telegram.Update) telegram.SendMessageRequest {
	t.Helper()

	ts.updateID++
	upd.UpdateID = ts.updateID
	body, err := json.Marshal(upd)
	require.NoError(t, err)

	before := ts.botAPI.replyCount()

	req, err := http.NewRequest(http.MethodPost, ts.hookURL, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(telegram.SecretHeader, testSecret)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		return ts.botAPI.replyCount() > before
	}, 5*time.Second, 10*time.Millisecond, "no reply to update %d", upd.UpdateID)
	return ts.botAPI.lastReply()
}

func chatUser(id int64, name string) *telegram.User {
	return &telegram.User{ID: id, FirstName: name}
}

func (ts *testServer) sendText(t *testing.T, id int64, text string) telegram.SendMessageRequest {
	t.Helper()

	msg := &telegram.Message{
		MessageID: ts.updateID + 1,
		From:      chatUser(id, "user"),
		Chat:      telegram.Chat{ID: id, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []telegram.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return ts.push(t, telegram.Update{Message: msg})
}

func (ts *testServer) press(t *testing.T, id int64, tag string) telegram.SendMessageRequest {
	t.Helper()

	return ts.push(t, telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:   fmt.Sprintf("cb-%d", ts.updateID+1),
		From: *chatUser(id, "user"),
		Message: &telegram.Message{
			MessageID: 1,
			Chat:      telegram.Chat{ID: id, Type: "private"},
		},
		Data: tag,
	}})
}

func (ts *testServer) register(t *testing.T, id int64, nickname string, rank model.Rank, roles ...model.Role) {
	t.Helper()

	ts.sendText(t, id, "/start")
	ts.sendText(t, id, nickname)
	ts.press(t, id, conversation.RankTag(rank))
	for _, r := range roles {
		ts.press(t, id, conversation.RoleTag(r))
	}
	reply := ts.press(t, id, conversation.TagRolesDone)
	require.Contains(t, reply.Text, nickname)
}

func (ts *testServer) declare(t *testing.T, id int64, windows ...model.TimeWindow) telegram.SendMessageRequest {
	t.Helper()

	ts.press(t, id, conversation.TagPlayToday)
	for _, w := range windows {
		ts.press(t, id, conversation.SlotTag(w))
	}
	return ts.press(t, id, conversation.TagSlotsConfirm)
}

// Response types for JSON parsing
type healthResponse struct {
	Status string `json:"status"`
}

type todayResponse struct {
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Players []struct {
		ID       string   `json:"id"`
		Nickname string   `json:"nickname"`
		Rank     string   `json:"rank"`
		Roles    []string `json:"roles"`
		Windows  []string `json:"windows"`
	} `json:"players"`
}

type statsResponse struct {
	TotalPlayers int `json:"total_players"`
	PlayingToday int `json:"playing_today"`
}

type broadcastResponse struct {
	RunID     string   `json:"run_id"`
	Attempted int      `json:"attempted"`
	Delivered int      `json:"delivered"`
	Failed    []string `json:"failed"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestE2E_WebhookRegistered(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	assert.Equal(t, ts.hookURL, ts.botAPI.registeredWebhook())
}

func TestE2E_ChatThenCLI(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Two players register and declare through the bot
	ts.register(t, 100, "Jett", model.RankGold, model.RoleDuelist)
	ts.register(t, 200, "Sage", model.RankSilver, model.RoleSentinel)

	first := ts.declare(t, 100, model.WindowEvening)
	assert.Contains(t, first.Text, "Nobody else")

	second := ts.declare(t, 200, model.WindowEvening, model.WindowNight)
	assert.Contains(t, second.Text, "Jett")

	// The operator sees both of them
	output, err := cli.run("today")
	require.NoError(t, err, "output: %s", output)

	var today todayResponse
	require.NoError(t, json.Unmarshal([]byte(output), &today))
	require.Equal(t, 2, today.Count)
	assert.Equal(t, "Jett", today.Players[0].Nickname)
	assert.Equal(t, "Sage", today.Players[1].Nickname)
	assert.Equal(t, []string{"evening", "night"}, today.Players[1].Windows)

	output, err = cli.run("stats")
	require.NoError(t, err, "output: %s", output)

	var stats statsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.Equal(t, 2, stats.TotalPlayers)
	assert.Equal(t, 2, stats.PlayingToday)

	// The public page lists them too
	resp, err := http.Get(ts.addr + "/today")
	require.NoError(t, err)
	page, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(page), "Jett")
	assert.Contains(t, string(page), "Sage")
}

func TestE2E_AdminCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	admin := cli.asAdmin()

	ts.register(t, 100, "Jett", model.RankGold, model.RoleDuelist)
	ts.register(t, 200, "Sage", model.RankSilver, model.RoleSentinel)

	// Broadcast reaches every registered player through the bot API
	before := ts.botAPI.replyCount()
	output, err := admin.run("broadcast")
	require.NoError(t, err, "output: %s", output)

	var report broadcastResponse
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 2, report.Delivered)
	assert.Empty(t, report.Failed)
	assert.Equal(t, before+2, ts.botAPI.replyCount())

	// Deleting needs the key
	output, err = cli.run("player", "delete", "100")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "admin key")

	output, err = admin.run("player", "delete", "100")
	require.NoError(t, err, "output: %s", output)

	var msg messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msg))
	assert.Equal(t, "Player 100 deleted", msg.Message)

	output, err = cli.run("stats")
	require.NoError(t, err, "output: %s", output)

	var stats statsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.Equal(t, 1, stats.TotalPlayers)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	admin := cli.asAdmin()

	// Wrong key
	wrong := cli.asAdmin()
	wrong.adminKey = "not-the-key"
	output, err := wrong.run("broadcast")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "unauthorized")

	// Unknown player
	output, err = admin.run("player", "delete", "999")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "not found")

	// Bad date
	output, err = cli.run("today", "--date", "02.05.2024")
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(output), "date")
}
