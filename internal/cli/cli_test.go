// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/ollama"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeOllama serves /api/tags and /api/chat.
type fakeOllama struct {
	mu         sync.Mutex
	models     []string
	reply      string
	chatStatus int
	requests   []ollama.ChatRequest
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/api/tags":
		models := make([]map[string]string, len(f.models))
		for i, name := range f.models {
			models[i] = map[string]string{"name": name}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": models})

	case "/api/chat":
		var req ollama.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.requests = append(f.requests, req)
		if f.chatStatus != 0 {
			w.WriteHeader(f.chatStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":          req.Model,
			"message":        map[string]string{"role": "assistant", "content": f.reply},
			"done":           true,
			"total_duration": 2500000000,
			"eval_count":     8,
			"eval_duration":  2000000000,
		})

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOllama) lastRequest(t *testing.T) ollama.ChatRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newFakeOllama(t *testing.T, models ...string) (*fakeOllama, string) {
	t.Helper()
	f := &fakeOllama{models: models, reply: "Hello!"}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

// deadEndpoint returns the URL of a server that is no longer listening.
func deadEndpoint(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

// isolate points HOME at a temp dir so no real config is read.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// =============================================================================
// VERSION AND MODELS TESTS
// =============================================================================

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rigchat "+Version)
}

func TestVersionCmd_IgnoresBrokenConfig(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".rigchat", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`endpoint = 1`), 0600))

	_, _, err := execute(t, "version")
	assert.NoError(t, err)
}

func TestModelsCmd(t *testing.T) {
	isolate(t)
	_, url := newFakeOllama(t, "llama3", "qwen2.5")

	out, _, err := execute(t, "models", "--endpoint", url)
	require.NoError(t, err)
	assert.Equal(t, "llama3\nqwen2.5\n", out)
}

func TestModelsCmd_ConnectionFailed(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "models", "--endpoint", deadEndpoint(t))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Connection Failed: "), err.Error())
}

func TestModelsCmd_BadEndpointFailsDiscovery(t *testing.T) {
	const bad = "not a url"
	sources := map[string]func(t *testing.T) []string{
		"flag": func(t *testing.T) []string {
			return []string{"--endpoint", bad}
		},
		"env": func(t *testing.T) []string {
			t.Setenv("RIGCHAT_ENDPOINT", bad)
			return nil
		},
		"file": func(t *testing.T) []string {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(`endpoint = "`+bad+`"`), 0600))
			return []string{"--config", path}
		},
	}

	for name, setup := range sources {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			args := append([]string{"models"}, setup(t)...)

			_, _, err := execute(t, args...)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "Connection Failed: "), err.Error())
		})
	}
}

func TestModelsCmd_EmptyCatalog(t *testing.T) {
	isolate(t)
	_, url := newFakeOllama(t)

	out, errOut, err := execute(t, "models", "--endpoint", url)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "No models available")
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestAskCmd(t *testing.T) {
	isolate(t)
	fake, url := newFakeOllama(t, "llama3", "qwen2.5")

	out, _, err := execute(t, "ask", "--endpoint", url, "what", "is", "go?")
	require.NoError(t, err)
	assert.Equal(t, "Hello!\n", out)

	req := fake.lastRequest(t)
	assert.Equal(t, "llama3", req.Model, "first model is selected")
	assert.False(t, req.Stream)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, ollama.Message{Role: "user", Content: "what is go?"}, req.Messages[0])
}

func TestAskCmd_PreferredModel(t *testing.T) {
	isolate(t)
	fake, url := newFakeOllama(t, "llama3", "qwen2.5")

	_, _, err := execute(t, "ask", "--endpoint", url, "--model", "qwen2.5", "hi")
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", fake.lastRequest(t).Model)
}

func TestAskCmd_UnknownModel(t *testing.T) {
	isolate(t)
	_, url := newFakeOllama(t, "llama3")

	_, _, err := execute(t, "ask", "--endpoint", url, "--model", "nope", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `model "nope" is not available`)
}

func TestAskCmd_FailureExitsOne(t *testing.T) {
	isolate(t)
	fake, url := newFakeOllama(t, "llama3")
	fake.chatStatus = http.StatusInternalServerError

	out, errOut, err := execute(t, "ask", "--endpoint", url, "hi")
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "API Error: 500")
}

func TestAskCmd_NoBackend(t *testing.T) {
	isolate(t)

	_, errOut, err := execute(t, "ask", "--endpoint", deadEndpoint(t), "hi")
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Contains(t, errOut, "Connection Failed: ")
}

func TestAskCmd_Stdin(t *testing.T) {
	if IsTTY() {
		t.Skip("stdin is a terminal")
	}
	isolate(t)
	fake, url := newFakeOllama(t, "llama3")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"ask", "--endpoint", url})
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader("  piped question\n"))
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Equal(t, "piped question", fake.lastRequest(t).Messages[0].Content)
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestConfigCmds(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".rigchat", "config.toml")

	out, _, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	_, _, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, _, err = execute(t, "config", "init")
	assert.Error(t, err, "refuses to overwrite")
	_, _, err = execute(t, "config", "init", "--force")
	assert.NoError(t, err)

	_, _, err = execute(t, "config", "set", "endpoint", "http://gpu-box:11434")
	require.NoError(t, err)

	out, _, err = execute(t, "config", "get", "endpoint")
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434\n", out)

	out, _, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `endpoint = "http://gpu-box:11434"`)

	loaded, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", loaded.Endpoint)
}

func TestConfigSet_Errors(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "config", "set", "nope", "1")
	assert.ErrorIs(t, err, config.ErrUnknownKey)

	_, _, err = execute(t, "config", "set", "ui.theme", "neon")
	assert.Error(t, err)
}

func TestConfigGet_ListsKeys(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "endpoint\n")
	assert.Contains(t, out, "log.level")
}

func TestConfig_FlagOverride(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "config", "get", "endpoint", "--endpoint", "http://flag:1")
	require.NoError(t, err)
	assert.Equal(t, "http://flag:1\n", out)

	_, _, err = execute(t, "config", "show", "--log-level", "loud")
	assert.Error(t, err)
}

// =============================================================================
// REPL TESTS
// =============================================================================

// scriptedInput feeds fixed lines to the REPL, then EOF.
type scriptedInput struct {
	lines   []string
	history []string
}

func (s *scriptedInput) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) AppendHistory(item string) {
	s.history = append(s.history, item)
}

func runREPL(t *testing.T, endpoint string, lines ...string) (string, *scriptedInput) {
	t.Helper()
	cfg := config.Default()
	cfg.Endpoint = endpoint
	a := &app{cfg: cfg, log: zap.NewNop()}

	sess := a.startSession(context.Background())
	defer func() { require.NoError(t, sess.stop()) }()

	var out bytes.Buffer
	in := &scriptedInput{lines: lines}
	r := &repl{
		sess:    sess.Session,
		in:      in,
		out:     &out,
		printer: newMessagePrinter(&out, false),
		log:     zap.NewNop(),
	}
	require.NoError(t, r.run(context.Background()))
	return out.String(), in
}

func TestREPL_Conversation(t *testing.T) {
	fake, url := newFakeOllama(t, "llama3", "qwen2.5")

	out, in := runREPL(t, url, "hello there", "", "/history")

	assert.Contains(t, out, "[OK] Connected")
	assert.Contains(t, out, "Model: llama3")
	assert.Contains(t, out, "Assistant\nHello!")
	assert.Contains(t, out, "2.5s | 8 tokens | 4.0 tok/s")
	assert.Contains(t, out, "  1 You hello there")
	assert.Contains(t, out, "  2 Assistant Hello!")
	assert.Contains(t, out, "Session ended: 2 messages")
	assert.Equal(t, []string{"hello there", "/history"}, in.history, "blank lines are not kept")
	assert.Equal(t, "llama3", fake.lastRequest(t).Model)
}

func TestREPL_SystemMessage(t *testing.T) {
	fake, url := newFakeOllama(t, "llama3")
	fake.chatStatus = http.StatusBadGateway

	out, _ := runREPL(t, url, "hi")
	assert.Contains(t, out, "[System] API Error: 502")
}

func TestREPL_ModelCommands(t *testing.T) {
	fake, url := newFakeOllama(t, "llama3", "qwen2.5")

	out, _ := runREPL(t, url, "/models", "/model nope", "/model qwen2.5", "/model", "hi")

	assert.Contains(t, out, "* llama3")
	assert.Contains(t, out, "  qwen2.5")
	assert.Contains(t, out, `model "nope" is not in the catalog`)
	assert.Contains(t, out, "Model: qwen2.5")
	assert.Equal(t, "qwen2.5", fake.lastRequest(t).Model)
}

func TestREPL_EndpointCommands(t *testing.T) {
	_, url := newFakeOllama(t, "llama3")
	dead := deadEndpoint(t)

	out, _ := runREPL(t, url, "/endpoint", "/endpoint "+url, "/endpoint "+dead, "hi", "/status")

	assert.Contains(t, out, url+"\n")
	assert.Contains(t, out, "Endpoint unchanged")
	assert.Contains(t, out, "[X] Connection Failed: ")
	assert.Contains(t, out, "No model selected")
	assert.Contains(t, out, "Model     none")
	assert.Contains(t, out, "Messages  0")
}

func TestREPL_HelpQuitAndUnknown(t *testing.T) {
	_, url := newFakeOllama(t, "llama3")

	out, in := runREPL(t, url, "/help", "/bogus", "/quit", "never read")

	assert.Contains(t, out, "/endpoint [url]")
	assert.Contains(t, out, "unknown command /bogus")
	assert.Equal(t, []string{"never read"}, in.lines)
}

func TestREPL_Export(t *testing.T) {
	_, url := newFakeOllama(t, "llama3")
	path := filepath.Join(t.TempDir(), "chat.json")

	out, _ := runREPL(t, url, "/export "+path, "hello", "/export "+path)

	assert.Contains(t, out, "Nothing to export yet")
	assert.Contains(t, out, "Saved "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "llama3", doc.Model)
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, "hello", doc.Messages[0].Content)
	assert.Equal(t, "Hello!", doc.Messages[1].Content)
}

func TestNormalizeInput(t *testing.T) {
	assert.Equal(t, "caf\u00e9", normalizeInput("  cafe\u0301 \n"))
	assert.Equal(t, "", normalizeInput(" \t "))
}
