package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeRoute struct {
	available bool
	got       string
	err       error
}

func (f *fakeRoute) Name() string    { return "fake" }
func (f *fakeRoute) Available() bool { return f.available }
func (f *fakeRoute) Deliver(_ context.Context, doc string) error {
	f.got = doc
	return f.err
}

// MockDispatcher is a testify mock of Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Name() string { return m.Called().String(0) }

func (m *MockDispatcher) Available() bool { return m.Called().Bool(0) }

func (m *MockDispatcher) Deliver(ctx context.Context, doc string) error {
	return m.Called(ctx, doc).Error(0)
}

type status bool

func (s status) AgentAvailable() bool { return bool(s) }

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers", func(t *testing.T) {
		r := &fakeRoute{available: true}
		require.NoError(t, Send(ctx, r, status(true), "doc"))
		assert.Equal(t, "doc", r.got)
	})

	t.Run("route unsupported", func(t *testing.T) {
		r := &fakeRoute{}
		assert.ErrorIs(t, Send(ctx, r, status(true), "doc"), ErrUnsupported)
		assert.Empty(t, r.got)
	})

	t.Run("agent unavailable", func(t *testing.T) {
		r := &fakeRoute{available: true}
		assert.ErrorIs(t, Send(ctx, r, status(false), "doc"), ErrAgentUnavailable)
		assert.Empty(t, r.got)
	})

	t.Run("nil status skips check", func(t *testing.T) {
		r := &fakeRoute{available: true}
		assert.NoError(t, Send(ctx, r, nil, "doc"))
	})

	t.Run("delivery error wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		r := &fakeRoute{available: true, err: boom}
		err := Send(ctx, r, status(true), "doc")
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "fake")
	})
}

type ctxKey struct{}

func TestSend_DeliversOncePerCall(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "request")

	d := new(MockDispatcher)
	d.On("Available").Return(true)
	d.On("Deliver", ctx, "# doc").Return(nil).Once()
	require.NoError(t, Send(ctx, d, status(true), "# doc"))
	d.AssertExpectations(t)

	blocked := new(MockDispatcher)
	blocked.On("Available").Return(true)
	blocked.On("Name").Return("chat")
	err := Send(ctx, blocked, status(false), "# doc")
	assert.ErrorContains(t, err, "chat")
	blocked.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestClipboard(t *testing.T) {
	var wrote string
	c := &Clipboard{write: func(s string) error { wrote = s; return nil }}
	assert.True(t, c.Available())
	require.NoError(t, c.Deliver(context.Background(), "hello"))
	assert.Equal(t, "hello", wrote)

	off := &Clipboard{unsupported: true, write: func(string) error { t.Fatal("must not write"); return nil }}
	assert.False(t, off.Available())
	assert.ErrorIs(t, off.Deliver(context.Background(), "x"), ErrUnsupported)
}

func TestChat(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"step 1 done"}}]}`)
	}))
	defer srv.Close()

	c := NewChat(ChatConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"})
	require.True(t, c.Available())
	require.NoError(t, c.Deliver(context.Background(), "# Visual Edit Instructions"))

	assert.Equal(t, "step 1 done", c.Reply())
	assert.Equal(t, "test-model", body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "# Visual Edit Instructions", msgs[1].(map[string]any)["content"])
}

func TestChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := NewChat(ChatConfig{APIKey: "k", BaseURL: srv.URL})
	assert.Error(t, c.Deliver(context.Background(), "doc"))
	assert.Empty(t, c.Reply())
}

func TestChatWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c := NewChat(ChatConfig{})
	assert.False(t, c.Available())
	assert.ErrorIs(t, c.Deliver(context.Background(), "doc"), ErrUnsupported)
}

func TestTokenizerFallback(t *testing.T) {
	var zero *Tokenizer
	assert.Equal(t, 0, zero.Count(""))
	assert.Equal(t, 3, zero.Count("twelve chars"))
	assert.Equal(t, 1, (&Tokenizer{}).Count("a"))
}

func TestTokenizer(t *testing.T) {
	tok, err := NewTokenizer()
	if err != nil {
		t.Logf("encoding unavailable, checking fallback: %v", err)
	}
	n := tok.Count("Set color of button.primary to #ff0000")
	assert.Greater(t, n, 0)
}
