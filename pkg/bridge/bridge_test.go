package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/canvas/pkg/idgen"
)

func envelope(t *testing.T, src Source, msgType string, payload string) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"source":    src,
		"type":      msgType,
		"payload":   json.RawMessage(payload),
		"timestamp": 1,
		"id":        "m1",
	})
	require.NoError(t, err)
	return raw
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"valid", `{"source":"surface","type":"edit-created","payload":{},"timestamp":1,"id":"a"}`, nil},
		{"not json", `<<<`, errMalformed},
		{"wrong origin", `{"source":"host","type":"x","payload":{},"id":"a"}`, errWrongOrigin},
		{"unknown origin", `{"source":"evil","type":"x","payload":{},"id":"a"}`, errWrongOrigin},
		{"missing type", `{"source":"surface","payload":{},"id":"a"}`, errMissingType},
		{"missing id", `{"source":"surface","type":"x","payload":{}}`, errMissingID},
		{"array payload", `{"source":"surface","type":"x","payload":[1],"id":"a"}`, errPayloadObject},
		{"missing payload", `{"source":"surface","type":"x","id":"a"}`, errPayloadObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseEnvelope([]byte(tt.raw), SourceSurface)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDispatch_DropsInvalidMessages(t *testing.T) {
	b := New(SourceHost, nil)
	var got []string
	b.OnMessage(Wildcard, func(e Envelope) { got = append(got, e.Type) })

	b.Dispatch([]byte(`garbage`))
	b.Dispatch(envelope(t, SourceHost, MsgEditCreated, `{}`))
	b.Dispatch(envelope(t, SourceSurface, MsgEditCreated, `"str"`))
	assert.Empty(t, got)

	b.Dispatch(envelope(t, SourceSurface, MsgEditCreated, `{}`))
	assert.Equal(t, []string{MsgEditCreated}, got)
}

func TestOnMessage_TypedAndWildcard(t *testing.T) {
	b := New(SourceHost, nil)
	var order []string
	b.OnMessage(Wildcard, func(Envelope) { order = append(order, "wild") })
	b.OnMessage(MsgEditRemoved, func(Envelope) { order = append(order, "typed1") })
	unsub := b.OnMessage(MsgEditRemoved, func(Envelope) { order = append(order, "typed2") })
	b.OnMessage(MsgEditCreated, func(Envelope) { order = append(order, "other") })

	b.Dispatch(envelope(t, SourceSurface, MsgEditRemoved, `{"id":"e1"}`))
	assert.Equal(t, []string{"typed1", "typed2", "wild"}, order)

	order = nil
	unsub()
	b.Dispatch(envelope(t, SourceSurface, MsgEditRemoved, `{"id":"e1"}`))
	assert.Equal(t, []string{"typed1", "wild"}, order)
}

func TestEnvelopeDecode(t *testing.T) {
	b := New(SourceHost, nil)
	var got EditRemovedPayload
	b.OnMessage(MsgEditRemoved, func(e Envelope) { require.NoError(t, e.Decode(&got)) })

	b.Dispatch(envelope(t, SourceSurface, MsgEditRemoved, `{"id":"e7"}`))
	assert.Equal(t, "e7", got.ID)
}

func TestConnectionState(t *testing.T) {
	t.Run("host connects on ready handshake", func(t *testing.T) {
		b := New(SourceHost, nil)
		var transitions []State
		b.OnStateChange(func(s State) { transitions = append(transitions, s) })

		b.Dispatch(envelope(t, SourceSurface, MsgEditCreated, `{}`))
		assert.Equal(t, Disconnected, b.State())

		b.Dispatch(envelope(t, SourceSurface, MsgInspectorReady, `{}`))
		assert.Equal(t, Connected, b.State())

		a, _ := NewPipe(4)
		b.Reattach(a)
		assert.Equal(t, Disconnected, b.State())
		assert.Equal(t, []State{Connected, Disconnected}, transitions)
	})

	t.Run("surface connects on first host message", func(t *testing.T) {
		b := New(SourceSurface, nil)
		b.Dispatch(envelope(t, SourceHost, MsgRequestSnapshot, `{}`))
		assert.Equal(t, Connected, b.State())
	})

	t.Run("invalid handshake is ignored", func(t *testing.T) {
		b := New(SourceHost, nil)
		b.Dispatch(envelope(t, SourceHost, MsgInspectorReady, `{}`))
		assert.Equal(t, Disconnected, b.State())
	})
}

func TestSend_StampsEnvelope(t *testing.T) {
	hostEnd, surfaceEnd := NewPipe(8)
	now := time.UnixMilli(1700000000000)
	b := New(SourceHost, hostEnd,
		WithIDGenerator(idgen.Sequence("msg_")),
		WithClock(func() time.Time { return now }))

	require.NoError(t, b.Send(MsgRemoveEdit, RemoveEditPayload{ID: "e1"}))
	require.NoError(t, b.Send(MsgClearEdits, nil))

	var env Envelope
	require.NoError(t, json.Unmarshal(<-surfaceEnd.Messages(), &env))
	assert.Equal(t, SourceHost, env.Source)
	assert.Equal(t, MsgRemoveEdit, env.Type)
	assert.Equal(t, "msg_1", env.ID)
	assert.Equal(t, now.UnixMilli(), env.Timestamp)
	assert.JSONEq(t, `{"id":"e1"}`, string(env.Payload))

	require.NoError(t, json.Unmarshal(<-surfaceEnd.Messages(), &env))
	assert.Equal(t, MsgClearEdits, env.Type)
	assert.JSONEq(t, `{}`, string(env.Payload))
}

func TestSend_NoTransport(t *testing.T) {
	b := New(SourceHost, nil)
	assert.ErrorIs(t, b.Send(MsgClearEdits, nil), ErrClosed)
}

func TestRun_RoundTrip(t *testing.T) {
	hostEnd, surfaceEnd := NewPipe(8)
	host := New(SourceHost, hostEnd)
	surface := New(SourceSurface, surfaceEnd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = host.Run(ctx) }()
	go func() { defer wg.Done(); _ = surface.Run(ctx) }()

	ready := make(chan struct{})
	host.OnMessage(MsgInspectorReady, func(Envelope) { close(ready) })

	pong := make(chan string, 1)
	surface.OnMessage(MsgRemoveEdit, func(e Envelope) {
		var p RemoveEditPayload
		_ = e.Decode(&p)
		pong <- p.ID
	})

	require.NoError(t, surface.Send(MsgInspectorReady, InspectorReadyPayload{}))
	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("ready handshake not delivered")
	}
	assert.Equal(t, Connected, host.State())

	require.NoError(t, host.Send(MsgRemoveEdit, RemoveEditPayload{ID: "e9"}))
	select {
	case id := <-pong:
		assert.Equal(t, "e9", id)
	case <-time.After(2 * time.Second):
		t.Fatal("remove-edit not delivered")
	}

	cancel()
	wg.Wait()
}

func TestRun_ReattachAfterClose(t *testing.T) {
	first, firstPeer := NewPipe(8)
	host := New(SourceHost, first)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- host.Run(ctx) }()

	got := make(chan string, 4)
	host.OnMessage(Wildcard, func(e Envelope) { got <- e.Type })

	require.NoError(t, firstPeer.Close())

	second, secondPeer := NewPipe(8)
	host.Reattach(second)

	surface := New(SourceSurface, secondPeer)
	require.NoError(t, surface.Send(MsgInspectorReady, nil))

	select {
	case typ := <-got:
		assert.Equal(t, MsgInspectorReady, typ)
	case <-time.After(2 * time.Second):
		t.Fatal("message on reattached transport not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
