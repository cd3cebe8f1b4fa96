package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestHub(opts ...Option) *Hub {
	return NewHub(NewRegistry(), logs.GetLoggerFromLevel(slog.LevelError), opts...)
}

func joinedClient(t *testing.T, hub *Hub, name, room string) *Client {
	t.Helper()
	client := NewClient(hub, nil)
	hub.Register(client)
	require.NoError(t, hub.JoinRoom(client, name, room))
	return client
}

func readEnvelope(t *testing.T, client *Client) Envelope {
	t.Helper()
	select {
	case data := <-client.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(time.Second):
		require.FailNow(t, "no event delivered")
		return Envelope{}
	}
}

func requireNoEnvelope(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.Send:
		require.FailNow(t, "unexpected event", string(data))
	case <-time.After(20 * time.Millisecond):
	}
}
