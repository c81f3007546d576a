package xrpl

import (
	"context"
	"testing"

	"github.com/gorilla/websocket"
)

func TestDial_WebSocketScheme(t *testing.T) {
	server := wsTestServer(t, func(*websocket.Conn, []byte) {})
	defer server.Close()

	client, err := Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, ok := client.(*WSClientImpl); !ok {
		t.Errorf("Dial(%q) = %T, want *WSClientImpl", wsURL(server), client)
	}
}

func TestDial_HTTPScheme(t *testing.T) {
	client, err := Dial(context.Background(), "https://s1.ripple.com:51234")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, ok := client.(*HTTPClient); !ok {
		t.Errorf("Dial = %T, want *HTTPClient", client)
	}
}
