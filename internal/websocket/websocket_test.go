package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omarshaarawi/fplstandings/internal/models"
)

type staticSource struct {
	snap *models.Snapshot
}

func (s staticSource) Latest() *models.Snapshot { return s.snap }

func startHub(t *testing.T, source Source) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(source, nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_SendsLatestOnConnect(t *testing.T) {
	latest := &models.Snapshot{PeriodID: "oct-nov", PeriodName: "October + November", Generation: 3}
	_, srv := startHub(t, staticSource{snap: latest})

	conn := dial(t, srv)
	msg := readMessage(t, conn)

	if msg.Type != TypeStandings {
		t.Errorf("type = %q, want %q", msg.Type, TypeStandings)
	}
	if msg.Payload == nil || msg.Payload.PeriodID != "oct-nov" || msg.Payload.Generation != 3 {
		t.Errorf("payload = %+v", msg.Payload)
	}
}

func TestHub_PublishReachesAllClients(t *testing.T) {
	hub, srv := startHub(t, staticSource{})

	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Publish(&models.Snapshot{
		PeriodID: "aug-sep",
		Entries:  []models.StandingsEntry{{Rank: 1, TeamID: 7, ManagerName: "Ann", Points: 18}},
	})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Payload == nil || len(msg.Payload.Entries) != 1 || msg.Payload.Entries[0].Points != 18 {
			t.Errorf("payload = %+v", msg.Payload)
		}
	}
}

func TestHub_UnregistersClosedClient(t *testing.T) {
	hub, srv := startHub(t, staticSource{})

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_PublishAfterStopDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(staticSource{}, nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer*2; i++ {
			hub.Publish(&models.Snapshot{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked after hub stopped")
	}
}
