// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel, done
}

// fakeClient has no connection; tests read its send channel directly.
func fakeClient(hub *Hub, page models.Page) *Client {
	c := NewClient(hub, nil)
	c.Subscribe(page)
	return c
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case m, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		return m
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishRespectsSubscription(t *testing.T) {
	hub, _, _ := startHub(t)

	all := fakeClient(hub, "")
	customer := fakeClient(hub, models.PageCustomer)
	traffic := fakeClient(hub, models.PageTraffic)
	for _, c := range []*Client{all, customer, traffic} {
		hub.Register <- c
	}
	waitClients(t, hub, 3)

	hub.Publish(models.ProgressEvent{Page: models.PageCustomer, Step: "1/3", Status: models.StepSuccess})

	for _, c := range []*Client{all, customer} {
		m := receive(t, c)
		if m.Type != MessageTypeProgress || m.Page != models.PageCustomer {
			t.Errorf("client %d got %+v", c.ID(), m)
		}
		ev, ok := m.Data.(models.ProgressEvent)
		if !ok || ev.Step != "1/3" {
			t.Errorf("client %d data = %#v", c.ID(), m.Data)
		}
	}
	select {
	case m := <-traffic.send:
		t.Errorf("traffic subscriber received %+v", m)
	case <-time.After(50 * time.Millisecond):
	}

	hub.PublishRefresh(&models.RefreshResult{Page: models.PageTraffic, OK: true})
	if m := receive(t, traffic); m.Type != MessageTypeRefreshCompleted {
		t.Errorf("traffic got %+v", m)
	}
	if m := receive(t, all); m.Type != MessageTypeRefreshCompleted {
		t.Errorf("all got %+v", m)
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _, _ := startHub(t)

	c := fakeClient(hub, "")
	hub.Register <- c
	waitClients(t, hub, 1)
	hub.Unregister <- c
	waitClients(t, hub, 0)

	if _, ok := <-c.send; ok {
		t.Error("send channel still open")
	}
	select {
	case <-c.done:
	default:
		t.Error("done channel still open")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub, _, _ := startHub(t)

	c := fakeClient(hub, "")
	hub.Register <- c
	waitClients(t, hub, 1)

	for i := 0; i < cap(c.send)+1; i++ {
		hub.Broadcast(Message{Type: MessageTypeProgress})
		time.Sleep(time.Millisecond)
	}
	waitClients(t, hub, 0)
}

func TestHub_ServeStopsOnCancel(t *testing.T) {
	hub, cancel, done := startHub(t)

	c := fakeClient(hub, "")
	hub.Register <- c
	waitClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("clients left after shutdown: %d", hub.ClientCount())
	}
	if got := testutil.ToFloat64(metrics.WSConnections); got != 0 {
		t.Errorf("ws connections gauge = %v", got)
	}
}

func TestClient_OverConnection(t *testing.T) {
	hub, _, _ := startHub(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(hub, conn)
		hub.Register <- c
		c.Start()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatal(err)
	}
	var pong map[string]interface{}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong["type"] != MessageTypePong {
		t.Errorf("got %v, want pong", pong)
	}

	if err := conn.WriteJSON(map[string]string{"type": "subscribe", "page": "association"}); err != nil {
		t.Fatal(err)
	}
	waitClients(t, hub, 1)
	// Give the read pump time to apply the subscription.
	time.Sleep(50 * time.Millisecond)

	hub.Publish(models.ProgressEvent{Page: models.PageCustomer, Step: "1/3"})
	hub.Publish(models.ProgressEvent{Page: models.PageAssociation, Step: "1/1", Report: "association"})

	var msg struct {
		Type string               `json:"type"`
		Page string               `json:"page"`
		Data models.ProgressEvent `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read progress: %v", err)
	}
	if msg.Page != "association" || msg.Data.Report != "association" {
		t.Errorf("got %+v, want the association event only", msg)
	}
}
