package ws

import (
	"testing"
	"time"

	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/testutil"
)

func newTestClient(gameID model.GameID, role model.PlayerRole) *Client {
	return &Client{
		gameID:      gameID,
		role:        role,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
		logger:      testutil.NopLogger(),
	}
}

func expectMessage(t *testing.T, c *Client, want string) {
	t.Helper()
	select {
	case msg := <-c.send:
		if string(msg) != want {
			t.Errorf("client received %q, want %q", string(msg), want)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client did not receive message")
	}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Errorf("client received unexpected %q", string(msg))
	case <-time.After(30 * time.Millisecond):
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub("game-1", testutil.NopLogger(), nil)
	go hub.Run()
	defer hub.Close()

	client := newTestClient("game-1", model.RolePlayer1)
	hub.Register(client)

	// Give the hub time to process registration
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.Broadcast([]byte(`{"type":"test"}`))
	expectMessage(t, client, `{"type":"test"}`)
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub("game-1", testutil.NopLogger(), nil)
	go hub.Run()
	defer hub.Close()

	client := newTestClient("game-1", model.RolePlayer1)
	hub.Register(client)
	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after unregister, want 0", hub.ClientCount())
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel still open after unregister")
	}
}

func TestHub_BroadcastExceptSkipsSender(t *testing.T) {
	hub := NewHub("game-1", testutil.NopLogger(), nil)
	go hub.Run()
	defer hub.Close()

	alice := newTestClient("game-1", model.RolePlayer1)
	bob := newTestClient("game-1", model.RolePlayer2)
	observer := newTestClient("game-1", "")
	hub.Register(alice)
	hub.Register(bob)
	hub.Register(observer)

	hub.BroadcastExcept([]byte("hi"), alice)

	expectMessage(t, bob, "hi")
	expectMessage(t, observer, "hi")
	expectNothing(t, alice)
}

func TestHub_FullClientBufferDropsMessage(t *testing.T) {
	hub := NewHub("game-1", testutil.NopLogger(), nil)
	go hub.Run()
	defer hub.Close()

	slow := newTestClient("game-1", model.RolePlayer1)
	slow.send = make(chan []byte, 1)
	hub.Register(slow)

	hub.Broadcast([]byte("one"))
	hub.Broadcast([]byte("two"))
	time.Sleep(20 * time.Millisecond)

	expectMessage(t, slow, "one")
	expectNothing(t, slow)
}

func TestHub_RegisterAfterCloseFails(t *testing.T) {
	hub := NewHub("game-1", testutil.NopLogger(), nil)
	go hub.Run()
	hub.Close()
	hub.Close()

	if hub.Register(newTestClient("game-1", "")) {
		t.Error("Register succeeded on a closed hub")
	}
}

func TestHubManager_SubscribeCreatesOneHubPerGame(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.Close()

	a := newTestClient("game-1", model.RolePlayer1)
	b := newTestClient("game-1", model.RolePlayer2)
	c := newTestClient("game-2", model.RolePlayer1)

	for _, client := range []*Client{a, b, c} {
		if !manager.Subscribe(client) {
			t.Fatal("Subscribe failed")
		}
	}

	if a.hub != b.hub {
		t.Error("clients of one game got different hubs")
	}
	if a.hub == c.hub {
		t.Error("clients of different games share a hub")
	}
	if manager.HubCount() != 2 {
		t.Errorf("HubCount() = %d, want 2", manager.HubCount())
	}
}

func TestHubManager_LastUnsubscribeRemovesHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)

	a := newTestClient("game-1", model.RolePlayer1)
	b := newTestClient("game-1", model.RolePlayer2)
	manager.Subscribe(a)
	manager.Subscribe(b)

	manager.Unsubscribe(a)
	if manager.GetHub("game-1") == nil {
		t.Fatal("hub removed while a client remains")
	}

	manager.Unsubscribe(b)
	if manager.GetHub("game-1") != nil {
		t.Error("hub still exists after last unsubscribe")
	}
}

func TestHubManager_PublishEncodesEvent(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)
	defer manager.Close()

	client := newTestClient("game-1", model.RolePlayer1)
	manager.Subscribe(client)

	manager.Publish(model.Event{
		Type:    model.EventLobbyActive,
		GameID:  "game-1",
		Payload: model.LobbyActivePayload{Player2Name: "Bob", State: model.GameStateActive},
	})

	expectMessage(t, client, `{"type":"lobby_active","state":"active","game_state":"active","message":"Bob joined the game","player2_name":"Bob"}`)
}

func TestHubManager_PublishWithoutSubscribersIsDropped(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)

	manager.Publish(model.Event{Type: model.EventResume, GameID: "game-1", Payload: model.PresencePayload{}})

	if manager.HubCount() != 0 {
		t.Errorf("HubCount() = %d, want 0", manager.HubCount())
	}
}

func TestHubManager_CloseGameDisconnectsClients(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger(), nil)

	client := newTestClient("game-1", model.RolePlayer1)
	manager.Subscribe(client)

	manager.CloseGame("game-1")

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("send channel was not closed")
	}
	if manager.GetHub("game-1") != nil {
		t.Error("hub still exists after CloseGame")
	}

	// Unsubscribing after the hub is gone must not panic
	manager.Unsubscribe(client)
}
