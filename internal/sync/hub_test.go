package sync

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterfiction/pkg/models"
)

func TestUpdateEvent(t *testing.T) {
	b := models.Bookmark{ID: "12345", Chapter: 3, Chapters: 10, Status: models.StatusReading}
	ev := UpdateEvent(b)

	assert.Equal(t, EventBookmarkUpdate, ev.Type)
	assert.Equal(t, "12345", ev.ID)
	assert.Equal(t, 3, ev.Chapter)
	assert.Equal(t, models.StatusReading, ev.Status)
	assert.False(t, ev.At.IsZero())
}

func TestDeleteEvent(t *testing.T) {
	ev := DeleteEvent("12345")
	assert.Equal(t, EventBookmarkDelete, ev.Type)
	assert.Equal(t, "12345", ev.ID)
	assert.Zero(t, ev.Chapter)
}

func TestHub_BroadcastToTCPClient(t *testing.T) {
	hub := NewHub()
	server, client := net.Pipe()
	t.Cleanup(func() { server.Close(); client.Close() })

	hub.Add(server)
	assert.Equal(t, 1, hub.Count())

	go hub.Broadcast(DeleteEvent("12345"))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := bufio.NewReader(client).ReadBytes('\n')
	require.NoError(t, err)

	var ev BookmarkEvent
	require.NoError(t, json.Unmarshal(line, &ev))
	assert.Equal(t, EventBookmarkDelete, ev.Type)
	assert.Equal(t, "12345", ev.ID)
}

func TestHub_DropsDeadClients(t *testing.T) {
	hub := NewHub()
	server, client := net.Pipe()
	hub.Add(server)
	server.Close()
	client.Close()

	hub.Broadcast(DeleteEvent("x"))
	assert.Equal(t, 0, hub.Count(), "writes to a closed conn evict it")
}

func TestHub_StorySubscriptionFilters(t *testing.T) {
	hub := NewHub()

	allSrv, allCli := net.Pipe()
	oneSrv, oneCli := net.Pipe()
	t.Cleanup(func() {
		allSrv.Close()
		allCli.Close()
		oneSrv.Close()
		oneCli.Close()
	})

	hub.Add(allSrv)
	hub.Add(oneSrv)
	hub.Subscribe(oneSrv, "111")

	lines := func(c net.Conn) <-chan []byte {
		ch := make(chan []byte, 4)
		go func() {
			defer close(ch)
			r := bufio.NewReader(c)
			for {
				line, err := r.ReadBytes('\n')
				if err != nil {
					return
				}
				ch <- line
			}
		}()
		return ch
	}
	allLines := lines(allCli)
	oneLines := lines(oneCli)

	// An event for a different story reaches only the unfiltered client.
	go hub.Broadcast(DeleteEvent("222"))
	select {
	case line := <-allLines:
		var ev BookmarkEvent
		require.NoError(t, json.Unmarshal(line, &ev))
		assert.Equal(t, "222", ev.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("unfiltered client did not receive the event")
	}
	select {
	case line := <-oneLines:
		t.Fatalf("filtered client received event for another story: %s", line)
	case <-time.After(100 * time.Millisecond):
	}

	// An event for the subscribed story reaches both.
	go hub.Broadcast(UpdateEvent(models.Bookmark{ID: "111", Chapter: 2, Chapters: 5}))
	for name, ch := range map[string]<-chan []byte{"all": allLines, "one": oneLines} {
		select {
		case line := <-ch:
			var ev BookmarkEvent
			require.NoError(t, json.Unmarshal(line, &ev))
			assert.Equal(t, "111", ev.ID, "client %s", name)
		case <-time.After(2 * time.Second):
			t.Fatalf("client %s did not receive the event", name)
		}
	}
}

func TestServer_RunAndClose(t *testing.T) {
	hub := NewHub()
	srv := NewServer("127.0.0.1:0", hub)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	// wait for the listener; the port is kernel-assigned
	var addr string
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		if srv.ln == nil {
			return false
		}
		addr = srv.ln.Addr().String()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	welcome, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)

	var hello HubEvent
	require.NoError(t, json.Unmarshal([]byte(welcome), &hello))
	assert.Equal(t, EventHubWelcome, hello.Type)
	assert.Equal(t, 1, hello.Clients)

	require.NoError(t, srv.Close())
	select {
	case err := <-done:
		assert.NoError(t, err, "a closed listener shuts Run down cleanly")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestServer_SubscribeLineFiltersBroadcasts(t *testing.T) {
	hub := NewHub()
	srv := NewServer("127.0.0.1:0", hub)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()
	t.Cleanup(func() { srv.Close(); <-done })

	var addr string
	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		if srv.ln == nil {
			return false
		}
		addr = srv.ln.Addr().String()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	r := bufio.NewReader(conn)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = r.ReadString('\n') // welcome
	require.NoError(t, err)

	fmt.Fprintln(conn, "111")
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		for _, filter := range hub.clients {
			if filter == "111" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(DeleteEvent("222"))
	hub.Broadcast(DeleteEvent("111"))

	// The first line through is the subscribed story, not the skipped one.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"id":"111"`)
}
