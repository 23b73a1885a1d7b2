package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrychat/message-security/internal/domain"
)

type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	readCh  chan []byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{readCh: make(chan []byte, 8)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-f.readCh
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, data, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) writtenFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.written))
	copy(out, f.written)
	return out
}

type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []*domain.Message
}

func (f *fakeSubmitter) Submit(msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, msg)
	return nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeFrames(t *testing.T, frames [][]byte) []outboundEnvelope {
	t.Helper()
	out := make([]outboundEnvelope, 0, len(frames))
	for _, data := range frames {
		var env outboundEnvelope
		require.NoError(t, json.Unmarshal(data, &env))
		out = append(out, env)
	}
	return out
}

func registerClient(t *testing.T, hub *Hub, id, room string) (*Client, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	client := hub.NewClient(id, room, conn)
	hub.Register(client)
	go client.WritePump()
	return client, conn
}

func TestHub_DeliverBroadcastsToRoom(t *testing.T) {
	hub := NewHub(&fakeSubmitter{}, testLogger())
	go hub.Run()

	_, aliceConn := registerClient(t, hub, "alice", "room-1")
	_, bobConn := registerClient(t, hub, "bob", "room-1")
	_, carolConn := registerClient(t, hub, "carol", "room-2")

	msg := &domain.Message{ID: "m1", RoomID: "room-1", SenderToken: "alice",
		Content: "hello", State: domain.StateSent}
	require.NoError(t, hub.Deliver(msg))

	assert.Eventually(t, func() bool {
		hasMessage := func(conn *fakeConn) bool {
			for _, env := range decodeFrames(t, conn.writtenFrames()) {
				if env.Kind == "message" && env.Message != nil && env.Message.ID == "m1" {
					return true
				}
			}
			return false
		}
		return hasMessage(aliceConn) && hasMessage(bobConn)
	}, time.Second, 5*time.Millisecond)

	for _, env := range decodeFrames(t, carolConn.writtenFrames()) {
		assert.NotEqual(t, "message", env.Kind, "other room must not receive the message")
	}
}

func TestHub_RejectNotifiesAuthorOnly(t *testing.T) {
	hub := NewHub(&fakeSubmitter{}, testLogger())
	go hub.Run()

	_, aliceConn := registerClient(t, hub, "alice", "room-1")
	_, bobConn := registerClient(t, hub, "bob", "room-1")

	msg := &domain.Message{ID: "m1", RoomID: "room-1", SenderToken: "alice",
		State: domain.StateBlocked}
	require.NoError(t, hub.Reject(msg, "critical threat detected"))

	assert.Eventually(t, func() bool {
		for _, env := range decodeFrames(t, aliceConn.writtenFrames()) {
			if env.Kind == "rejected" && env.Reason == "critical threat detected" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	for _, env := range decodeFrames(t, bobConn.writtenFrames()) {
		assert.NotEqual(t, "rejected", env.Kind, "rejections are private to the author")
	}
}

func TestHub_RejectDisconnectedAuthor(t *testing.T) {
	hub := NewHub(&fakeSubmitter{}, testLogger())
	go hub.Run()

	msg := &domain.Message{ID: "m1", RoomID: "room-1", SenderToken: "ghost"}
	assert.NoError(t, hub.Reject(msg, "blocked"))
}

func TestHub_ReadPumpSubmitsToPipeline(t *testing.T) {
	submitter := &fakeSubmitter{}
	hub := NewHub(submitter, testLogger())
	go hub.Run()

	client, conn := registerClient(t, hub, "alice", "room-1")
	go client.ReadPump()

	conn.readCh <- []byte(`{"id":"m1","content":"hello there"}`)
	conn.readCh <- []byte(`not json`) // malformed frames are skipped
	conn.readCh <- []byte(`{"id":"m2","content":"second"}`)

	assert.Eventually(t, func() bool { return submitter.count() == 2 }, time.Second, 5*time.Millisecond)

	submitter.mu.Lock()
	defer submitter.mu.Unlock()
	assert.Equal(t, "m1", submitter.submitted[0].ID)
	assert.Equal(t, "room-1", submitter.submitted[0].RoomID)
	assert.Equal(t, "alice", submitter.submitted[0].SenderToken)
	assert.Equal(t, "hello there", submitter.submitted[0].Content)
}

func TestHub_UnregisterOnConnectionDrop(t *testing.T) {
	hub := NewHub(&fakeSubmitter{}, testLogger())
	go hub.Run()

	client, conn := registerClient(t, hub, "alice", "room-1")
	go client.ReadPump()

	close(conn.readCh) // simulate the connection dropping

	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, present := hub.clients["alice"]
		return !present && hub.rooms["room-1"] == nil
	}, time.Second, 5*time.Millisecond)
}
