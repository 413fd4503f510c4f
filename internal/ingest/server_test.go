// ABOUTME: End-to-end test of the ingest handshake and one enqueued chunk
package ingest

import (
	"encoding/binary"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wavefold/mixcore/pkg/audio"
	"github.com/wavefold/mixcore/pkg/mixer"
)

func TestServeHTTPHandshakeAndEnqueue(t *testing.T) {
	format := audio.Format{BytesPerFrame: 2, FrameLength: 1, Rate: 48000, Linear: true}
	bank := mixer.NewInputBank(1)
	srv := NewServer(bank, format)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := envelope{Type: "producer/hello"}
	payload, _ := json.Marshal(helloPayload{
		ProducerID: "test-producer",
		Name:       "test",
		Codec:      "pcm16",
		SampleRate: 48000,
		Channels:   1,
	})
	hello.Payload = payload
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply envelope
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read endpoint hello: %v", err)
	}
	if reply.Type != "endpoint/hello" {
		t.Fatalf("expected endpoint/hello, got %s", reply.Type)
	}

	frame := make([]byte, 9+4)
	frame[0] = 0
	binary.BigEndian.PutUint64(frame[1:9], 12345)
	binary.LittleEndian.PutUint16(frame[9:], 111)
	binary.LittleEndian.PutUint16(frame[11:], 222)

	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	input := bank.At(0)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		bank.Lock()
		n := input.Queue.Len()
		bank.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	bank.Lock()
	defer bank.Unlock()
	buf, ok := input.Queue.Front()
	if !ok {
		t.Fatal("expected a buffer enqueued from the binary frame")
	}
	if buf.PTS != 12345 {
		t.Errorf("expected PTS 12345, got %d", buf.PTS)
	}
	if len(buf.Payload) != 4 {
		t.Errorf("expected 4 bytes of payload, got %d", len(buf.Payload))
	}
}

func TestClaimSlotFailsWhenBankFull(t *testing.T) {
	bank := mixer.NewInputBank(0)
	srv := NewServer(bank, audio.Format{})

	if _, _, err := srv.claimSlot(); err == nil {
		t.Fatal("expected an error claiming a slot from an empty bank")
	}
}
