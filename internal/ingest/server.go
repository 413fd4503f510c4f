// ABOUTME: HTTP/WebSocket ingest endpoint accepting producer connections
// ABOUTME: Binds each connection to a free mixer input slot for its lifetime
package ingest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/wavefold/mixcore/pkg/audio"
	"github.com/wavefold/mixcore/pkg/audio/decode"
	"github.com/wavefold/mixcore/pkg/mixer"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type helloPayload struct {
	ProducerID string `json:"producer_id"`
	Name       string `json:"name"`
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type controlPayload struct {
	Paused bool `json:"paused"`
}

// Server accepts incoming producer websocket connections and binds each
// one to a free slot in a shared mixer input bank, mirroring the
// source's connection-per-player server loop but keyed on input slot
// rather than player ID.
type Server struct {
	bank   *mixer.InputBank
	format audio.Format

	mu   sync.Mutex
	used map[int]bool
}

// NewServer creates an ingest endpoint feeding the given bank.
func NewServer(bank *mixer.InputBank, format audio.Format) *Server {
	return &Server{bank: bank, format: format, used: make(map[int]bool)}
}

// ServeHTTP implements http.Handler, upgrading the request to a
// websocket and dispatching a per-connection goroutine.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ingest: upgrade failed: %v", err)
		return
	}

	slot, input, err := s.claimSlot()
	if err != nil {
		log.Printf("ingest: %v", err)
		conn.Close()
		return
	}

	go s.serveConn(conn, slot, input)
}

func (s *Server) claimSlot() (int, *mixer.InputState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < s.bank.Len(); i++ {
		if !s.used[i] {
			s.used[i] = true
			return i, s.bank.At(i), nil
		}
	}
	return -1, nil, fmt.Errorf("no free input slot")
}

func (s *Server) releaseSlot(slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.used, slot)
}

func (s *Server) serveConn(conn *websocket.Conn, slot int, input *mixer.InputState) {
	defer conn.Close()
	defer s.releaseSlot(slot)

	hello, err := s.readHello(conn)
	if err != nil {
		log.Printf("ingest: handshake failed: %v", err)
		return
	}

	dec, err := decode.New(hello.Codec, hello.SampleRate, hello.Channels)
	if err != nil {
		log.Printf("ingest: no decoder for producer: %v", err)
		return
	}
	defer dec.Close()

	if err := conn.WriteJSON(envelope{Type: "endpoint/hello"}); err != nil {
		log.Printf("ingest: failed to send endpoint/hello: %v", err)
		return
	}

	s.bank.Lock()
	input.Error = false
	input.Paused = false
	s.bank.Unlock()

	log.Printf("ingest: producer %s (%s) attached to slot %d", hello.ProducerID, hello.Name, slot)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		switch messageType {
		case websocket.BinaryMessage:
			s.handleBinaryMessage(dec, input, data)
		case websocket.TextMessage:
			s.handleJSONMessage(input, data)
		}
	}

	s.bank.Lock()
	input.Error = true
	input.Queue.Clear()
	input.ResetBegin()
	s.bank.Unlock()

	log.Printf("ingest: producer %s detached from slot %d", hello.ProducerID, slot)
}

func (s *Server) readHello(conn *websocket.Conn) (helloPayload, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return helloPayload{}, fmt.Errorf("read producer/hello: %w", err)
	}

	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return helloPayload{}, fmt.Errorf("parse producer/hello: %w", err)
	}
	if msg.Type != "producer/hello" {
		return helloPayload{}, fmt.Errorf("expected producer/hello, got %s", msg.Type)
	}

	var hello helloPayload
	if err := json.Unmarshal(msg.Payload, &hello); err != nil {
		return helloPayload{}, fmt.Errorf("parse hello payload: %w", err)
	}
	return hello, nil
}

func (s *Server) handleBinaryMessage(dec decode.Decoder, input *mixer.InputState, data []byte) {
	if len(data) < 9 || data[0] != 0 {
		log.Printf("ingest: invalid binary message")
		return
	}
	timestamp := int64(binary.BigEndian.Uint64(data[1:9]))

	pcm, err := dec.Decode(data[9:])
	if err != nil {
		log.Printf("ingest: decode failed: %v", err)
		return
	}

	frames := uint32(0)
	if s.format.BytesPerFrame > 0 {
		frames = uint32(len(pcm)) / s.format.BytesPerFrame
	}
	length := int64(0)
	if s.format.Rate > 0 {
		length = int64(frames) * 1_000_000 / int64(s.format.Rate)
	}

	buf := &audio.Buffer{PTS: timestamp, Length: length, NumSamples: frames, Payload: pcm}

	s.bank.Lock()
	if !input.Error {
		input.Queue.Push(buf)
	}
	s.bank.Unlock()
}

func (s *Server) handleJSONMessage(input *mixer.InputState, data []byte) {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Type != "producer/control" {
		return
	}
	var ctrl controlPayload
	if err := json.Unmarshal(msg.Payload, &ctrl); err != nil {
		return
	}

	s.bank.Lock()
	input.Paused = ctrl.Paused
	s.bank.Unlock()
}
