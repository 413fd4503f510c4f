// ABOUTME: WebSocket-fed mixer input producer
// ABOUTME: Handles connection, handshake and message routing into one InputState's queue
package wsproducer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wavefold/mixcore/pkg/audio"
	"github.com/wavefold/mixcore/pkg/audio/decode"
	"github.com/wavefold/mixcore/pkg/audio/resample"
	"github.com/wavefold/mixcore/pkg/mixer"
)

// Config configures one websocket-fed mixer input.
type Config struct {
	ServerAddr string
	Name       string
	Codec      string // "opus", "pcm16", "pcm24"
	SourceRate int
	Channels   int
	// Format is the mixer's fixed format; its Rate/BytesPerFrame drive
	// resampling and Buffer.Length derivation.
	Format audio.Format
}

// envelope is the trimmed JSON message shape a producer needs: a hello
// on connect, and pause/resume control from the mixer's owner.
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

// Producer dials a websocket source and feeds decoded audio into one
// mixer input, the way the source's WebSocket handled the wire side of
// a player's own audio stream.
type Producer struct {
	id     string
	config Config
	dec    decode.Decoder
	resamp *resample.Resampler

	bank  *mixer.InputBank
	input *mixer.InputState

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a producer bound to one input slot in bank. input must
// already be a member of bank (e.g. bank.At(i)).
func New(config Config, bank *mixer.InputBank, input *mixer.InputState) (*Producer, error) {
	dec, err := decode.New(config.Codec, config.SourceRate, config.Channels)
	if err != nil {
		return nil, fmt.Errorf("wsproducer: %w", err)
	}

	var resamp *resample.Resampler
	if uint32(config.SourceRate) != config.Format.Rate {
		resamp = resample.New(config.SourceRate, int(config.Format.Rate), config.Channels)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Producer{
		id:     uuid.NewString(),
		config: config,
		dec:    dec,
		resamp: resamp,
		bank:   bank,
		input:  input,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// ID returns this producer's generated identifier.
func (p *Producer) ID() string { return p.id }

// Connect dials the server, performs the handshake and starts the
// background read loop.
func (p *Producer) Connect() error {
	u := url.URL{Scheme: "ws", Host: p.config.ServerAddr, Path: "/mixcore/ingest"}
	log.Printf("wsproducer: connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("wsproducer: dial: %w", err)
	}

	p.mu.Lock()
	p.conn = conn
	p.connected = true
	p.mu.Unlock()

	if err := p.handshake(); err != nil {
		p.Close()
		return fmt.Errorf("wsproducer: handshake: %w", err)
	}

	go p.readMessages()
	return nil
}

func (p *Producer) handshake() error {
	hello := envelope{Type: "producer/hello"}
	payload, err := json.Marshal(helloPayload{
		ProducerID: p.id,
		Name:       p.config.Name,
		Codec:      p.config.Codec,
		SampleRate: p.config.SourceRate,
		Channels:   p.config.Channels,
	})
	if err != nil {
		return err
	}
	hello.Payload = payload

	if err := p.sendJSON(hello); err != nil {
		return fmt.Errorf("failed to send producer/hello: %w", err)
	}

	p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := p.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read endpoint/hello: %w", err)
	}
	p.conn.SetReadDeadline(time.Time{})

	var reply envelope
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("failed to parse endpoint/hello: %w", err)
	}
	if reply.Type != "endpoint/hello" {
		return fmt.Errorf("expected endpoint/hello, got %s", reply.Type)
	}

	log.Printf("wsproducer: handshake complete, producer_id=%s", p.id)
	return nil
}

func (p *Producer) sendJSON(msg envelope) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.connected {
		return fmt.Errorf("not connected")
	}
	return p.conn.WriteJSON(msg)
}

func (p *Producer) readMessages() {
	defer p.Close()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		messageType, data, err := p.conn.ReadMessage()
		if err != nil {
			log.Printf("wsproducer: read error: %v", err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			p.handleBinaryMessage(data)
		case websocket.TextMessage:
			p.handleJSONMessage(data)
		}
	}
}

// handleBinaryMessage parses the wire framing (1 byte msg type, 8 byte
// big-endian timestamp, payload) and enqueues the decoded audio.
func (p *Producer) handleBinaryMessage(data []byte) {
	if len(data) < 9 {
		log.Printf("wsproducer: invalid binary message: too short")
		return
	}
	if data[0] != 0 {
		log.Printf("wsproducer: unknown binary message type: %d", data[0])
		return
	}

	timestamp := int64(binary.BigEndian.Uint64(data[1:9]))
	if err := p.handleChunk(timestamp, data[9:]); err != nil {
		log.Printf("wsproducer: chunk dropped: %v", err)
	}
}

// handleChunk decodes one encoded frame, resamples it if needed, and
// pushes the resulting buffer onto the bound input's queue under the
// input-FIFO lock. Split out from handleBinaryMessage so it can be
// exercised without a live socket.
func (p *Producer) handleChunk(timestamp int64, encoded []byte) error {
	pcm, err := p.dec.Decode(encoded)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if p.resamp != nil {
		pcm = p.resamplePCM(pcm)
	}

	frames := uint32(0)
	if p.config.Format.BytesPerFrame > 0 {
		frames = uint32(len(pcm)) / p.config.Format.BytesPerFrame
	}
	length := int64(0)
	if p.config.Format.Rate > 0 {
		length = int64(frames) * 1_000_000 / int64(p.config.Format.Rate)
	}

	buf := &audio.Buffer{
		PTS:        timestamp,
		Length:     length,
		NumSamples: frames,
		Payload:    pcm,
	}

	p.bank.Lock()
	if !p.input.Error {
		p.input.Queue.Push(buf)
	}
	p.bank.Unlock()
	return nil
}

// resamplePCM widens LE16 PCM to the resampler's int32 domain, runs
// it through, and narrows the result back down.
func (p *Producer) resamplePCM(pcm []byte) []byte {
	nSamples := len(pcm) / 2
	in := make([]int32, nSamples)
	for i := 0; i < nSamples; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		in[i] = audio.SampleFromInt16(s)
	}

	outCap := p.resamp.OutputSamplesNeeded(nSamples) + p.config.Channels
	out := make([]int32, outCap)
	n := p.resamp.Resample(in, out)

	result := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s16 := audio.SampleToInt16(out[i])
		binary.LittleEndian.PutUint16(result[i*2:], uint16(s16))
	}
	return result
}

func (p *Producer) handleJSONMessage(data []byte) {
	var msg envelope
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("wsproducer: failed to parse message: %v", err)
		return
	}

	switch msg.Type {
	case "endpoint/control":
		var ctrl controlPayload
		if err := json.Unmarshal(msg.Payload, &ctrl); err != nil {
			log.Printf("wsproducer: bad control payload: %v", err)
			return
		}
		p.bank.Lock()
		p.input.Paused = ctrl.Paused
		p.bank.Unlock()

	default:
		log.Printf("wsproducer: unknown message type: %s", msg.Type)
	}
}

// Close closes the connection and marks the bound input errored so the
// mixer stops admitting it. Buffers already in the input's queue are
// left there; neither Close nor the mixer removes them.
func (p *Producer) Close() {
	p.mu.Lock()
	wasConnected := p.connected
	p.connected = false
	p.mu.Unlock()

	if !wasConnected {
		return
	}
	p.cancel()
	if p.conn != nil {
		p.conn.Close()
	}
	p.dec.Close()

	p.bank.Lock()
	p.input.Error = true
	p.bank.Unlock()

	log.Printf("wsproducer: connection closed")
}

// IsConnected reports connection status.
func (p *Producer) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}
