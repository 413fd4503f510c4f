// ABOUTME: Entry point for the mixer server
// ABOUTME: Parses CLI flags and wires the mixer core to its ingest, output and monitoring surfaces
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wavefold/mixcore/internal/devicesink"
	"github.com/wavefold/mixcore/internal/discovery"
	"github.com/wavefold/mixcore/internal/ingest"
	"github.com/wavefold/mixcore/internal/kernelcache"
	"github.com/wavefold/mixcore/internal/tui"
	"github.com/wavefold/mixcore/pkg/audio"
	"github.com/wavefold/mixcore/pkg/clock"
	"github.com/wavefold/mixcore/pkg/metrics"
	"github.com/wavefold/mixcore/pkg/mixer"
)

var (
	port       = flag.Int("port", 8927, "HTTP port for ingest and metrics")
	name       = flag.String("name", "", "Endpoint friendly name (default: hostname-mixcore)")
	logFile    = flag.String("log-file", "mixcore-server.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noTUI      = flag.Bool("no-tui", false, "Disable the live monitor and log to stdout instead")
	numInputs  = flag.Int("inputs", 4, "Number of concurrent mixer inputs to accept")
	sampleRate = flag.Int("rate", 48000, "Mixer output sample rate")
	channels   = flag.Int("channels", 2, "Mixer output channel count")
	gain       = flag.Float64("gain", 1.0, "Initial mixer gain")
	tickPeriod = flag.Duration("tick", 5*time.Millisecond, "Interval between mixer ticks")
)

// dualInstrumentation forwards every counter to a Prometheus recorder
// and keeps a local atomic snapshot the live monitor can read without
// round-tripping through the registry.
type dualInstrumentation struct {
	recorder *metrics.Recorder

	blocksEmitted int64
	staleDrops    int64
	pastDrops     int64
	gapDrops      int64
	lateResets    int64
	cursorDrifts  int64
}

func (d *dualInstrumentation) Tick() { d.recorder.Tick() }
func (d *dualInstrumentation) BlockEmitted() {
	atomic.AddInt64(&d.blocksEmitted, 1)
	d.recorder.BlockEmitted()
}
func (d *dualInstrumentation) StaleDrop() {
	atomic.AddInt64(&d.staleDrops, 1)
	d.recorder.StaleDrop()
}
func (d *dualInstrumentation) PastDrop() {
	atomic.AddInt64(&d.pastDrops, 1)
	d.recorder.PastDrop()
}
func (d *dualInstrumentation) GapDrop() {
	atomic.AddInt64(&d.gapDrops, 1)
	d.recorder.GapDrop()
}
func (d *dualInstrumentation) LateReset() {
	atomic.AddInt64(&d.lateResets, 1)
	d.recorder.LateReset()
}
func (d *dualInstrumentation) CursorDrift() {
	atomic.AddInt64(&d.cursorDrifts, 1)
	d.recorder.CursorDrift()
}

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	var logWriter io.Writer = f
	if *noTUI {
		logWriter = io.MultiWriter(os.Stdout, f)
	}
	log.SetOutput(logWriter)

	endpointName := *name
	if endpointName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		endpointName = fmt.Sprintf("%s-mixcore", hostname)
	}

	log.Printf("Starting mixer endpoint: %s on port %d", endpointName, *port)
	if *debug {
		log.Printf("Debug logging enabled")
	}

	format := audio.Format{
		BytesPerFrame: uint32(2 * *channels),
		FrameLength:   1,
		Rate:          uint32(*sampleRate),
		Linear:        true,
	}

	sink, err := devicesink.NewOtoSink(*sampleRate, *channels)
	if err != nil {
		log.Fatalf("failed to open audio device: %v", err)
	}
	defer sink.Close()

	resolver, err := kernelcache.New(mixer.DefaultRegistry(), 8)
	if err != nil {
		log.Fatalf("failed to build kernel cache: %v", err)
	}

	instr := &dualInstrumentation{recorder: metrics.New(prometheus.DefaultRegisterer)}

	device := mixer.NewDevice(mixer.Config{
		Format:            format,
		Gain:              float32(*gain),
		NbSamplesPerBlock: uint32(*sampleRate) / 100, // 10ms blocks
		Resolver:          resolver,
		Now:               clock.NewSystem(),
		Inputs:            *numInputs,
		Sink:              sink,
		Instrumentation:   instr,
	})

	device.Lock()
	device.Inputs().Lock()
	if err := device.Attach(); err != nil {
		device.Inputs().Unlock()
		device.Unlock()
		log.Fatalf("failed to attach mixer kernel: %v", err)
	}
	device.Inputs().Unlock()
	device.Unlock()

	ingestSrv := ingest.NewServer(device.Inputs(), format)
	mux := http.NewServeMux()
	mux.Handle("/mixcore/ingest", ingestSrv)
	mux.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))

	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	var mdnsMgr *discovery.Manager
	if !*noMDNS {
		mdnsMgr = discovery.NewManager(discovery.Config{
			ServiceName:  endpointName,
			Port:         *port,
			EndpointMode: true,
		})
		if err := mdnsMgr.Advertise(); err != nil {
			log.Printf("mDNS advertisement failed: %v", err)
		}
	}

	stop := make(chan struct{})
	go runMixerLoop(device, *tickPeriod, stop)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutdown := func() {
		close(stop)
		if mdnsMgr != nil {
			mdnsMgr.Stop()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		httpSrv.Shutdown(ctx)
	}

	if *noTUI {
		<-sigChan
		log.Printf("received signal, shutting down")
		shutdown()
		return
	}

	program := tea.NewProgram(tui.Model{})
	go pollStatus(device, instr, program, stop)
	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		log.Printf("tui error: %v", err)
	}
	shutdown()
}

// runMixerLoop repeatedly drains ready blocks from device on a fixed
// tick, the way the source's output thread drove MixBuffer.
func runMixerLoop(device *mixer.Device, period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			device.Lock()
			device.Run()
			device.Unlock()
		}
	}
}

// pollStatus periodically snapshots the device and instrumentation
// into the live monitor.
func pollStatus(device *mixer.Device, instr *dualInstrumentation, program *tea.Program, stop <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			device.Lock()
			attached := device.Attached()
			g := device.Gain()
			device.Unlock()

			bank := device.Inputs()
			bank.Lock()
			inputs := make([]tui.InputStatus, bank.Len())
			for i := 0; i < bank.Len(); i++ {
				in := bank.At(i)
				inputs[i] = tui.InputStatus{
					ID:         fmt.Sprintf("slot-%d", i),
					QueueDepth: in.Queue.Len(),
					Paused:     in.Paused,
					Errored:    in.Error,
				}
			}
			bank.Unlock()

			program.Send(tui.StatusMsg{
				Attached:      attached,
				Format:        "linear PCM",
				Gain:          g,
				Inputs:        inputs,
				BlocksEmitted: atomic.LoadInt64(&instr.blocksEmitted),
				StaleDrops:    atomic.LoadInt64(&instr.staleDrops),
				PastDrops:     atomic.LoadInt64(&instr.pastDrops),
				GapDrops:      atomic.LoadInt64(&instr.gapDrops),
				LateResets:    atomic.LoadInt64(&instr.lateResets),
				CursorDrifts:  atomic.LoadInt64(&instr.cursorDrifts),
			})
		}
	}
}
