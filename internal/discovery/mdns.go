// ABOUTME: mDNS service discovery for mixer endpoints
// ABOUTME: Handles both advertisement (mixer-initiated) and browsing (producer-initiated)
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/hashicorp/mdns"
)

// Config holds discovery configuration.
type Config struct {
	ServiceName  string
	Port         int
	EndpointMode bool // If true, advertise as _mixcore-endpoint._tcp, otherwise _mixcore._tcp
}

// Manager handles mDNS operations for one mixer endpoint.
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *EndpointInfo
}

// EndpointInfo describes a discovered mixer endpoint.
type EndpointInfo struct {
	Name string
	Host string
	Port int
}

// NewManager creates a discovery manager.
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *EndpointInfo, 10),
	}
}

// Advertise advertises this mixer endpoint via mDNS.
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	serviceType := "_mixcore._tcp"
	if m.config.EndpointMode {
		serviceType = "_mixcore-endpoint._tcp"
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		serviceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=/mixcore/ingest"},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, serviceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for mixer endpoints willing to accept producers.
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for mixer endpoints.
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				endpoint := &EndpointInfo{
					Name: entry.Name,
					Host: entry.AddrV4.String(),
					Port: entry.Port,
				}

				log.Printf("Discovered mixer endpoint: %s at %s:%d", endpoint.Name, endpoint.Host, endpoint.Port)

				select {
				case m.servers <- endpoint:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: "_mixcore-endpoint._tcp",
			Domain:  "local",
			Timeout: 3,
			Entries: entries,
		}

		mdns.Query(params)
		close(entries)
	}
}

// Endpoints returns the channel of discovered mixer endpoints.
func (m *Manager) Endpoints() <-chan *EndpointInfo {
	return m.servers
}

// Stop stops the discovery manager.
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses.
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
