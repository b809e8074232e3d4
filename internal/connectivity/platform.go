package connectivity

import (
	"context"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"
)

// DefaultPollInterval is how often InterfacePlatform rescans when no interval
// is configured.
const DefaultPollInterval = 5 * time.Second

// ScanFunc lists the host's networks.
type ScanFunc func() ([]Network, error)

// InterfacePlatform watches the host's network interfaces by polling. An
// interface has internet capability when it is up, not loopback, and holds a
// global unicast address.
type InterfacePlatform struct {
	interval time.Duration
	scan     ScanFunc
	log      *slog.Logger

	mu        sync.Mutex
	networks  map[string]Network
	callbacks map[int]NetworkCallback
	nextID    int
}

// NewInterfacePlatform returns a platform backed by net.Interfaces.
func NewInterfacePlatform(interval time.Duration, log *slog.Logger) *InterfacePlatform {
	return NewScanPlatform(interval, ScanInterfaces, log)
}

// NewScanPlatform returns a platform backed by scan. The first scan happens
// immediately.
func NewScanPlatform(interval time.Duration, scan ScanFunc, log *slog.Logger) *InterfacePlatform {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &InterfacePlatform{
		interval:  interval,
		scan:      scan,
		log:       log,
		networks:  map[string]Network{},
		callbacks: map[int]NetworkCallback{},
	}
	p.Poll()
	return p
}

// Run polls until ctx is done.
func (p *InterfacePlatform) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Poll()
		}
	}
}

func (p *InterfacePlatform) ActiveNetworks() []Network {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Network, 0, len(p.networks))
	for _, n := range p.networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p *InterfacePlatform) RegisterNetworkCallback(cb NetworkCallback) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.callbacks[id] = cb
	return func() {
		p.mu.Lock()
		delete(p.callbacks, id)
		p.mu.Unlock()
	}
}

// Callbacks returns the number of registered callbacks.
func (p *InterfacePlatform) Callbacks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.callbacks)
}

// Poll rescans once and fires callbacks for internet-capable networks that
// appeared or went away. The snapshot is updated before any callback runs.
func (p *InterfacePlatform) Poll() {
	scanned, err := p.scan()
	if err != nil {
		p.log.Warn("scan network interfaces", "error", err)
		return
	}

	next := make(map[string]Network, len(scanned))
	for _, n := range scanned {
		next[n.Name] = n
	}

	p.mu.Lock()
	prev := p.networks
	p.networks = next
	cbs := make([]NetworkCallback, 0, len(p.callbacks))
	for _, cb := range p.callbacks {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	var gained, lost []Network
	for name, n := range next {
		if n.Internet && !prev[name].Internet {
			gained = append(gained, n)
		}
	}
	for name, n := range prev {
		if n.Internet && !next[name].Internet {
			lost = append(lost, n)
		}
	}

	for _, n := range lost {
		for _, cb := range cbs {
			if cb.OnLost != nil {
				cb.OnLost(n)
			}
		}
	}
	for _, n := range gained {
		for _, cb := range cbs {
			if cb.OnAvailable != nil {
				cb.OnAvailable(n)
			}
		}
	}
}

// ScanInterfaces lists every up, non-loopback interface of the host.
func ScanInterfaces() ([]Network, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []Network
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, err
		}
		out = append(out, Network{Name: iface.Name, Internet: hasGlobalUnicast(addrs)})
	}
	return out, nil
}

func hasGlobalUnicast(addrs []net.Addr) bool {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip != nil && ip.IsGlobalUnicast() {
			return true
		}
	}
	return false
}
