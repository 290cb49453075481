// Package discovery advertises and finds towers on the local network.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service of a tower websocket link.
	ServiceType = "_k70tower._tcp"
	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."
	// DefaultBrowseTimeout bounds Browse.
	DefaultBrowseTimeout = 3 * time.Second
)

// Tower is a discovered tower.
type Tower struct {
	Instance string
	ID       string
	Host     string
	Addrs    []net.IP
	Port     int
	Path     string
}

// Target is the websocket URL of the tower link.
func (t *Tower) Target() string {
	host := t.Host
	if len(t.Addrs) > 0 {
		host = t.Addrs[0].String()
	}
	host = strings.TrimSuffix(host, ".")
	return "ws://" + net.JoinHostPort(host, strconv.Itoa(t.Port)) + t.Path
}

// Advertiser registers the websocket link of a tower.
type Advertiser struct {
	Instance string
	ID       string
	Port     int
	Path     string
}

// Name implements Named.
func (a *Advertiser) Name() string {
	return "mdns:" + a.Instance
}

// Text returns the TXT records.
func (a *Advertiser) Text() []string {
	return []string{"id=" + a.ID, "path=" + a.Path}
}

// Run implements Runnable.
func (a *Advertiser) Run(ctx context.Context) error {
	server, err := zeroconf.Register(a.Instance, ServiceType, ServiceDomain, a.Port, a.Text(), nil)
	if err != nil {
		return fmt.Errorf("mdns register: %w", err)
	}
	glog.Infof("mdns: advertising %s on port %d", a.Instance, a.Port)
	<-ctx.Done()
	server.Shutdown()
	return ctx.Err()
}

// Browse lists the towers answering within timeout.
func Browse(ctx context.Context, timeout time.Duration) ([]*Tower, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}
	entries := make(chan *zeroconf.ServiceEntry)
	var (
		towers []*Tower
		seen   = make(map[string]bool)
		lock   sync.Mutex
	)
	go func() {
		for entry := range entries {
			t := parseEntry(entry)
			if t == nil {
				continue
			}
			lock.Lock()
			if !seen[t.Instance] {
				seen[t.Instance] = true
				towers = append(towers, t)
			}
			lock.Unlock()
		}
	}()
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("mdns browse: %w", err)
	}
	<-ctx.Done()
	lock.Lock()
	defer lock.Unlock()
	return append([]*Tower(nil), towers...), nil
}

func parseEntry(entry *zeroconf.ServiceEntry) *Tower {
	if entry == nil || entry.Port == 0 {
		return nil
	}
	t := &Tower{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     entry.Port,
		Path:     "/",
	}
	t.Addrs = append(t.Addrs, entry.AddrIPv4...)
	t.Addrs = append(t.Addrs, entry.AddrIPv6...)
	for _, txt := range entry.Text {
		kv := strings.SplitN(txt, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "id":
			t.ID = kv[1]
		case "path":
			t.Path = kv[1]
		}
	}
	if t.Host == "" && len(t.Addrs) == 0 {
		return nil
	}
	return t
}
