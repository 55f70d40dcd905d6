// Package netgate enforces network-posture requirements before catalog
// syncs. Some providers must only be reached through a tunnel; the gate
// fails fast before any provider traffic is attempted.
package netgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
)

// ErrTunnelRequired is returned when syncing requires an active tunnel
// interface and none is up.
var ErrTunnelRequired = errors.New("no active tunnel interface found")

// Gate decides whether network operations against the provider may proceed.
type Gate interface {
	// Check returns nil when the network posture allows provider traffic.
	Check(ctx context.Context) error
}

// tunnelPrefixes are interface name prefixes treated as tunnels.
// Covers tun/tap devices, WireGuard, and userspace VPN stacks.
var tunnelPrefixes = []string{"tun", "tap", "wg", "utun", "ppp", "ipsec"}

// interfaceLister returns the host's network interfaces. Swappable in tests.
type interfaceLister func() ([]net.Interface, error)

// tunnelGate requires at least one tunnel interface to be up and running.
type tunnelGate struct {
	logger     *slog.Logger
	interfaces interfaceLister
}

// NewTunnelGate creates a Gate that requires an active tunnel interface.
func NewTunnelGate(logger *slog.Logger) Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &tunnelGate{
		logger:     logger,
		interfaces: net.Interfaces,
	}
}

// Check returns nil if any tunnel interface is up, ErrTunnelRequired otherwise.
func (g *tunnelGate) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ifaces, err := g.interfaces()
	if err != nil {
		return fmt.Errorf("listing network interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if isTunnelName(iface.Name) {
			g.logger.Debug("tunnel interface found",
				slog.String("interface", iface.Name),
			)
			return nil
		}
	}

	return ErrTunnelRequired
}

// isTunnelName reports whether the interface name looks like a tunnel device.
func isTunnelName(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range tunnelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// disabledGate always allows traffic.
type disabledGate struct{}

// NewDisabledGate creates a Gate that never blocks.
func NewDisabledGate() Gate {
	return disabledGate{}
}

// Check always returns nil.
func (disabledGate) Check(ctx context.Context) error {
	return ctx.Err()
}

// FromConfig returns the gate implied by the require-tunnel flag.
func FromConfig(requireTunnel bool, logger *slog.Logger) Gate {
	if requireTunnel {
		return NewTunnelGate(logger)
	}
	return NewDisabledGate()
}
