// Package network answers "is the device on a network?" for the boot
// join wait and the per-request check in front of every weather fetch.
package network

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/sweeney/airmonitor/internal/errcode"
)

// pi-helper env var names (written to /run/pi-helper.env).
const (
	EnvType       = "NETWORK_TYPE"
	EnvIP         = "NETWORK_IP"
	EnvStatus     = "NETWORK_STATUS"
	EnvGateway    = "NETWORK_GATEWAY"
	EnvWifiStatus = "NETWORK_WIFI_STATUS"
	EnvWifiSSID   = "NETWORK_WIFI_SSID"
)

// Info is the network state reported by pi-helper.
type Info struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// ReadInfo reads pi-helper's variables through getenv. It returns nil when
// NETWORK_STATUS is unset.
func ReadInfo(getenv func(string) string) *Info {
	s := getenv(EnvStatus)
	if s == "" {
		return nil
	}
	return &Info{
		Type:       getenv(EnvType),
		IP:         getenv(EnvIP),
		Status:     s,
		Gateway:    getenv(EnvGateway),
		WifiStatus: getenv(EnvWifiStatus),
		SSID:       getenv(EnvWifiSSID),
	}
}

// ReadEnvInfo is ReadInfo over the process environment.
func ReadEnvInfo() *Info {
	return ReadInfo(os.Getenv)
}

// Checker reports whether the device is joined to a network.
type Checker interface {
	Joined() bool
}

// InterfaceChecker considers the device joined when any interface holds a
// routable unicast address.
type InterfaceChecker struct {
	// Addrs lists interface addresses. Defaults to net.InterfaceAddrs.
	Addrs func() ([]net.Addr, error)
}

// Joined implements Checker.
func (c InterfaceChecker) Joined() bool {
	addrs := c.Addrs
	if addrs == nil {
		addrs = net.InterfaceAddrs
	}
	list, err := addrs()
	if err != nil {
		return false
	}
	for _, a := range list {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		if ip.IsGlobalUnicast() {
			return true
		}
	}
	return false
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func() bool

// Joined implements Checker.
func (f CheckerFunc) Joined() bool { return f() }

// Require returns a NetworkUnavailable error when c is not joined.
func Require(c Checker, op string) error {
	if c.Joined() {
		return nil
	}
	return errcode.New(errcode.NetworkUnavailable, op, nil)
}

// WaitJoined polls c every interval until it reports joined, ctx ends or
// timeout elapses. A zero timeout waits until ctx ends.
func WaitJoined(ctx context.Context, c Checker, interval, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		if c.Joined() {
			return nil
		}
		select {
		case <-ctx.Done():
			return errcode.New(errcode.NetworkUnavailable, "join", ctx.Err())
		case <-t.C:
		}
	}
}
