package models

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ConsoleTarget identifies a reachable interactive terminal endpoint.
type ConsoleTarget struct {
	Scheme string `json:"scheme,omitempty"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

func (t ConsoleTarget) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t ConsoleTarget) String() string {
	if len(t.Scheme) > 0 {
		return fmt.Sprintf("%s://%s", t.Scheme, t.Address())
	}
	return t.Address()
}

func (t ConsoleTarget) IsTelnet() bool {
	return strings.EqualFold(t.Scheme, "telnet")
}

// ParseConsoleURL parses a node console URL as reported by EVE-NG, for
// example telnet://10.0.0.5:32769 or vnc://10.0.0.5:5901. A bare host:port
// is accepted and yields an empty scheme.
func ParseConsoleURL(raw string) (ConsoleTarget, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return ConsoleTarget{}, fmt.Errorf("empty console url")
	}

	var scheme, hostPort string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return ConsoleTarget{}, fmt.Errorf("invalid console url %q: %w", raw, err)
		}
		scheme = strings.ToLower(u.Scheme)
		hostPort = u.Host
	} else {
		hostPort = raw
	}

	host, portText, err := net.SplitHostPort(hostPort)
	if err != nil {
		return ConsoleTarget{}, fmt.Errorf("invalid console address %q: %w", raw, err)
	}

	port, err := strconv.Atoi(portText)
	if err != nil || port <= 0 || port > 65535 {
		return ConsoleTarget{}, fmt.Errorf("invalid console port %q", portText)
	}

	return ConsoleTarget{
		Scheme: scheme,
		Host:   host,
		Port:   port,
	}, nil
}
