package telnet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	ztelnet "github.com/ziutek/telnet"

	"github.com/evenger-io/evenger/internal/models"
)

// Session is an open interactive terminal.
type Session interface {
	// ReadUntil blocks until pattern shows up in the stream or timeout
	// elapses, returning everything read either way. Only I/O failures other
	// than the timeout are reported as errors.
	ReadUntil(pattern string, timeout time.Duration) ([]byte, error)
	// Drain returns whatever is available without waiting for more.
	Drain() ([]byte, error)
	// WriteLine sends line followed by a newline.
	WriteLine(line string) error
	Close() error
}

// Dialer opens a Session to a console target.
type Dialer func(ctx context.Context, target models.ConsoleTarget) (Session, error)

type DialerOptions struct {
	DialTimeout  time.Duration
	DrainWindow  time.Duration
	WriteTimeout time.Duration
}

// NewDialer returns a Dialer speaking telnet over TCP.
func NewDialer(opts DialerOptions) Dialer {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.DrainWindow <= 0 {
		opts.DrainWindow = 100 * time.Millisecond
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	return func(ctx context.Context, target models.ConsoleTarget) (Session, error) {
		dialer := net.Dialer{Timeout: opts.DialTimeout}

		conn, err := dialer.DialContext(ctx, "tcp", target.Address())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", target.Address(), err)
		}

		tc, err := ztelnet.NewConn(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to start telnet on %s: %w", target.Address(), err)
		}

		logrus.WithFields(logrus.Fields{
			"host": target.Host,
			"port": target.Port,
		}).Debugln("Telnet session opened")

		return &telnetSession{
			conn:         tc,
			drainWindow:  opts.DrainWindow,
			writeTimeout: opts.WriteTimeout,
		}, nil
	}
}

type telnetSession struct {
	conn         *ztelnet.Conn
	drainWindow  time.Duration
	writeTimeout time.Duration
}

func (s *telnetSession) ReadUntil(pattern string, timeout time.Duration) ([]byte, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	// Match on the accumulated suffix; a timeout returns what was read.
	var data []byte
	target := []byte(pattern)
	for {
		b, err := s.conn.ReadByte()
		if err != nil {
			if isTimeout(err) {
				return data, nil
			}
			return data, err
		}
		data = append(data, b)
		if bytes.HasSuffix(data, target) {
			return data, nil
		}
	}
}

func (s *telnetSession) Drain() ([]byte, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.drainWindow)); err != nil {
		return nil, err
	}

	var data []byte
	for {
		b, err := s.conn.ReadByte()
		if err != nil {
			if isTimeout(err) {
				return data, nil
			}
			return data, err
		}
		data = append(data, b)
	}
}

func (s *telnetSession) WriteLine(line string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	_, err := s.conn.Write([]byte(line + "\n"))
	return err
}

func (s *telnetSession) Close() error {
	return s.conn.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
