package telnet

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenger-io/evenger/internal/models"
)

// startConsole serves one connection with a scripted login dialogue and
// returns the lines the client sent.
func startConsole(t *testing.T) (models.ConsoleTarget, <-chan []string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	received := make(chan []string, 1)

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()

		var lines []string
		reader := bufio.NewReader(conn)
		readLine := func() bool {
			line, err := reader.ReadString('\n')
			if err != nil {
				return false
			}
			lines = append(lines, strings.TrimRight(line, "\r\n"))
			return true
		}

		prompt := func(text string) {
			// Later than the drain window so the prompt is left for the next wait.
			time.Sleep(100 * time.Millisecond)
			conn.Write([]byte(text))
		}

		conn.Write([]byte("Nokia SR OS\r\nLogin: "))
		for _, next := range []string{"Password: ", "\r\nA:router# ", "\r\nA:router(config)# "} {
			if !readLine() {
				received <- lines
				return
			}
			prompt(next)
		}

		// Keep reading until the client hangs up.
		for readLine() {
		}

		received <- lines
	}()

	addr := listener.Addr().(*net.TCPAddr)
	return models.ConsoleTarget{Scheme: "telnet", Host: "127.0.0.1", Port: addr.Port}, received
}

func TestInterpreter_AgainstTCPConsole(t *testing.T) {
	target, received := startConsole(t)

	interp := NewInterpreter(WithDialer(NewDialer(DialerOptions{
		DialTimeout: time.Second,
		DrainWindow: 20 * time.Millisecond,
	})))

	script := `
		EXPECT: ogin
		admin
		EXPECT: assword
		secret
		EXPECT: #
		configure
		exit
	`

	output, err := interp.Run(context.Background(), script, target)
	require.NoError(t, err)

	assert.Contains(t, output, "Nokia SR OS")
	assert.Contains(t, output, "Password:")
	assert.Contains(t, output, "A:router#")
	assert.Less(t, strings.Index(output, "Login:"), strings.Index(output, "Password:"))

	select {
	case lines := <-received:
		assert.Equal(t, []string{"admin", "secret", "configure", "exit"}, lines)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not finish")
	}
}

func TestSession_ReadUntilTimeoutKeepsPartialOutput(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("booting..."))
		time.Sleep(time.Second)
	}()

	addr := listener.Addr().(*net.TCPAddr)
	dial := NewDialer(DialerOptions{DialTimeout: time.Second})
	session, err := dial(context.Background(), models.ConsoleTarget{Host: "127.0.0.1", Port: addr.Port})
	require.NoError(t, err)
	defer session.Close()

	start := time.Now()
	data, err := session.ReadUntil("login:", 200*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "booting...", string(data))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestSession_ReadUntilFindsOverlappingPrompt(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("A:A:# "))
		time.Sleep(2 * time.Second)
	}()

	addr := listener.Addr().(*net.TCPAddr)
	dial := NewDialer(DialerOptions{DialTimeout: time.Second})
	session, err := dial(context.Background(), models.ConsoleTarget{Host: "127.0.0.1", Port: addr.Port})
	require.NoError(t, err)
	defer session.Close()

	start := time.Now()
	data, err := session.ReadUntil("A:#", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "A:A:#", string(data))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestInterpreter_TimeoutKeepsBootBanner(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("Booting kernel...\r\n"))
		// Quiet until the client hangs up.
		buf := make([]byte, 64)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	addr := listener.Addr().(*net.TCPAddr)
	interp := NewInterpreter(WithDialer(NewDialer(DialerOptions{
		DialTimeout: time.Second,
		DrainWindow: 20 * time.Millisecond,
	})))

	output, err := interp.Run(context.Background(), "TIMEOUT: 1\nEXPECT: login\nadmin\n",
		models.ConsoleTarget{Host: "127.0.0.1", Port: addr.Port})
	require.NoError(t, err)
	assert.Equal(t, "Booting kernel...\r\n", output)
}

func TestDialer_ConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	listener.Close()

	interp := NewInterpreter(WithDialer(NewDialer(DialerOptions{DialTimeout: time.Second})))
	_, err = interp.Run(context.Background(), "admin", models.ConsoleTarget{Host: "127.0.0.1", Port: addr.Port})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}
