package telnet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/evenger-io/evenger/internal/models"
)

// DefaultTimeout bounds an expect wait until a TIMEOUT: directive says otherwise.
const DefaultTimeout = 5 * time.Second

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep waits for d or until ctx is done.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interpreter replays expect/send scripts against console sessions. It keeps
// no state between runs.
type Interpreter struct {
	dial           Dialer
	sleep          SleepFunc
	defaultTimeout time.Duration
}

type Option func(*Interpreter)

func WithDialer(dial Dialer) Option {
	return func(i *Interpreter) {
		i.dial = dial
	}
}

func WithSleep(sleep SleepFunc) Option {
	return func(i *Interpreter) {
		i.sleep = sleep
	}
}

func WithDefaultTimeout(timeout time.Duration) Option {
	return func(i *Interpreter) {
		if timeout > 0 {
			i.defaultTimeout = timeout
		}
	}
}

func NewInterpreter(opts ...Option) *Interpreter {
	i := &Interpreter{
		dial:           NewDialer(DialerOptions{}),
		sleep:          ContextSleep,
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ScriptError reports a script that could not be completed against target.
type ScriptError struct {
	Target models.ConsoleTarget
	Line   int
	Err    error
}

func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("telnet %s: line %d: %v", e.Target.Address(), e.Line, e.Err)
	}
	return fmt.Sprintf("telnet %s: %v", e.Target.Address(), e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Run parses text and executes it against target, returning everything read
// from the session in order. Any failure discards the partial transcript.
func (i *Interpreter) Run(ctx context.Context, text string, target models.ConsoleTarget) (string, error) {
	script, err := ParseScript(text)
	if err != nil {
		return "", &ScriptError{Target: target, Err: err}
	}
	return i.Execute(ctx, script, target)
}

func (i *Interpreter) Execute(ctx context.Context, script Script, target models.ConsoleTarget) (string, error) {
	session, err := i.dial(ctx, target)
	if err != nil {
		return "", &ScriptError{Target: target, Err: err}
	}
	defer session.Close()

	log := logrus.WithFields(logrus.Fields{
		"host": target.Host,
		"port": target.Port,
	})

	var (
		expect  string
		timeout = i.defaultTimeout
		output  strings.Builder
	)

	for _, step := range script {
		switch step.Kind {
		case StepExpect:
			expect = step.Text
			continue
		case StepTimeout:
			timeout = step.Duration
			continue
		case StepSleep:
			log.WithField("line", step.Line).Debugf("Sleeping %s", step.Duration)
			if err := i.sleep(ctx, step.Duration); err != nil {
				return "", &ScriptError{Target: target, Line: step.Line, Err: err}
			}
			continue
		}

		if len(expect) > 0 {
			log.WithFields(logrus.Fields{
				"line":    step.Line,
				"expect":  expect,
				"timeout": timeout,
			}).Debugln("Waiting for prompt")

			chunk, err := session.ReadUntil(expect, timeout)
			if err != nil {
				return "", &ScriptError{Target: target, Line: step.Line, Err: fmt.Errorf("read failed: %w", err)}
			}
			output.Write(chunk)
		}

		log.WithField("line", step.Line).Debugf("Sending %q", step.Text)

		if err := session.WriteLine(step.Text); err != nil {
			return "", &ScriptError{Target: target, Line: step.Line, Err: fmt.Errorf("write failed: %w", err)}
		}

		chunk, err := session.Drain()
		if err != nil {
			return "", &ScriptError{Target: target, Line: step.Line, Err: fmt.Errorf("read failed: %w", err)}
		}
		output.Write(chunk)
	}

	return output.String(), nil
}
