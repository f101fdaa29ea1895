// Package eveng talks to the EVE-NG REST API: it authenticates, builds
// labs, nodes and networks, wires interfaces and finds node consoles.
package eveng

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/evenger-io/evenger/internal/common"
	"github.com/evenger-io/evenger/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnknownNode      = errors.New("unknown node")
	ErrUnknownInterface = errors.New("unknown interface")
	ErrUnknownBridge    = errors.New("unknown bridge")
)

// Connection holds what is needed to reach one lab on one EVE-NG server.
type Connection struct {
	ServerURL string `mapstructure:"eveng_server_url" validate:"required,url"`
	Username  string `mapstructure:"username" validate:"required"`
	Password  string `mapstructure:"password"`
	LabPath   string `mapstructure:"lab_path" validate:"required"`
}

type Options struct {
	// Timeout applies to every API call except login.
	Timeout      time.Duration
	LoginTimeout time.Duration
	// Insecure skips TLS verification; EVE-NG ships a self signed certificate.
	Insecure bool
}

func DefaultOptions() Options {
	return Options{
		Timeout:      30 * time.Second,
		LoginTimeout: 5 * time.Second,
		Insecure:     true,
	}
}

// Client is bound to a single lab. The name lookups it builds are computed
// once and kept for the lifetime of the client; create a new client to see
// topology changes made elsewhere.
type Client struct {
	conn     Connection
	opts     Options
	rest     *resty.Client
	loggedIn bool

	nodeIDs              map[string]string
	nodeIDsComputed      bool
	ifaceIndexes         map[string]map[string]string
	ifaceIndexesComputed bool
	bridgeIDs            map[string]string
	bridgeIDsComputed    bool
}

// NewClient creates a client and logs in. A failed login is logged and
// not returned; every later call then fails on its own.
func NewClient(ctx context.Context, conn Connection, opts Options) *Client {
	c := &Client{
		conn: conn,
		opts: opts,
		rest: common.NewRestClient(common.RestClientOptions{
			BaseURL:  conn.ServerURL,
			Timeout:  opts.Timeout,
			Insecure: opts.Insecure,
		}),
	}

	if err := c.Login(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"server": conn.ServerURL,
		}).WithError(err).Errorln("Failed to login to EVE-NG")
	}

	return c
}

func (c *Client) Connection() Connection {
	return c.conn
}

func (c *Client) LabPath() string {
	return c.conn.LabPath
}

func (c *Client) IsAuthenticated() bool {
	return c.loggedIn
}

// Login posts the credentials and keeps the session cookie in the client's
// cookie jar.
func (c *Client) Login(ctx context.Context) error {
	loginCtx := ctx
	if c.opts.LoginTimeout > 0 {
		var cancel context.CancelFunc
		loginCtx, cancel = context.WithTimeout(ctx, c.opts.LoginTimeout)
		defer cancel()
	}

	env, err := c.do(loginCtx, http.MethodPost, "/api/auth/login",
		models.NewLoginRequest(c.conn.Username, c.conn.Password))
	if err != nil {
		c.loggedIn = false
		return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}

	c.loggedIn = true
	logrus.WithFields(logrus.Fields{
		"server":  c.conn.ServerURL,
		"message": env.Message,
	}).Infoln("Logged in to EVE-NG")

	return nil
}

func (c *Client) Get(ctx context.Context, path string) (*models.Envelope, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*models.Envelope, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*models.Envelope, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// do sends one request. Failures are logged here and come back as a nil
// envelope plus the error.
func (c *Client) do(ctx context.Context, method string, path string, body any) (*models.Envelope, error) {
	log := logrus.WithFields(logrus.Fields{
		"method": method,
		"url":    c.conn.ServerURL + path,
	})

	req := c.rest.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body).SetHeader("Content-Type", "application/json")
	}

	resp, err := common.MakeRequestFromBuilder(req, method, path)
	if err != nil {
		log.WithError(err).Errorln("EVE-NG request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	log.WithField("status", resp.StatusCode()).Debugln(resp.String())

	var env models.Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		log.WithField("status", resp.StatusCode()).WithError(err).Errorln("EVE-NG returned a non JSON response")
		return nil, fmt.Errorf("%s %s: unexpected response (HTTP %d): %w", method, path, resp.StatusCode(), err)
	}

	if resp.IsError() || (len(env.Status) > 0 && !strings.EqualFold(env.Status, "success")) {
		err := fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode(), env.Message)
		log.WithField("status", resp.StatusCode()).WithError(err).Errorln("EVE-NG rejected request")
		return nil, err
	}

	if method != http.MethodGet {
		log.Infoln(env.Message)
	}

	return &env, nil
}

// labURL returns the API path of the client's lab, with suffix appended.
func (c *Client) labURL(suffix string) string {
	return labAPIPath(c.conn.LabPath) + suffix
}

func labAPIPath(labPath string) string {
	labPath = strings.TrimSuffix(strings.Trim(labPath, "/"), ".unl")
	segments := strings.Split(labPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return "/api/labs/" + strings.Join(segments, "/") + ".unl"
}

func createdID(env *models.Envelope) (string, error) {
	var created models.CreatedObject
	if err := env.DecodeData(&created); err != nil {
		return "", fmt.Errorf("failed to decode created object: %w", err)
	}
	if len(created.ID) == 0 {
		return "", fmt.Errorf("response carried no id: %s", env.Message)
	}
	return created.ID.String(), nil
}
