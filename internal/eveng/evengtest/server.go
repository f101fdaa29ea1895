// Package evengtest provides an in-memory EVE-NG API server for tests.
package evengtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const sessionCookie = "unetlab_session"

type Request struct {
	Method string
	Path   string
	Body   string
}

type Node struct {
	ID         int
	Name       string
	Template   string
	Console    string
	URL        string
	Interfaces []string
	// Attached maps interface index to network id.
	Attached map[string]int
	Body     map[string]any
}

type Network struct {
	ID         int
	Name       string
	Type       string
	Visibility string
}

// Server mimics the parts of the EVE-NG API the client uses.
type Server struct {
	*httptest.Server

	Username string
	Password string
	// ConsoleHost is used in generated console URLs.
	ConsoleHost string
	// InterfaceNames names the ethernet interfaces of a new node.
	InterfaceNames func(template string, count int) []string
	// Fail, when set, makes matching requests answer HTTP 500.
	Fail func(method, path string) bool

	mu       sync.Mutex
	labs     map[string]map[string]any
	nodes    map[int]*Node
	networks map[int]*Network
	requests []Request
	started  bool
	nextNode int
	nextNet  int
}

func NewServer() *Server {
	s := &Server{
		Username:    "admin",
		Password:    "eve",
		ConsoleHost: "127.0.0.1",
		labs:        map[string]map[string]any{},
		nodes:       map[int]*Node{},
		networks:    map[int]*Network{},
		nextNode:    1,
		nextNet:     1,
	}
	s.InterfaceNames = func(_ string, count int) []string {
		names := make([]string, count)
		for i := range names {
			names[i] = fmt.Sprintf("e%d", i)
		}
		return names
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts recorded requests with method whose path ends with suffix.
func (s *Server) CountRequests(method, suffix string) int {
	count := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasSuffix(r.Path, suffix) {
			count++
		}
	}
	return count
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) Labs() map[string]map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string]any, len(s.labs))
	for k, v := range s.labs {
		out[k] = v
	}
	return out
}

func (s *Server) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Server) NodeByName(name string) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.Name == name {
			copied := *n
			return &copied
		}
	}
	return nil
}

func (s *Server) Networks() []Network {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.networks))
	for id := range s.networks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Network, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.networks[id])
	}
	return out
}

// SetNodeURL overrides the console URL of a node.
func (s *Server) SetNodeURL(name, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.nodes {
		if n.Name == name {
			n.URL = url
		}
	}
}

// AddNode seeds a node directly, bypassing the API.
func (s *Server) AddNode(name, console string, interfaces ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextNode
	s.nextNode++
	s.nodes[id] = &Node{
		ID:         id,
		Name:       name,
		Console:    console,
		URL:        s.consoleURL(console, id),
		Interfaces: interfaces,
		Attached:   map[string]int{},
	}
	return id
}

func (s *Server) consoleURL(console string, id int) string {
	switch console {
	case "telnet":
		return fmt.Sprintf("telnet://%s:%d", s.ConsoleHost, 32768+id)
	case "vnc":
		return fmt.Sprintf("vnc://%s:%d", s.ConsoleHost, 5900+id)
	default:
		return ""
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: string(body)})

	if s.Fail != nil && s.Fail(r.Method, r.URL.Path) {
		reply(w, http.StatusInternalServerError, "fail", "injected failure", nil)
		return
	}

	if r.URL.Path == "/api/auth/login" && r.Method == http.MethodPost {
		s.login(w, body)
		return
	}

	if c, err := r.Cookie(sessionCookie); err != nil || c.Value != "authenticated" {
		reply(w, http.StatusUnauthorized, "unauthorized", "User is not authenticated (90032).", nil)
		return
	}

	if r.URL.Path == "/api/labs" && r.Method == http.MethodPost {
		s.addLab(w, body)
		return
	}

	idx := strings.Index(r.URL.Path, ".unl")
	if !strings.HasPrefix(r.URL.Path, "/api/labs/") || idx < 0 {
		reply(w, http.StatusNotFound, "fail", "Not found", nil)
		return
	}
	rest := strings.Trim(r.URL.Path[idx+len(".unl"):], "/")
	parts := strings.Split(rest, "/")

	switch {
	case r.Method == http.MethodGet && rest == "nodes":
		s.listNodes(w)
	case r.Method == http.MethodPost && rest == "nodes":
		s.addNode(w, body)
	case r.Method == http.MethodGet && rest == "nodes/start":
		s.started = true
		reply(w, http.StatusOK, "success", "Nodes started (80049).", nil)
	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "nodes":
		s.getNode(w, parts[1])
	case r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "nodes" && parts[2] == "interfaces":
		s.getInterfaces(w, parts[1])
	case r.Method == http.MethodPut && len(parts) == 3 && parts[0] == "nodes" && parts[2] == "interfaces":
		s.putInterfaces(w, parts[1], body)
	case r.Method == http.MethodGet && rest == "networks":
		s.listNetworks(w)
	case r.Method == http.MethodPost && rest == "networks":
		s.addNetwork(w, body)
	case r.Method == http.MethodPut && len(parts) == 2 && parts[0] == "networks":
		s.putNetwork(w, parts[1], body)
	default:
		reply(w, http.StatusNotFound, "fail", "Not found", nil)
	}
}

func reply(w http.ResponseWriter, code int, status, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	payload := map[string]any{
		"code":    code,
		"status":  status,
		"message": message,
	}
	if data != nil {
		payload["data"] = data
	}
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) login(w http.ResponseWriter, body []byte) {
	var creds map[string]string
	if err := json.Unmarshal(body, &creds); err != nil || creds["username"] != s.Username || creds["password"] != s.Password {
		reply(w, http.StatusBadRequest, "fail", "Cannot authenticate (90013).", nil)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "authenticated", Path: "/"})
	reply(w, http.StatusOK, "success", "User logged in (90013).", nil)
}

func (s *Server) addLab(w http.ResponseWriter, body []byte) {
	var lab map[string]any
	if err := json.Unmarshal(body, &lab); err != nil {
		reply(w, http.StatusBadRequest, "fail", "Invalid body", nil)
		return
	}
	key := strings.TrimRight(fmt.Sprint(lab["path"]), "/") + "/" + fmt.Sprint(lab["name"])
	if _, exists := s.labs[key]; exists {
		reply(w, http.StatusBadRequest, "fail", "Lab already exists (60016).", nil)
		return
	}
	s.labs[key] = lab
	reply(w, http.StatusOK, "success", "Lab has been created (60019).", nil)
}

func (s *Server) nodeData(n *Node) map[string]any {
	return map[string]any{
		"id":       n.ID,
		"name":     n.Name,
		"template": n.Template,
		"console":  n.Console,
		"status":   0,
		"url":      n.URL,
	}
}

func (s *Server) listNodes(w http.ResponseWriter) {
	if len(s.nodes) == 0 {
		reply(w, http.StatusOK, "success", "Successfully listed nodes (60026).", []any{})
		return
	}
	data := map[string]any{}
	for id, n := range s.nodes {
		data[strconv.Itoa(id)] = s.nodeData(n)
	}
	reply(w, http.StatusOK, "success", "Successfully listed nodes (60026).", data)
}

func (s *Server) addNode(w http.ResponseWriter, body []byte) {
	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		reply(w, http.StatusBadRequest, "fail", "Invalid body", nil)
		return
	}
	name, _ := req["name"].(string)
	if len(name) == 0 {
		reply(w, http.StatusBadRequest, "fail", "Node name is required", nil)
		return
	}
	template, _ := req["template"].(string)
	console, _ := req["console"].(string)
	count, _ := strconv.Atoi(fmt.Sprint(req["ethernet"]))

	id := s.nextNode
	s.nextNode++
	s.nodes[id] = &Node{
		ID:         id,
		Name:       name,
		Template:   template,
		Console:    console,
		URL:        s.consoleURL(console, id),
		Interfaces: s.InterfaceNames(template, count),
		Attached:   map[string]int{},
		Body:       req,
	}
	reply(w, http.StatusCreated, "success", "Lab has been saved (60023).", map[string]any{"id": id})
}

func (s *Server) lookupNode(w http.ResponseWriter, rawID string) *Node {
	id, _ := strconv.Atoi(rawID)
	n, ok := s.nodes[id]
	if !ok {
		reply(w, http.StatusNotFound, "fail", "Node does not exist (20032).", nil)
		return nil
	}
	return n
}

func (s *Server) getNode(w http.ResponseWriter, rawID string) {
	if n := s.lookupNode(w, rawID); n != nil {
		reply(w, http.StatusOK, "success", "Successfully listed node (60025).", s.nodeData(n))
	}
}

func (s *Server) getInterfaces(w http.ResponseWriter, rawID string) {
	n := s.lookupNode(w, rawID)
	if n == nil {
		return
	}
	ethernet := make([]map[string]any, 0, len(n.Interfaces))
	for i, name := range n.Interfaces {
		ethernet = append(ethernet, map[string]any{
			"name":       name,
			"network_id": n.Attached[strconv.Itoa(i)],
		})
	}
	reply(w, http.StatusOK, "success", "Successfully listed node interfaces (60030).", map[string]any{
		"id":       n.ID,
		"sort":     n.Template,
		"ethernet": ethernet,
		"serial":   []any{},
	})
}

func (s *Server) putInterfaces(w http.ResponseWriter, rawID string, body []byte) {
	n := s.lookupNode(w, rawID)
	if n == nil {
		return
	}
	var update map[string]int
	if err := json.Unmarshal(body, &update); err != nil {
		reply(w, http.StatusBadRequest, "fail", "Invalid body", nil)
		return
	}
	for index, networkID := range update {
		n.Attached[index] = networkID
	}
	reply(w, http.StatusCreated, "success", "Lab has been saved (60023).", nil)
}

func (s *Server) listNetworks(w http.ResponseWriter) {
	if len(s.networks) == 0 {
		reply(w, http.StatusOK, "success", "Successfully listed networks (60004).", []any{})
		return
	}
	data := map[string]any{}
	for id, n := range s.networks {
		visibility, _ := strconv.Atoi(n.Visibility)
		data[strconv.Itoa(id)] = map[string]any{
			"id":         id,
			"name":       n.Name,
			"type":       n.Type,
			"visibility": visibility,
		}
	}
	reply(w, http.StatusOK, "success", "Successfully listed networks (60004).", data)
}

func (s *Server) addNetwork(w http.ResponseWriter, body []byte) {
	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		reply(w, http.StatusBadRequest, "fail", "Invalid body", nil)
		return
	}
	id := s.nextNet
	s.nextNet++
	s.networks[id] = &Network{
		ID:         id,
		Name:       fmt.Sprint(req["name"]),
		Type:       fmt.Sprint(req["type"]),
		Visibility: fmt.Sprint(req["visibility"]),
	}
	reply(w, http.StatusCreated, "success", "Network has been added to the lab (60006).", map[string]any{"id": id})
}

func (s *Server) putNetwork(w http.ResponseWriter, rawID string, body []byte) {
	id, _ := strconv.Atoi(rawID)
	n, ok := s.networks[id]
	if !ok {
		reply(w, http.StatusNotFound, "fail", "Network does not exist", nil)
		return
	}
	var update map[string]any
	if err := json.Unmarshal(body, &update); err != nil {
		reply(w, http.StatusBadRequest, "fail", "Invalid body", nil)
		return
	}
	if v, ok := update["visibility"]; ok {
		n.Visibility = fmt.Sprint(v)
	}
	reply(w, http.StatusCreated, "success", "Lab has been saved (60023).", nil)
}
