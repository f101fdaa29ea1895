package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Envelope is the wrapper EVE-NG puts around every API response.
type Envelope struct {
	Code    int             `json:"code"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Envelope) IsSuccess() bool {
	return e != nil && (e.Status == "success" || (e.Code >= 200 && e.Code < 300))
}

// DecodeData unmarshals the data section into out. EVE-NG returns an empty
// JSON array instead of an empty object for labs without nodes or networks,
// so that case leaves out untouched.
func (e *Envelope) DecodeData(out any) error {
	if e == nil {
		return fmt.Errorf("no response")
	}
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("[]")) {
		return nil
	}
	return json.Unmarshal(data, out)
}

// FlexString accepts both JSON strings and numbers. EVE-NG is inconsistent
// about ids and flags, e.g. visibility comes back as 1 or "1".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// LabNode is a node as listed by GET /api/labs/{lab}.unl/nodes.
type LabNode struct {
	ID       FlexString `json:"id"`
	Name     string     `json:"name"`
	Template string     `json:"template"`
	Type     string     `json:"type"`
	Image    string     `json:"image"`
	Console  string     `json:"console"`
	Status   FlexString `json:"status"`
	URL      string     `json:"url"`
}

// LabNetwork is a network (bridge) as listed by GET /api/labs/{lab}.unl/networks.
type LabNetwork struct {
	ID         FlexString `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Visibility FlexString `json:"visibility"`
	Count      FlexString `json:"count"`
}

func (n LabNetwork) IsVisible() bool {
	return n.Visibility.String() == "1"
}

// NodeInterface is one ethernet interface of a node.
type NodeInterface struct {
	Name      string     `json:"name"`
	NetworkID FlexString `json:"network_id"`
}

// NodeInterfaces is the data section of GET /nodes/{id}/interfaces. Qemu
// nodes list ethernet interfaces as an array, IOL and dynamips nodes as an
// object keyed by interface index.
type NodeInterfaces struct {
	Ethernet json.RawMessage `json:"ethernet"`
}

// Indexes maps interface name to the index EVE-NG expects in interface updates.
func (n NodeInterfaces) Indexes() (map[string]string, error) {
	result := map[string]string{}
	raw := bytes.TrimSpace(n.Ethernet)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return result, nil
	}

	if raw[0] == '[' {
		var list []NodeInterface
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("failed to decode ethernet list: %w", err)
		}
		for i, iface := range list {
			result[iface.Name] = strconv.Itoa(i)
		}
		return result, nil
	}

	var keyed map[string]NodeInterface
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, fmt.Errorf("failed to decode ethernet map: %w", err)
	}
	for index, iface := range keyed {
		result[iface.Name] = index
	}
	return result, nil
}

// CreatedObject is the data section returned when a node or network is created.
type CreatedObject struct {
	ID FlexString `json:"id"`
}
