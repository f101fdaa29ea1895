package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeDecodeData(t *testing.T) {
	t.Run("object data", func(t *testing.T) {
		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(`{"code":200,"status":"success","message":"ok","data":{"1":{"id":1,"name":"r1","url":"telnet://h:1"}}}`), &env))
		assert.True(t, env.IsSuccess())

		nodes := map[string]LabNode{}
		require.NoError(t, env.DecodeData(&nodes))
		assert.Equal(t, "r1", nodes["1"].Name)
		assert.Equal(t, "1", nodes["1"].ID.String())
	})

	t.Run("empty array leaves target untouched", func(t *testing.T) {
		env := Envelope{Status: "success", Data: json.RawMessage(`[]`)}
		nodes := map[string]LabNode{}
		require.NoError(t, env.DecodeData(&nodes))
		assert.Empty(t, nodes)
	})

	t.Run("nil envelope", func(t *testing.T) {
		var env *Envelope
		assert.False(t, env.IsSuccess())
		assert.Error(t, env.DecodeData(&map[string]any{}))
	})
}

func TestNetworkVisibility(t *testing.T) {
	var networks map[string]LabNetwork
	require.NoError(t, json.Unmarshal([]byte(`{
		"1": {"id": 1, "name": "mgmt", "visibility": 1},
		"2": {"id": 2, "name": "Bridge_invisible", "visibility": "0"},
		"3": {"id": 3, "name": "core", "visibility": "1"}
	}`), &networks))

	assert.True(t, networks["1"].IsVisible())
	assert.False(t, networks["2"].IsVisible())
	assert.True(t, networks["3"].IsVisible())
}

func TestNodeInterfacesIndexes(t *testing.T) {
	t.Run("list form uses position", func(t *testing.T) {
		ifaces := NodeInterfaces{Ethernet: json.RawMessage(`[{"name":"Mgmt","network_id":0},{"name":"1/1/1","network_id":3}]`)}
		indexes, err := ifaces.Indexes()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Mgmt": "0", "1/1/1": "1"}, indexes)
	})

	t.Run("map form uses keys", func(t *testing.T) {
		ifaces := NodeInterfaces{Ethernet: json.RawMessage(`{"0":{"name":"e0/0"},"16":{"name":"e0/1"}}`)}
		indexes, err := ifaces.Indexes()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"e0/0": "0", "e0/1": "16"}, indexes)
	})

	t.Run("missing ethernet", func(t *testing.T) {
		indexes, err := NodeInterfaces{}.Indexes()
		require.NoError(t, err)
		assert.Empty(t, indexes)
	})
}

func TestNodeRequestBuilders(t *testing.T) {
	cpm := SROSCPMNode{
		Image:             "timoscpm-20.7.R2",
		Name:              "7750_test_1",
		ManagementAddress: "10.1.1.1/24",
		TimosLine:         "slot=A chassis=SR-12 card=cpm5",
		Left:              "200",
		Top:               "300",
	}.Request()

	assert.Equal(t, "timoscpm", cpm.Template)
	assert.Equal(t, "qemu", cpm.Type)
	assert.Equal(t, "telnet", cpm.Console)
	assert.Equal(t, "2", cpm.Ethernet)
	assert.Equal(t, "10.1.1.1/24", cpm.ManagementAddress)
	assert.Equal(t, cpm.QemuOptions, cpm.ROQemuOptions)

	iom := SROSIOMNode{Image: "timosiom-20.7.R2", Name: "iom"}.Request()
	assert.Equal(t, "timosiom", iom.Template)
	assert.Equal(t, "10", iom.Ethernet)
	assert.Equal(t, "SROS linecard.png", iom.Icon)

	linux := LinuxNode{Image: "linux-centos7", Name: "srv", CPU: "2", RAM: "4096"}.Request()
	assert.Equal(t, "vnc", linux.Console)
	assert.Equal(t, "4096", linux.RAM)

	body, err := json.Marshal(linux)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "timos_line")
	assert.Contains(t, string(body), `"postfix":0`)
}
