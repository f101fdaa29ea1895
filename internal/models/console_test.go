package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConsoleURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ConsoleTarget
		wantErr  bool
	}{
		{
			name:     "telnet url",
			input:    "telnet://172.18.18.18:32769",
			expected: ConsoleTarget{Scheme: "telnet", Host: "172.18.18.18", Port: 32769},
		},
		{
			name:     "vnc url",
			input:    "vnc://10.0.0.1:5901",
			expected: ConsoleTarget{Scheme: "vnc", Host: "10.0.0.1", Port: 5901},
		},
		{
			name:     "bare host and port",
			input:    "  lab.local:2001 ",
			expected: ConsoleTarget{Host: "lab.local", Port: 2001},
		},
		{
			name:    "missing port",
			input:   "telnet://172.18.18.18",
			wantErr: true,
		},
		{
			name:    "non numeric port",
			input:   "10.0.0.1:abc",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseConsoleURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConsoleTarget(t *testing.T) {
	target := ConsoleTarget{Scheme: "telnet", Host: "10.0.0.1", Port: 32769}

	assert.True(t, target.IsTelnet())
	assert.Equal(t, "10.0.0.1:32769", target.Address())
	assert.Equal(t, "telnet://10.0.0.1:32769", target.String())

	assert.False(t, ConsoleTarget{Scheme: "vnc", Host: "h", Port: 1}.IsTelnet())
}
