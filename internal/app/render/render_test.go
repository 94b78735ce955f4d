package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"powermon/internal/app/errors"
	"powermon/internal/app/observation"
)

var ts = time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)

func foundObservation() observation.Observation {
	return observation.Observation{
		Session:   "s-1",
		Sequence:  2,
		Timestamp: ts,
		Target:    observation.ProcessQuery{Name: "notepad.exe"},
		Match: observation.Match{
			Found:     true,
			Detail:    "notepad.exe     4242     1,024 K\n",
			Processes: []observation.ProcessInfo{{PID: 4242, Name: "notepad.exe", RSS: 1 << 20}},
		},
		Sample:   &observation.CPUSample{UtilizationPercent: 80},
		Estimate: &observation.PowerEstimate{Watts: 54},
	}
}

func Test_New(t *testing.T) {
	tests := []struct {
		format    string
		expectErr bool
	}{
		{format: "text"},
		{format: ""},
		{format: "JSON"},
		{format: " yaml "},
		{format: "xml", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := New(tt.format, &bytes.Buffer{})

			if tt.expectErr {
				assert.ErrorIs(t, err, errors.ErrUnknownOutput)
				assert.Nil(t, r)

				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, r)
		})
	}
}

func Test_Text(t *testing.T) {
	tests := []struct {
		name     string
		obs      observation.Observation
		contains []string
		excludes []string
	}{
		{
			name:     "found with estimate",
			obs:      foundObservation(),
			contains: []string{"Process Found:", "notepad.exe     4242", "CPU Usage: 80.00%", "Estimated Power Consumption: 54.00W", separator},
			excludes: []string{"Error:"},
		},
		{
			name: "not found",
			obs: observation.Observation{
				Timestamp: ts,
				Target:    observation.ProcessQuery{Name: "calc.exe"},
			},
			contains: []string{"calc.exe not found or has stopped.", separator},
			excludes: []string{"Process Found:"},
		},
		{
			name: "inspector error",
			obs: observation.Observation{
				Timestamp: ts,
				Target:    observation.ProcessQuery{Name: "calc.exe"},
				Err:       fmt.Errorf("%w: denied", errors.ErrInspectorUnavailable),
			},
			contains: []string{"Error: process inspector unavailable: denied"},
			excludes: []string{"not found"},
		},
		{
			name: "sampler error",
			obs: func() observation.Observation {
				obs := foundObservation()
				obs.Sample, obs.Estimate = nil, nil
				obs.Err = errors.ErrSamplerUnavailable

				return obs
			}(),
			contains: []string{"Process Found:", "Error: cpu sampler unavailable"},
			excludes: []string{"CPU Usage"},
		},
		{
			name: "fatal",
			obs: observation.Observation{
				Timestamp: ts,
				Err:       errors.ErrLoopFault,
				Fatal:     true,
			},
			contains: []string{"Monitoring aborted: monitor loop fault"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Text(tt.obs)

			assert.Contains(t, out, ts.Local().Format(timestampLayout))

			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}

			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func Test_JSON_Observation(t *testing.T) {
	var buf bytes.Buffer

	r, err := New(FormatJSON, &buf)
	require.NoError(t, err)

	require.NoError(t, r.Observation(foundObservation()))
	require.NoError(t, r.Observation(observation.Observation{Sequence: 3, Timestamp: ts, Target: observation.ProcessQuery{Name: "notepad.exe"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))

	assert.Equal(t, "s-1", first.Session)
	assert.True(t, first.Found)
	require.NotNil(t, first.Watts)
	assert.Equal(t, 54.0, *first.Watts)
	assert.Equal(t, int32(4242), first.Processes[0].PID)

	assert.NotContains(t, lines[1], "watts")
	assert.NotContains(t, lines[1], "cpu_percent")
	assert.Contains(t, lines[1], `"found":false`)
}

func Test_YAML_Observation(t *testing.T) {
	var buf bytes.Buffer

	r, err := New(FormatYAML, &buf)
	require.NoError(t, err)

	obs := foundObservation()
	obs.Err = errors.ErrSamplerUnavailable

	require.NoError(t, r.Observation(obs))
	require.NoError(t, r.Observation(obs))

	assert.Equal(t, 2, strings.Count(buf.String(), "---\n"))

	docs := strings.Split(buf.String(), "---\n")

	var rec Record
	require.NoError(t, yaml.Unmarshal([]byte(docs[1]), &rec))

	assert.Equal(t, "notepad.exe", rec.Target)
	assert.Equal(t, "cpu sampler unavailable", rec.Error)
	require.NotNil(t, rec.CPUPercent)
	assert.Equal(t, 80.0, *rec.CPUPercent)
}

func Test_Processes(t *testing.T) {
	tests := []struct {
		format   string
		names    []string
		expected string
	}{
		{format: FormatText, names: []string{"chrome.exe", "svchost.exe"}, expected: "chrome.exe\nsvchost.exe\n"},
		{format: FormatText, names: nil, expected: ""},
		{format: FormatJSON, names: []string{"chrome.exe"}, expected: "[\"chrome.exe\"]\n"},
		{format: FormatJSON, names: nil, expected: "[]\n"},
		{format: FormatYAML, names: []string{"chrome.exe"}, expected: "---\n- chrome.exe\n"},
		{format: FormatYAML, names: nil, expected: "---\n[]\n"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.format, len(tt.names)), func(t *testing.T) {
			var buf bytes.Buffer

			r, err := New(tt.format, &buf)
			require.NoError(t, err)

			require.NoError(t, r.Processes(tt.names))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}
