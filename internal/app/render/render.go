package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"powermon/internal/app/errors"
	"powermon/internal/app/observation"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	separator       = "-------------------------------------------"
)

// Renderer writes observations and process lists in one output format
type Renderer interface {
	Observation(obs observation.Observation) error
	Processes(names []string) error
}

// Process is the serialised form of a matched process
type Process struct {
	PID  int32  `json:"pid" yaml:"pid"`
	Name string `json:"name" yaml:"name"`
	RSS  uint64 `json:"rss_bytes" yaml:"rss_bytes"`
}

// Record is the serialised form of an observation
type Record struct {
	Session    string    `json:"session" yaml:"session"`
	Sequence   uint64    `json:"sequence" yaml:"sequence"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Target     string    `json:"target" yaml:"target"`
	Found      bool      `json:"found" yaml:"found"`
	Processes  []Process `json:"processes,omitempty" yaml:"processes,omitempty"`
	CPUPercent *float64  `json:"cpu_percent,omitempty" yaml:"cpu_percent,omitempty"`
	Watts      *float64  `json:"watts,omitempty" yaml:"watts,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	Fatal      bool      `json:"fatal,omitempty" yaml:"fatal,omitempty"`
}

// NewRecord converts an observation into its serialised form
func NewRecord(obs observation.Observation) Record {
	r := Record{
		Session:   obs.Session,
		Sequence:  obs.Sequence,
		Timestamp: obs.Timestamp,
		Target:    obs.Target.Name,
		Found:     obs.Match.Found,
		Fatal:     obs.Fatal,
	}

	for _, p := range obs.Match.Processes {
		r.Processes = append(r.Processes, Process{PID: p.PID, Name: p.Name, RSS: p.RSS})
	}

	if obs.Sample != nil {
		cpu := obs.Sample.UtilizationPercent
		r.CPUPercent = &cpu
	}

	if obs.Estimate != nil {
		watts := obs.Estimate.Watts
		r.Watts = &watts
	}

	if obs.Err != nil {
		r.Error = obs.Err.Error()
	}

	return r
}

// New creates a Renderer writing to w in the given format
func New(format string, w io.Writer) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatText, "":
		return &textRenderer{w: w}, nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)

		return &jsonRenderer{enc: enc}, nil
	case FormatYAML:
		return &yamlRenderer{w: w}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownOutput, format)
	}
}

// Text formats one observation as a human-readable block
func Text(obs observation.Observation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n[%s]\n", obs.Timestamp.Local().Format(timestampLayout))

	switch {
	case obs.Fatal:
		fmt.Fprintf(&b, "Monitoring aborted: %v\n", obs.Err)
	case obs.Match.Found:
		b.WriteString("Process Found:\n")
		b.WriteString(obs.Match.Detail)

		if obs.HasEstimate() {
			fmt.Fprintf(&b, "CPU Usage: %.2f%%\n", obs.Sample.UtilizationPercent)
			fmt.Fprintf(&b, "Estimated Power Consumption: %.2fW\n", obs.Estimate.Watts)
		}

		if obs.Err != nil {
			fmt.Fprintf(&b, "Error: %v\n", obs.Err)
		}
	case obs.Err != nil:
		fmt.Fprintf(&b, "Error: %v\n", obs.Err)
	default:
		fmt.Fprintf(&b, "%s not found or has stopped.\n", obs.Target.Name)
	}

	b.WriteString(separator + "\n")

	return b.String()
}

type textRenderer struct {
	w io.Writer
}

func (r *textRenderer) Observation(obs observation.Observation) error {
	_, err := io.WriteString(r.w, Text(obs))
	return err
}

func (r *textRenderer) Processes(names []string) error {
	for _, name := range names {
		if _, err := fmt.Fprintln(r.w, name); err != nil {
			return err
		}
	}

	return nil
}

// jsonRenderer writes one JSON document per line
type jsonRenderer struct {
	enc *json.Encoder
}

func (r *jsonRenderer) Observation(obs observation.Observation) error {
	return r.enc.Encode(NewRecord(obs))
}

func (r *jsonRenderer) Processes(names []string) error {
	if names == nil {
		names = []string{}
	}

	return r.enc.Encode(names)
}

// yamlRenderer writes a stream of YAML documents
type yamlRenderer struct {
	w io.Writer
}

func (r *yamlRenderer) Observation(obs observation.Observation) error {
	return r.write(NewRecord(obs))
}

func (r *yamlRenderer) Processes(names []string) error {
	if names == nil {
		names = []string{}
	}

	return r.write(names)
}

func (r *yamlRenderer) write(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(r.w, "---\n"); err != nil {
		return err
	}

	_, err = r.w.Write(data)

	return err
}
