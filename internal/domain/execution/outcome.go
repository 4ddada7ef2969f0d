package execution

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrEmptyInput rejects source that is blank after trimming.
	ErrEmptyInput = errors.New("empty input")
	// ErrBusy rejects a run while another is in flight.
	ErrBusy = errors.New("a run is already in progress")
)

// Kind classifies a completed round trip.
type Kind uint8

const (
	Success Kind = iota + 1
	LogicalFailure
	TransportFailure
)

var kindNames = map[Kind]string{
	Success:          "success",
	LogicalFailure:   "logical_failure",
	TransportFailure: "transport_failure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown outcome kind %q", b)
}

// Failed reports whether the kind is either failure.
func (k Kind) Failed() bool {
	return k == LogicalFailure || k == TransportFailure
}

// Plot is one rendered figure as returned by the executor.
type Plot struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

// Decode returns the plot bytes and their detected media type. A data URL
// prefix on Image is tolerated.
func (p Plot) Decode() ([]byte, string, error) {
	payload := p.Image
	if strings.HasPrefix(payload, "data:") {
		if i := strings.IndexByte(payload, ','); i >= 0 {
			payload = payload[i+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("plot %s: %w", p.ID, err)
	}
	return data, mimetype.Detect(data).String(), nil
}

// Response is the executor's reply body.
type Response struct {
	Success bool   `json:"success"`
	Plots   []Plot `json:"plots"`
	Console string `json:"console"`
	Error   string `json:"error"`
}

// TransportError is any failure to obtain a well-formed reply.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Outcome is the classified result of one accepted run.
//
// Success carries Console and Plots (possibly none). LogicalFailure carries
// Error and Console. TransportFailure carries Message.
type Outcome struct {
	RunID    string        `json:"runId"`
	Kind     Kind          `json:"kind"`
	Console  string        `json:"console,omitempty"`
	Error    string        `json:"error,omitempty"`
	Message  string        `json:"message,omitempty"`
	Plots    []Plot        `json:"plots,omitempty"`
	Duration time.Duration `json:"durationNs"`
}

// Classify maps an executor reply or error onto an Outcome.
func Classify(resp *Response, err error) *Outcome {
	switch {
	case err != nil:
		return &Outcome{Kind: TransportFailure, Message: err.Error()}
	case resp == nil:
		return &Outcome{Kind: TransportFailure, Message: "empty response from executor"}
	case !resp.Success:
		return &Outcome{Kind: LogicalFailure, Error: resp.Error, Console: resp.Console}
	default:
		return &Outcome{Kind: Success, Console: resp.Console, Plots: resp.Plots}
	}
}
