package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/smartmonitor/onboard-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = "Frame " + event.Direction.String()
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	case event.Outcome != nil:
		typeLabel = "Outcome"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [session:%s] %s %s\n", ts, session, event.Layer.String(), typeLabel)
	if event.DeviceName != "" || event.Address != "" {
		fmt.Fprintf(w, "  Device: %s", event.DeviceName)
		if event.Address != "" {
			fmt.Fprintf(w, " (%s)", event.Address)
		}
		fmt.Fprintln(w)
	}

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	case event.Outcome != nil:
		formatOutcomeDetails(w, event.Outcome)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Record: %s", frame.Record)
	if frame.Codec != "" {
		fmt.Fprintf(w, " (%s)", frame.Codec)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	switch {
	case frame.Redacted:
		fmt.Fprintln(w, "  Data: (redacted)")
	case len(frame.Data) > 0:
		fmt.Fprintf(w, "  Data: %s\n", hex.EncodeToString(frame.Data))
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Step != "" {
		fmt.Fprintf(w, "  Step: %s\n", sc.Step)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Kind != "" {
		fmt.Fprintf(w, "  Kind: %s\n", err.Kind)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

func formatOutcomeDetails(w io.Writer, o *log.OutcomeEvent) {
	if o.Success {
		fmt.Fprintln(w, "  Result: success")
	} else {
		fmt.Fprintf(w, "  Result: %s\n", o.Kind)
		if o.Message != "" {
			fmt.Fprintf(w, "  Message: %s\n", o.Message)
		}
	}
	if o.ConnectivityRestored != nil {
		fmt.Fprintf(w, "  Connectivity restored: %s\n", yesNo(*o.ConnectivityRestored))
	}
	fmt.Fprintf(w, "  Duration: %s\n", formatDuration(o.Duration))
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// parseLayer parses a layer string (case-insensitive).
func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "session":
		return log.LayerSession, nil
	case "radio":
		return log.LayerRadio, nil
	case "ap", "access-point", "access_point":
		return log.LayerAccessPoint, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be session, radio, or ap)", s)
	}
}

// parseDirection parses a direction string (case-insensitive).
func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "outcome":
		return log.CategoryOutcome, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, state, error, or outcome)", s)
	}
}

// filterFlags are the event selection flags of the log commands.
type filterFlags struct {
	session   string
	device    string
	layer     string
	direction string
	category  string
	since     string
	until     string
}

// build converts the flags to a log.Filter.
func (f *filterFlags) build() (log.Filter, error) {
	filter := log.Filter{SessionID: f.session, DeviceID: f.device}

	if f.layer != "" {
		l, err := parseLayer(f.layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if f.direction != "" {
		d, err := parseDirection(f.direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if f.category != "" {
		c, err := parseCategory(f.category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	if f.since != "" {
		t, err := time.Parse(time.RFC3339, f.since)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid --since: %w", err)
		}
		filter.TimeStart = &t
	}
	if f.until != "" {
		t, err := time.Parse(time.RFC3339, f.until)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid --until: %w", err)
		}
		filter.TimeEnd = &t
	}
	return filter, nil
}

// eachEvent calls fn for every event in path matching filter.
func eachEvent(path string, filter log.Filter, fn func(log.Event) error) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

// RunView prints the events of path that match filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	return eachEvent(path, filter, func(event log.Event) error {
		formatEvent(output, event)
		return nil
	})
}
