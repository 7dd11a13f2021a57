package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/smartmonitor/onboard-go/pkg/log"
)

// RunExport writes the events of path matching filter in format to output,
// or to stdout when output is empty.
func RunExport(path string, filter log.Filter, format, output string, stdout io.Writer) error {
	var write func(io.Writer) error
	switch format {
	case "jsonl":
		write = func(w io.Writer) error { return exportJSONL(path, filter, w) }
	case "csv":
		write = func(w io.Writer) error { return exportCSV(path, filter, w) }
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	if output == "" {
		return write(stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportJSONL(path string, filter log.Filter, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return eachEvent(path, filter, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

func exportCSV(path string, filter log.Filter, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "session_id", "layer", "category", "direction", "device_name", "device_id", "type", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	err := eachEvent(path, filter, func(event log.Event) error {
		eventType, detail, direction := "unknown", "", ""
		switch {
		case event.Frame != nil:
			eventType = "frame"
			detail = event.Frame.Record + ":" + strconv.Itoa(event.Frame.Size)
			direction = event.Direction.String()
		case event.StateChange != nil:
			eventType = "state"
			detail = event.StateChange.NewState
		case event.Error != nil:
			eventType = "error"
			detail = event.Error.Message
		case event.Outcome != nil:
			eventType = "outcome"
			detail = resultSuccess
			if !event.Outcome.Success {
				detail = event.Outcome.Kind
			}
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.Layer.String(),
			event.Category.String(),
			direction,
			event.DeviceName,
			event.DeviceID,
			eventType,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}
