package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/smartmonitor/onboard-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Sessions         map[string]*SessionStats
	Errors           int

	// Outcomes counts finished sessions by result ("SUCCESS" or the
	// failure kind).
	Outcomes map[string]int

	TimeRange struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single provisioning session.
type SessionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Layer      log.Layer
	DeviceName string
	DeviceID   string
	Result     string
	BytesOut   int
	BytesIn    int
}

const resultSuccess = "SUCCESS"

// collectStats aggregates the events of path that match filter.
func collectStats(path string, filter log.Filter) (*Stats, error) {
	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Sessions:         make(map[string]*SessionStats),
		Outcomes:         make(map[string]int),
	}

	err := eachEvent(path, filter, func(event log.Event) error {
		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		s, ok := stats.Sessions[event.SessionID]
		if !ok {
			s = &SessionStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Sessions[event.SessionID] = s
		}
		s.Events++
		if event.Timestamp.After(s.LastSeen) {
			s.LastSeen = event.Timestamp
		}
		if event.Layer != log.LayerSession {
			s.Layer = event.Layer
		}
		if event.DeviceName != "" && s.DeviceName == "" {
			s.DeviceName = event.DeviceName
		}
		if event.DeviceID != "" && s.DeviceID == "" {
			s.DeviceID = event.DeviceID
		}

		switch {
		case event.Frame != nil:
			if event.Direction == log.DirectionOut {
				s.BytesOut += event.Frame.Size
			} else {
				s.BytesIn += event.Frame.Size
			}
		case event.Error != nil:
			stats.Errors++
		case event.Outcome != nil:
			result := resultSuccess
			if !event.Outcome.Success {
				result = event.Outcome.Kind
			}
			s.Result = result
			stats.Outcomes[result]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, filter log.Filter, w io.Writer) error {
	stats, err := collectStats(path, filter)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Provisioning Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerSession, log.LayerRadio, log.LayerAccessPoint} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryFrame, log.CategoryState, log.CategoryError, log.CategoryOutcome} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Outcomes) > 0 {
		fmt.Fprintln(w, "Outcomes:")
		results := make([]string, 0, len(stats.Outcomes))
		for r := range stats.Outcomes {
			results = append(results, r)
		}
		sort.Strings(results)
		for _, r := range results {
			fmt.Fprintf(w, "  %-22s %d\n", r+":", stats.Outcomes[r])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessionInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessionInfo, 0, len(stats.Sessions))
		for id, s := range stats.Sessions {
			sessions = append(sessions, sessionInfo{id, s})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %s, %d events, duration %s\n",
				shortenSessionID(s.id), s.stats.Layer.String(), s.stats.Events, duration)
			if s.stats.DeviceName != "" {
				fmt.Fprintf(w, "             Device: %s\n", s.stats.DeviceName)
			}
			if s.stats.BytesOut > 0 || s.stats.BytesIn > 0 {
				fmt.Fprintf(w, "             Bytes: %d out, %d in\n", s.stats.BytesOut, s.stats.BytesIn)
			}
			if s.stats.Result != "" {
				fmt.Fprintf(w, "             Result: %s\n", s.stats.Result)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
