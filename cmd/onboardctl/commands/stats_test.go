package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmonitor/onboard-go/pkg/log"
)

func TestCollectStats(t *testing.T) {
	events := append(sessionEvents("aaaa1111-0000", true), sessionEvents("bbbb2222-0000", false)...)
	events = append(events, log.Event{
		Timestamp: events[0].Timestamp.Add(time.Hour),
		SessionID: "bbbb2222-0000",
		Layer:     log.LayerRadio,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Layer: log.LayerRadio, Message: "link lost"},
	})
	path := createTestLogFile(t, events)

	stats, err := collectStats(path, log.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 9, stats.TotalEvents)
	assert.Equal(t, 4, stats.EventsByCategory[log.CategoryFrame])
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, map[string]int{"SUCCESS": 1, "CONFIRMATION_TIMEOUT": 1}, stats.Outcomes)
	assert.Equal(t, time.Hour, stats.TimeRange.End.Sub(stats.TimeRange.Start))

	require.Len(t, stats.Sessions, 2)
	s := stats.Sessions["aaaa1111-0000"]
	assert.Equal(t, 4, s.Events)
	assert.Equal(t, log.LayerRadio, s.Layer)
	assert.Equal(t, "SmartMonitor_7", s.DeviceName)
	assert.Equal(t, "7", s.DeviceID)
	assert.Equal(t, 52, s.BytesOut)
	assert.Equal(t, 16, s.BytesIn)
	assert.Equal(t, "SUCCESS", s.Result)
}

func TestRunStatsOutput(t *testing.T) {
	path := createTestLogFile(t, append(sessionEvents("aaaa1111-0000", true), sessionEvents("bbbb2222-0000", false)...))

	var buf bytes.Buffer
	require.NoError(t, RunStats(path, log.Filter{}, &buf))
	out := buf.String()

	assert.Contains(t, out, "Total Events: 8")
	assert.Contains(t, out, "RADIO:")
	assert.Contains(t, out, "OUTCOME:")
	assert.Contains(t, out, "CONFIRMATION_TIMEOUT:")
	assert.Contains(t, out, "Sessions: 2")
	assert.Contains(t, out, "[aaaa1111] RADIO, 4 events, duration 1.5s")
	assert.Contains(t, out, "Bytes: 52 out, 16 in")
	assert.NotContains(t, out, "Errors:")
}

func TestRunStatsFiltered(t *testing.T) {
	path := createTestLogFile(t, append(sessionEvents("aaaa1111-0000", true), sessionEvents("bbbb2222-0000", false)...))

	var buf bytes.Buffer
	require.NoError(t, RunStats(path, log.Filter{SessionID: "aaaa"}, &buf))
	assert.Contains(t, buf.String(), "Sessions: 1")
	assert.NotContains(t, buf.String(), "CONFIRMATION_TIMEOUT")
}

func TestRunStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	require.NoError(t, RunStats(path, log.Filter{}, &buf))
	assert.Contains(t, buf.String(), "Total Events: 0")
	assert.NotContains(t, buf.String(), "Time Range")
}
