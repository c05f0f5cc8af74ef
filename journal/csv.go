package journal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvHeader is the fixed column set for journal exports.
var csvHeader = []string{"stream_id", "version", "id", "type", "timestamp", "data"}

// WriteCSV writes events to w in the journal's CSV export format, one
// row per event with a header row first.
func WriteCSV(w io.Writer, events []*Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("journal: write csv header: %w", err)
	}
	for _, ev := range events {
		row := []string{
			ev.StreamID,
			strconv.Itoa(ev.Version),
			ev.ID,
			ev.Type,
			ev.Timestamp.UTC().Format(time.RFC3339Nano),
			string(ev.Data),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("journal: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses events previously written by WriteCSV.
func ReadCSV(r io.Reader) ([]*Event, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("journal: read csv header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("journal: csv header has %d columns, want %d", len(header), len(csvHeader))
	}

	var out []*Event
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("journal: read csv line %d: %w", line, err)
		}

		version, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("journal: csv line %d: version %q: %w", line, row[1], err)
		}
		ts, err := time.Parse(time.RFC3339Nano, row[4])
		if err != nil {
			return nil, fmt.Errorf("journal: csv line %d: timestamp %q: %w", line, row[4], err)
		}

		ev := &Event{
			StreamID:  row[0],
			Version:   version,
			ID:        row[2],
			Type:      row[3],
			Timestamp: ts,
		}
		if row[5] != "" {
			ev.Data = json.RawMessage(row[5])
		}
		out = append(out, ev)
	}
	return out, nil
}
