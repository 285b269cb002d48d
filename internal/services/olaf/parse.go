package olaf

import (
	"fmt"
	"strconv"
	"strings"
)

// NoMatch is the engine's sentinel label for a sub-window without any match.
const NoMatch = "NO_MATCH"

// MatchRow is one sub-window answer from "olaf monitor". Only MatchName feeds
// the verdict; the remaining columns are retained for diagnostics.
type MatchRow struct {
	QueryIndex   int
	TotalQueries int
	QueryName    string
	MatchName    string
	MatchID      string
	MatchCount   int
	TimeDelta    float64
	RefStart     float64
	RefStop      float64
	QueryTime    float64
}

// IsMatch reports whether the row points at an indexed file.
func (r MatchRow) IsMatch() bool {
	return r.MatchName != "" && r.MatchName != NoMatch
}

// ParseMonitorOutput parses the monitor command's tabular output. The first
// line is a column header and carries no data. Row shape:
//
//	1, 1, extract.mp3, Auf der Flucht.mp3, 4147541459, 63, -199.68, 199.90, 208.32, 8.64
//	1, 1, extract.mp3, NO_MATCH, 0, 0, 0.00, 0.00, 0.00, 0.00
//
// The text protocol is versioned by column count; fewer columns than expected
// is an error so a silent engine change cannot skew verdicts.
func ParseMonitorOutput(lines []string) ([]MatchRow, error) {
	rows := make([]MatchRow, 0, len(lines))
	seenHeader := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !seenHeader {
			seenHeader = true
			continue
		}
		row, err := parseMonitorRow(trimmed)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseMonitorRow(line string) (MatchRow, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 10 {
		return MatchRow{}, fmt.Errorf("monitor row has %d columns, expected 10: %q", len(fields), line)
	}
	for i, field := range fields {
		fields[i] = strings.TrimSpace(field)
	}

	row := MatchRow{
		QueryName: fields[2],
		MatchName: fields[3],
		MatchID:   fields[4],
	}
	var err error
	if row.QueryIndex, err = strconv.Atoi(fields[0]); err != nil {
		return MatchRow{}, fmt.Errorf("query index %q: %w", fields[0], err)
	}
	if row.TotalQueries, err = strconv.Atoi(fields[1]); err != nil {
		return MatchRow{}, fmt.Errorf("total queries %q: %w", fields[1], err)
	}
	if row.MatchCount, err = strconv.Atoi(fields[5]); err != nil {
		return MatchRow{}, fmt.Errorf("match count %q: %w", fields[5], err)
	}
	if row.TimeDelta, err = strconv.ParseFloat(fields[6], 64); err != nil {
		return MatchRow{}, fmt.Errorf("time delta %q: %w", fields[6], err)
	}
	if row.RefStart, err = strconv.ParseFloat(fields[7], 64); err != nil {
		return MatchRow{}, fmt.Errorf("ref start %q: %w", fields[7], err)
	}
	if row.RefStop, err = strconv.ParseFloat(fields[8], 64); err != nil {
		return MatchRow{}, fmt.Errorf("ref stop %q: %w", fields[8], err)
	}
	if row.QueryTime, err = strconv.ParseFloat(fields[9], 64); err != nil {
		return MatchRow{}, fmt.Errorf("query time %q: %w", fields[9], err)
	}
	return row, nil
}
