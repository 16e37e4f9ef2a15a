package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadCSV reads candle history from a CSV file with columns
// timestamp,open,high,low,close,volume. Timestamps are unix milliseconds or
// seconds; an optional header row is skipped. Rows must be chronological with
// strictly increasing timestamps.
func LoadCSV(path string) ([]Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer file.Close()

	bars, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parses candle rows from r. See LoadCSV for the expected layout.
func ReadCSV(r io.Reader) ([]Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var bars []Bar
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++

		if len(record) < 6 {
			return nil, fmt.Errorf("row %d: want 6 columns, got %d", line, len(record))
		}
		if line == 1 && isHeader(record) {
			continue
		}

		bar, err := parseBar(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if n := len(bars); n > 0 && !bar.Time.After(bars[n-1].Time) {
			return nil, fmt.Errorf("row %d: timestamp %s not after previous bar", line, bar.Time)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func isHeader(record []string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	return err != nil
}

func parseBar(record []string) (Bar, error) {
	fields := make([]float64, 6)
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		fields[i] = v
	}

	ts := int64(fields[0])
	var at time.Time
	if ts > 1e12 { // milliseconds
		at = time.UnixMilli(ts).UTC()
	} else {
		at = time.Unix(ts, 0).UTC()
	}

	bar := Bar{
		Time:   at,
		Open:   fields[1],
		High:   fields[2],
		Low:    fields[3],
		Close:  fields[4],
		Volume: fields[5],
	}
	if !bar.Valid() {
		return Bar{}, fmt.Errorf("invalid OHLCV %v", fields[1:])
	}
	return bar, nil
}
