package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"InOut/internal/domain/models"
	"InOut/pkg/util"
)

// ReadBarsCSVFile opens path and parses it with ReadBarsCSV.
func ReadBarsCSVFile(path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars csv: %w", err)
	}
	defer f.Close()
	return ReadBarsCSV(f)
}

// ReadBarsCSV parses daily closes with a date,symbol,close header. Dates are
// YYYY-MM-DD. Rows come back sorted by date, then symbol.
func ReadBarsCSV(r io.Reader) ([]models.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"date", "symbol", "close"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var out []models.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, ok := util.ParseTime(strings.TrimSpace(rec[idx["date"]]))
		if !ok {
			return nil, fmt.Errorf("line %d: date %q", line, rec[idx["date"]])
		}
		px, err := strconv.ParseFloat(rec[idx["close"]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: close: %w", line, err)
		}
		sym := strings.ToUpper(strings.TrimSpace(rec[idx["symbol"]]))
		if sym == "" || px <= 0 {
			continue
		}
		out = append(out, models.Bar{Symbol: sym, Time: util.Day(ts), Close: px})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}
