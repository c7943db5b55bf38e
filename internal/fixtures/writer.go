package fixtures

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// WriteFleet writes the readings (wide form), tickets, vessels and
// expectations files into dir.
func WriteFleet(dir string, fleet Fleet, expect []Expectation) error {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := writeCSV(filepath.Join(dir, ReadingsFile), readingRows(fleet)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, TicketsFile), ticketRows(fleet)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, VesselsFile), vesselRows(fleet)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(expect, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal expectations: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ExpectationsFile), data, filePermission); err != nil {
		return fmt.Errorf("failed to write expectations: %w", err)
	}
	return nil
}

// readingRows lays readings out as one row per timestamp and one column per
// vessel. Every vessel has a sample at every timestamp.
func readingRows(fleet Fleet) [][]string {
	col := make(map[string]int, len(fleet.VesselIDs))
	header := []string{"timestamp"}
	for i, id := range fleet.VesselIDs {
		col[id] = i + 1
		header = append(header, id)
	}

	rows := [][]string{header}
	rowAt := make(map[time.Time]int)
	for _, r := range fleet.Readings {
		idx, ok := rowAt[r.Time]
		if !ok {
			idx = len(rows)
			rowAt[r.Time] = idx
			row := make([]string, len(header))
			row[0] = r.Time.Format(time.RFC3339)
			rows = append(rows, row)
		}
		rows[idx][col[r.VesselID]] = strconv.FormatFloat(r.Level, 'f', -1, 64)
	}
	return rows
}

func ticketRows(fleet Fleet) [][]string {
	rows := [][]string{{"ticket_id", "cauldron_id", "date", "amount_collected"}}
	for _, t := range fleet.Tickets {
		rows = append(rows, []string{t.ID, t.VesselID, t.Date.Format("2006-01-02"), strconv.FormatFloat(t.Amount, 'f', -1, 64)})
	}
	return rows
}

func vesselRows(fleet Fleet) [][]string {
	rows := [][]string{{"id", "name", "latitude", "longitude", "max_volume"}}
	for _, v := range fleet.Vessels {
		rows = append(rows, []string{
			v.ID, v.Name,
			strconv.FormatFloat(v.Latitude, 'f', -1, 64),
			strconv.FormatFloat(v.Longitude, 'f', -1, 64),
			strconv.FormatFloat(v.MaxVolume, 'f', -1, 64),
		})
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
