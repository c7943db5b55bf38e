// Package gateway reads batch inputs from CSV and writes batch outputs to CSV.
package gateway

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/drainwatch/internal/domain/model"
	"github.com/okian/drainwatch/pkg/logger"
)

// Source names used in ingest reports and metrics.
const (
	SourceReadings = "readings"
	SourceTickets  = "tickets"
	SourceVessels  = "vessels"
)

const defaultMaxErrors = 100

// CSVReader parses the readings, tickets and vessels inputs. Malformed
// records are dropped and accounted for in the returned IngestReport.
type CSVReader struct {
	maxErrors int
}

// NewCSVReader creates a reader instance.
func NewCSVReader(opts ...Option) *CSVReader {
	r := &CSVReader{maxErrors: defaultMaxErrors}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadReadingsFile opens path and parses it with ParseReadings. Readings are
// required, so a missing file is an error.
func (r *CSVReader) ReadReadingsFile(ctx context.Context, path string) ([]model.Reading, model.IngestReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.IngestReport{Source: SourceReadings}, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	defer func() { _ = f.Close() }()
	return r.ParseReadings(ctx, f)
}

// ReadTicketsFile opens path and parses it with ParseTickets. A missing file
// yields an empty set with Missing set on the report.
func (r *CSVReader) ReadTicketsFile(ctx context.Context, path string) ([]model.Ticket, model.IngestReport, error) {
	f, rep, err := openOptional(path, SourceTickets)
	if f == nil {
		return nil, rep, err
	}
	defer func() { _ = f.Close() }()
	return r.ParseTickets(ctx, f)
}

// ReadVesselsFile opens path and parses it with ParseVessels. A missing file
// yields an empty set with Missing set on the report.
func (r *CSVReader) ReadVesselsFile(ctx context.Context, path string) ([]model.Vessel, model.IngestReport, error) {
	f, rep, err := openOptional(path, SourceVessels)
	if f == nil {
		return nil, rep, err
	}
	defer func() { _ = f.Close() }()
	return r.ParseVessels(ctx, f)
}

func openOptional(path, source string) (*os.File, model.IngestReport, error) {
	rep := model.IngestReport{Source: source}
	if path == "" {
		rep.Missing = true
		return nil, rep, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		rep.Missing = true
		return nil, rep, nil
	}
	if err != nil {
		return nil, rep, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	return f, rep, nil
}

// ParseReadings reads level samples. The wide form has a timestamp column
// followed by one column per vessel. The long form has timestamp, a vessel
// column (vessel_id or cauldron_id) and level. Each (row, vessel) cell is one
// record; an empty cell is a missing sample and is not counted.
func (r *CSVReader) ParseReadings(ctx context.Context, in io.Reader) ([]model.Reading, model.IngestReport, error) {
	rep := model.IngestReport{Source: SourceReadings}
	cr := newCSV(in)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, rep, nil
	}
	if err != nil {
		return nil, rep, fmt.Errorf("%w: %s: %w", ErrHeader, SourceReadings, err)
	}
	cols := columns(header)
	tsIdx, ok := cols.find("timestamp", "time")
	if !ok {
		return nil, rep, fmt.Errorf("%w: %s: timestamp", ErrMissingColumn, SourceReadings)
	}
	vesselIdx, hasVessel := cols.find("vessel_id", "cauldron_id")
	levelIdx, hasLevel := cols.find("level")
	long := hasVessel && hasLevel

	log := logger.Get().Named("gateway")
	var out []model.Reading
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, rep, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.drop(ctx, log, &rep, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		ts, err := parseTime(field(record, tsIdx))
		if err != nil {
			r.drop(ctx, log, &rep, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		if long {
			id := strings.TrimSpace(field(record, vesselIdx))
			if id == "" {
				r.drop(ctx, log, &rep, fmt.Sprintf("line %d: empty vessel id", line))
				continue
			}
			if rd, ok := r.cell(ctx, log, &rep, line, id, ts, field(record, levelIdx)); ok {
				out = append(out, rd)
			}
			continue
		}

		for i, name := range header {
			id := strings.TrimSpace(name)
			if i == tsIdx || id == "" {
				continue
			}
			if rd, ok := r.cell(ctx, log, &rep, line, id, ts, field(record, i)); ok {
				out = append(out, rd)
			}
		}
	}

	log.Info(ctx, "readings parsed",
		logger.Int("total", rep.Total),
		logger.Int("accepted", rep.Accepted),
		logger.Int("dropped", rep.Dropped),
	)
	return out, rep, nil
}

func (r *CSVReader) cell(ctx context.Context, log logger.Logger, rep *model.IngestReport, line int, id string, ts time.Time, raw string) (model.Reading, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Reading{}, false
	}
	level, err := strconv.ParseFloat(raw, 64)
	if err != nil || isBad(level) || level < 0 {
		r.drop(ctx, log, rep, fmt.Sprintf("line %d: vessel %s: invalid level %q", line, id, raw))
		return model.Reading{}, false
	}
	rep.Accept()
	return model.Reading{VesselID: id, Time: ts, Level: level}, true
}

// ParseTickets reads collection tickets with columns ticket_id (optional),
// cauldron_id or vessel_id, date and amount_collected or amount. An
// unparseable date keeps the ticket with DateValid unset.
func (r *CSVReader) ParseTickets(ctx context.Context, in io.Reader) ([]model.Ticket, model.IngestReport, error) {
	rep := model.IngestReport{Source: SourceTickets}
	cr := newCSV(in)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, rep, nil
	}
	if err != nil {
		return nil, rep, fmt.Errorf("%w: %s: %w", ErrHeader, SourceTickets, err)
	}
	cols := columns(header)
	vesselIdx, ok := cols.find("cauldron_id", "vessel_id")
	if !ok {
		return nil, rep, fmt.Errorf("%w: %s: cauldron_id", ErrMissingColumn, SourceTickets)
	}
	dateIdx, ok := cols.find("date")
	if !ok {
		return nil, rep, fmt.Errorf("%w: %s: date", ErrMissingColumn, SourceTickets)
	}
	amountIdx, ok := cols.find("amount_collected", "amount")
	if !ok {
		return nil, rep, fmt.Errorf("%w: %s: amount_collected", ErrMissingColumn, SourceTickets)
	}
	idIdx, hasID := cols.find("ticket_id", "id")

	log := logger.Get().Named("gateway")
	var out []model.Ticket
	for row := 0; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, rep, err
		}
		line := row + 2
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.drop(ctx, log, &rep, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		vessel := strings.TrimSpace(field(record, vesselIdx))
		if vessel == "" {
			r.drop(ctx, log, &rep, fmt.Sprintf("line %d: empty vessel id", line))
			continue
		}
		rawAmount := strings.TrimSpace(field(record, amountIdx))
		amount, err := strconv.ParseFloat(rawAmount, 64)
		if err != nil || isBad(amount) || amount < 0 {
			r.drop(ctx, log, &rep, fmt.Sprintf("line %d: invalid amount %q", line, rawAmount))
			continue
		}

		t := model.Ticket{ID: strconv.Itoa(row), VesselID: vessel, Amount: amount}
		if hasID {
			if id := strings.TrimSpace(field(record, idIdx)); id != "" {
				t.ID = id
			}
		}
		if d, err := parseTime(field(record, dateIdx)); err == nil {
			t.Date = d
			t.DateValid = true
		} else {
			log.Debug(ctx, "ticket date unparseable", logger.String("ticket_id", t.ID), logger.Error(err))
		}

		rep.Accept()
		out = append(out, t)
	}

	log.Info(ctx, "tickets parsed",
		logger.Int("total", rep.Total),
		logger.Int("accepted", rep.Accepted),
		logger.Int("dropped", rep.Dropped),
	)
	return out, rep, nil
}

// ParseVessels reads vessel metadata with columns id, name, latitude,
// longitude and max_volume. Blank numeric fields read as zero.
func (r *CSVReader) ParseVessels(ctx context.Context, in io.Reader) ([]model.Vessel, model.IngestReport, error) {
	rep := model.IngestReport{Source: SourceVessels}
	cr := newCSV(in)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, rep, nil
	}
	if err != nil {
		return nil, rep, fmt.Errorf("%w: %s: %w", ErrHeader, SourceVessels, err)
	}
	cols := columns(header)
	idIdx, ok := cols.find("id", "vessel_id", "cauldron_id")
	if !ok {
		return nil, rep, fmt.Errorf("%w: %s: id", ErrMissingColumn, SourceVessels)
	}
	nameIdx, _ := cols.find("name")
	latIdx, _ := cols.find("latitude")
	lonIdx, _ := cols.find("longitude")
	maxIdx, _ := cols.find("max_volume")

	log := logger.Get().Named("gateway")
	var out []model.Vessel
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, rep, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.drop(ctx, log, &rep, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		v := model.Vessel{
			ID:   strings.TrimSpace(field(record, idIdx)),
			Name: strings.TrimSpace(field(record, nameIdx)),
		}
		if v.ID == "" {
			r.drop(ctx, log, &rep, fmt.Sprintf("line %d: empty vessel id", line))
			continue
		}
		var perr error
		v.Latitude, perr = optionalFloat(field(record, latIdx), perr)
		v.Longitude, perr = optionalFloat(field(record, lonIdx), perr)
		v.MaxVolume, perr = optionalFloat(field(record, maxIdx), perr)
		if perr != nil {
			r.drop(ctx, log, &rep, fmt.Sprintf("line %d: %v", line, perr))
			continue
		}

		rep.Accept()
		out = append(out, v)
	}

	log.Info(ctx, "vessels parsed", logger.Int("accepted", rep.Accepted), logger.Int("dropped", rep.Dropped))
	return out, rep, nil
}

func (r *CSVReader) drop(ctx context.Context, log logger.Logger, rep *model.IngestReport, reason string) {
	rep.Drop(reason, r.maxErrors)
	log.Debug(ctx, "record dropped", logger.String("source", rep.Source), logger.String("reason", reason))
}

func newCSV(in io.Reader) *csv.Reader {
	cr := csv.NewReader(in)
	// Allow ragged rows; missing trailing cells read as empty.
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false
	return cr
}

type headerMap map[string]int

func columns(header []string) headerMap {
	m := make(headerMap, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := m[key]; !dup {
			m[key] = i
		}
	}
	return m
}

func (h headerMap) find(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := h[n]; ok {
			return i, true
		}
	}
	return -1, false
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func optionalFloat(raw string, prev error) (float64, error) {
	if prev != nil {
		return 0, prev
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || isBad(v) {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
