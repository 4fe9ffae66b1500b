package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fridgemap/internal/config"
	"fridgemap/internal/models"
	"fridgemap/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// FridgeRecord is one CSV row: a location plus the remaining columns as text fields.
type FridgeRecord struct {
	Location models.Location
	Fields   map[string]string
}

func main() {
	file := flag.String("file", "", "Path to the CSV file to import")
	configPath := flag.String("config", "configs", "Directory containing app.env")
	flag.Parse()

	if *file == "" {
		log.Fatal().Msg("--file flag is required")
	}

	log.Info().Str("file", *file).Msg("starting import")

	records, err := parseCSVFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse CSV")
	}

	log.Info().Int("records", len(records)).Msg("parsed records")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, repository.Schema); err != nil {
		log.Fatal().Err(err).Msg("cannot create schema")
	}

	before, err := countFridges(ctx, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot count fridges")
	}

	copied, err := insertRecords(ctx, conn, records)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot insert records")
	}

	after, err := countFridges(ctx, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot count fridges")
	}
	if after-before != int(copied) {
		log.Fatal().Int64("copied", copied).Int("added", after-before).Msg("record count mismatch")
	}

	log.Info().Int64("records", copied).Int("total", after).Msg("import finished")
}

func parseCSVFile(path string) ([]FridgeRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return parseCSV(file)
}

// parseCSV reads a header row followed by one fridge per row. The header must
// contain lat and lon columns; every other non-empty cell becomes a text field.
func parseCSV(r io.Reader) ([]FridgeRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	latCol, lonCol := -1, -1
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		header[i] = name
		switch name {
		case "lat", "latitude":
			latCol = i
		case "lon", "lng", "longitude":
			lonCol = i
		case models.KeyID, models.KeyLocation, models.KeyCreatedAt, models.KeyUpdatedAt, "":
			return nil, fmt.Errorf("column name %q is not allowed", name)
		}
	}
	if latCol < 0 || lonCol < 0 {
		return nil, errors.New("header must contain lat and lon columns")
	}

	validate := validator.New()
	var records []FridgeRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(row[latCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude: %s", line, row[latCol])
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(row[lonCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude: %s", line, row[lonCol])
		}

		rec := FridgeRecord{Location: models.Location{Lat: lat, Lon: lon}, Fields: make(map[string]string)}
		if err := validate.Struct(rec.Location); err != nil {
			return nil, fmt.Errorf("line %d: location out of range: %w", line, err)
		}
		for i, cell := range row {
			if i == latCol || i == lonCol || strings.TrimSpace(cell) == "" {
				continue
			}
			rec.Fields[header[i]] = cell
		}
		records = append(records, rec)
	}

	return records, nil
}

func insertRecords(ctx context.Context, conn *pgx.Conn, records []FridgeRecord) (int64, error) {
	return conn.CopyFrom(
		ctx,
		pgx.Identifier{"fridges"},
		[]string{"id", "latitude", "longitude", "fields"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			fields, err := json.Marshal(r.Fields)
			if err != nil {
				return nil, err
			}
			return []any{uuid.New(), r.Location.Lat, r.Location.Lon, string(fields)}, nil
		}),
	)
}

func countFridges(ctx context.Context, conn *pgx.Conn) (int, error) {
	var count int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM fridges").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
