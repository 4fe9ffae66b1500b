package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"fridgemap/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the fridges table. It is safe to apply more than once.
//
//go:embed schema.sql
var Schema string

// Database is the subset of *pgxpool.Pool the repository needs.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Repository stores fridge records in PostgreSQL. Descriptive fields live in a JSONB column.
type Repository struct {
	db Database
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}

const fridgeColumns = `id::text, latitude, longitude, fields, created_at, updated_at`

// Migrate applies the schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("repository: failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// InsertFridge stores a new fridge under a freshly assigned identifier and returns the stored record.
func (r *Repository) InsertFridge(ctx context.Context, fridge models.Fridge) (*models.Fridge, error) {
	if fridge.Location == nil {
		return nil, fmt.Errorf("repository: %w: location is required", models.ErrValidation)
	}

	fields, err := encodeFields(fridge.Fields)
	if err != nil {
		return nil, err
	}

	sql := `
		INSERT INTO fridges (id, latitude, longitude, fields)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING ` + fridgeColumns

	row := r.db.QueryRow(ctx, sql, uuid.NewString(), fridge.Location.Lat, fridge.Location.Lon, fields)
	stored, err := scanFridge(row)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert fridge: %w", err)
	}
	return stored, nil
}

// FindFridgeByID returns the fridge with the given identifier or models.ErrNotFound.
func (r *Repository) FindFridgeByID(ctx context.Context, id string) (*models.Fridge, error) {
	sql := `SELECT ` + fridgeColumns + ` FROM fridges WHERE id = $1`

	fridge, err := scanFridge(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository: %w: %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("repository: failed to find fridge: %w", err)
	}
	return fridge, nil
}

// ListFridges returns every fridge in insertion order.
func (r *Repository) ListFridges(ctx context.Context) ([]models.Fridge, error) {
	sql := `SELECT ` + fridgeColumns + ` FROM fridges ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute list query: %w", err)
	}
	defer rows.Close()

	fridges := make([]models.Fridge, 0)
	for rows.Next() {
		fridge, err := scanFridge(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan fridge: %w", err)
		}
		fridges = append(fridges, *fridge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return fridges, nil
}

// UpdateFridgeFields merges fields into the stored document and, when loc is set, moves the fridge.
// Fields that are not named keep their stored value.
func (r *Repository) UpdateFridgeFields(
	ctx context.Context,
	id string,
	loc *models.Location,
	fields map[string]json.RawMessage,
) (*models.Fridge, error) {
	patch, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}

	var lat, lon *float64
	if loc != nil {
		lat, lon = &loc.Lat, &loc.Lon
	}

	sql := `
		UPDATE fridges
		SET
			latitude = COALESCE($2, latitude),
			longitude = COALESCE($3, longitude),
			fields = fields || $4::jsonb,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + fridgeColumns

	fridge, err := scanFridge(r.db.QueryRow(ctx, sql, id, lat, lon, patch))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository: %w: %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("repository: failed to update fridge: %w", err)
	}
	return fridge, nil
}

// AppendFridgeImage adds url to the end of the fridge's images array in a single statement.
func (r *Repository) AppendFridgeImage(ctx context.Context, id, url string) (*models.Fridge, error) {
	sql := `
		UPDATE fridges
		SET
			fields = fields || jsonb_build_object(
				'images', COALESCE(fields->'images', '[]'::jsonb) || to_jsonb($2::text)
			),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + fridgeColumns

	fridge, err := scanFridge(r.db.QueryRow(ctx, sql, id, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository: %w: %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("repository: failed to append image: %w", err)
	}
	return fridge, nil
}

func scanFridge(row pgx.Row) (*models.Fridge, error) {
	var (
		fridge models.Fridge
		loc    models.Location
		fields []byte
	)
	err := row.Scan(
		&fridge.ID,
		&loc.Lat,
		&loc.Lon,
		&fields,
		&fridge.CreatedAt,
		&fridge.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	fridge.Location = &loc

	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &fridge.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields: %w", err)
		}
	}
	if len(fridge.Fields) == 0 {
		fridge.Fields = nil
	}
	return &fridge, nil
}

func encodeFields(fields map[string]json.RawMessage) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("repository: failed to encode fields: %w", err)
	}
	return string(out), nil
}
