package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"instrument-tracker/internal/models"
	"instrument-tracker/internal/utils"
)

const instrumentColumns = `id, name, location, calibration_required, calibration_period,
	last_calibration_date, next_calibration_date, notes, created_at, updated_at`

// SQLProvider implements Provider on top of sqlx. Queries are written with
// "?" placeholders and rebound for the driver in use.
type SQLProvider struct {
	db     *sqlx.DB
	driver string

	// now is replaceable in tests
	now func() time.Time

	logger *slog.Logger
}

func NewSQLProvider(driverName string, dataSource string) (*SQLProvider, error) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil, err
	}
	return newSQLProvider(db, driverName), nil
}

func newSQLProvider(db *sqlx.DB, driverName string) *SQLProvider {
	return &SQLProvider{
		db:     db,
		driver: driverName,
		now:    time.Now,
		logger: slog.With("component", "storage", "driver", driverName),
	}
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *SQLProvider) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return unavailable(p.driver, "ping", err)
	}
	return nil
}

// GetSchemaVersion returns the latest applied migration, 0 for an empty database.
func (p *SQLProvider) GetSchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := p.db.GetContext(ctx, &version, "SELECT MAX(version) FROM schema_migrations")
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return -1, unavailable(p.driver, "schema version", err)
	}
	return int(version.Int64), nil
}

func (p *SQLProvider) runMigrations(ctx context.Context) error {
	runner := NewMigrationRunner(p.driver)
	runner.db = p.db.DB

	current, err := p.GetSchemaVersion(ctx)
	if err != nil {
		return err
	}
	return runner.Migrate(ctx, current, -1)
}

func (p *SQLProvider) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	instruments := []models.Instrument{}
	query := "SELECT " + instrumentColumns + " FROM instruments ORDER BY created_at DESC"
	if err := p.db.SelectContext(ctx, &instruments, query); err != nil {
		return nil, unavailable(p.driver, "list", err)
	}
	return instruments, nil
}

func (p *SQLProvider) GetInstrument(ctx context.Context, id string) (*models.Instrument, error) {
	return p.getInstrument(ctx, p.db, id)
}

func (p *SQLProvider) getInstrument(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Instrument, error) {
	var inst models.Instrument
	query := p.db.Rebind("SELECT " + instrumentColumns + " FROM instruments WHERE id = ?")
	if err := sqlx.GetContext(ctx, q, &inst, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, unavailable(p.driver, "get", err)
	}
	return &inst, nil
}

func (p *SQLProvider) CreateInstrument(ctx context.Context, fields models.NewInstrument) (*models.Instrument, error) {
	id, err := utils.NewInstrumentID()
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()

	inst := &models.Instrument{
		ID:                  id,
		Name:                strings.TrimSpace(fields.Name),
		Location:            strings.TrimSpace(fields.Location),
		CalibrationRequired: fields.CalibrationRequired,
		CalibrationPeriod:   models.NormalizePeriod(fields.CalibrationPeriod),
		LastCalibrationDate: fields.LastCalibrationDate,
		Notes:               fields.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	inst.NextCalibrationDate = models.NextCalibrationDate(inst.LastCalibrationDate, inst.CalibrationPeriod)

	query := p.db.Rebind(`INSERT INTO instruments (` + instrumentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = p.db.ExecContext(ctx, query,
		inst.ID, inst.Name, inst.Location, inst.CalibrationRequired, inst.CalibrationPeriod,
		inst.LastCalibrationDate, inst.NextCalibrationDate, inst.Notes, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return nil, unavailable(p.driver, "create", err)
	}

	p.logger.Debug("Instrument created", "id", inst.ID, "name", inst.Name)
	return inst, nil
}

func (p *SQLProvider) RecordCalibration(ctx context.Context, id string, rec models.CalibrationRecord) (*models.Instrument, error) {
	return p.mutate(ctx, "record calibration", id, func(inst *models.Instrument) {
		inst.LastCalibrationDate = rec.LastCalibrationDate
		inst.NextCalibrationDate = models.NextCalibrationDate(inst.LastCalibrationDate, inst.CalibrationPeriod)
		if rec.Notes != nil {
			inst.Notes = rec.Notes
		}
	})
}

func (p *SQLProvider) UpdateInstrument(ctx context.Context, id string, upd models.InstrumentUpdate) (*models.Instrument, error) {
	return p.mutate(ctx, "update", id, upd.Apply)
}

// mutate reads, changes and writes back a record in one transaction.
func (p *SQLProvider) mutate(ctx context.Context, op string, id string, change func(*models.Instrument)) (*models.Instrument, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, unavailable(p.driver, op, err)
	}
	defer tx.Rollback()

	inst, err := p.getInstrument(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	change(inst)
	inst.UpdatedAt = p.now().UTC()

	query := p.db.Rebind(`UPDATE instruments SET
		name = ?, location = ?, calibration_required = ?, calibration_period = ?,
		last_calibration_date = ?, next_calibration_date = ?, notes = ?, updated_at = ?
		WHERE id = ?`)
	res, err := tx.ExecContext(ctx, query,
		inst.Name, inst.Location, inst.CalibrationRequired, inst.CalibrationPeriod,
		inst.LastCalibrationDate, inst.NextCalibrationDate, inst.Notes, inst.UpdatedAt,
		inst.ID,
	)
	if err != nil {
		return nil, unavailable(p.driver, op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, notFound(id)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable(p.driver, op, err)
	}

	p.logger.Debug("Instrument updated", "id", inst.ID, "op", op)
	return inst, nil
}

func (p *SQLProvider) DeleteInstrument(ctx context.Context, id string) (*models.Instrument, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, unavailable(p.driver, "delete", err)
	}
	defer tx.Rollback()

	inst, err := p.getInstrument(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, p.db.Rebind("DELETE FROM instruments WHERE id = ?"), id); err != nil {
		return nil, unavailable(p.driver, "delete", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable(p.driver, "delete", err)
	}

	p.logger.Info("Instrument deleted", "id", id, "name", inst.Name)
	return inst, nil
}

func isMissingTable(err error) bool {
	msg := err.Error()
	// sqlite: "no such table", postgres: relation "..." does not exist (SQLSTATE 42P01)
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "42P01")
}
