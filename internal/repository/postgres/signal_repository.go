package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/route-impact/internal/domain"
	"go.uber.org/zap"
)

// signalRow - строка таблицы traffic_signals
type signalRow struct {
	ID                string         `db:"id"`
	Name              string         `db:"name"`
	Identifier        string         `db:"identifier"`
	Lat               float64        `db:"lat"`
	Lng               float64        `db:"lng"`
	RoadRegulatorID   int64          `db:"road_regulator_id"`
	RoadRegulatorName string         `db:"road_regulator_name"`
	TLCOrganization   string         `db:"tlc_organization"`
	ITSOrganization   string         `db:"its_organization"`
	RISOrganization   string         `db:"ris_organization"`
	Priorities        pq.StringArray `db:"priorities"`
}

func (r signalRow) toDomain() domain.SignalFeature {
	s := domain.SignalFeature{
		ID:                r.ID,
		Name:              r.Name,
		Identifier:        r.Identifier,
		Location:          domain.GeoPoint{Lat: r.Lat, Lng: r.Lng},
		RoadRegulatorID:   r.RoadRegulatorID,
		RoadRegulatorName: r.RoadRegulatorName,
		TLCOrganization:   r.TLCOrganization,
		ITSOrganization:   r.ITSOrganization,
		RISOrganization:   r.RISOrganization,
	}
	for _, p := range r.Priorities {
		s.Priorities.Set(p)
	}
	return s
}

// SignalRepository - каталог светофоров в PostgreSQL
type SignalRepository struct {
	db *DB
}

func NewSignalRepository(db *DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Name - имя источника
func (r *SignalRepository) Name() string {
	return "postgres"
}

// LoadSignals возвращает все светофоры каталога
func (r *SignalRepository) LoadSignals(ctx context.Context) ([]domain.SignalFeature, error) {
	query := `
		SELECT id, name, identifier, lat, lng, road_regulator_id, road_regulator_name,
		       tlc_organization, its_organization, ris_organization, priorities
		FROM traffic_signals
		ORDER BY id
	`

	var rows []signalRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select traffic signals: %w", err)
	}

	signals := make([]domain.SignalFeature, len(rows))
	for i, row := range rows {
		signals[i] = row.toDomain()
	}
	return signals, nil
}

// CountByPriority - число светофоров с указанной категорией приоритета
func (r *SignalRepository) CountByPriority(ctx context.Context, priority string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM traffic_signals WHERE priorities @> $1`
	if err := r.db.GetContext(ctx, &n, query, pq.Array([]string{priority})); err != nil {
		return 0, fmt.Errorf("count signals by priority: %w", err)
	}
	return n, nil
}

// ReplaceSignals заменяет содержимое каталога в одной транзакции
func (r *SignalRepository) ReplaceSignals(ctx context.Context, signals []domain.SignalFeature) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM traffic_signals`); err != nil {
		return fmt.Errorf("clear traffic signals: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO traffic_signals (
			id, name, identifier, lat, lng, road_regulator_id, road_regulator_name,
			tlc_organization, its_organization, ris_organization, priorities
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			priorities = EXCLUDED.priorities,
			updated_at = now()
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range signals {
		_, err := stmt.ExecContext(ctx,
			s.ID, s.Name, s.Identifier, s.Location.Lat, s.Location.Lng,
			s.RoadRegulatorID, s.RoadRegulatorName,
			s.TLCOrganization, s.ITSOrganization, s.RISOrganization,
			pq.Array(s.Priorities.List()),
		)
		if err != nil {
			return fmt.Errorf("insert signal %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.db.logger.Info("Traffic signal catalog replaced", zap.Int("count", len(signals)))
	return nil
}
