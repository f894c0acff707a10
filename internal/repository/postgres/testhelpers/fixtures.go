package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
)

// SignalFixture - минимальная строка каталога для тестов
type SignalFixture struct {
	ID         string
	Name       string
	Lat, Lng   float64
	Regulator  string
	Priorities string // литерал массива Postgres, например '{logistics}'
}

// InsertSignals вставляет светофоры напрямую, минуя репозиторий
func InsertSignals(ctx context.Context, db *sql.DB, fixtures []SignalFixture) error {
	for _, f := range fixtures {
		_, err := db.ExecContext(ctx, `
			INSERT INTO traffic_signals (id, name, lat, lng, road_regulator_name, priorities)
			VALUES ($1, $2, $3, $4, $5, $6::text[])`,
			f.ID, f.Name, f.Lat, f.Lng, f.Regulator, f.Priorities,
		)
		if err != nil {
			return fmt.Errorf("insert fixture %s: %w", f.ID, err)
		}
	}
	return nil
}
