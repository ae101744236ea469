package database

import (
	"context"
	"fmt"

	"github.com/arturonaredo/homebalance-go/convert"
	"github.com/arturonaredo/homebalance-go/hours"
)

type SolarForecastRow struct {
	When       hours.DateHour
	Watts      float64
	CloudCover uint8
}

func (d *Database) SaveSolarForecast(ctx context.Context, rows []SolarForecastRow) error {
	for _, row := range rows {
		_, err := d.write.ExecContext(ctx, `
			INSERT INTO solar_forecast (date, hour, watts, cloud_cover) VALUES (?, ?, ?, ?)
			ON CONFLICT(date, hour) DO UPDATE SET watts = excluded.watts, cloud_cover = excluded.cloud_cover`,
			row.When.Date,
			row.When.Hour,
			convert.RoundFloat64(row.Watts, 1),
			row.CloudCover)
		if err != nil {
			return fmt.Errorf("saving solar forecast for %s: %w", row.When, err)
		}
	}
	return nil
}

func (d *Database) GetSolarForecastFrom(ctx context.Context, dh hours.DateHour) ([]SolarForecastRow, error) {
	rows, err := d.read.QueryContext(ctx, `SELECT
		date, hour, watts, cloud_cover
		FROM solar_forecast
		WHERE (date = ? AND hour >= ?) OR date > ?
		ORDER BY date, hour ASC`,
		dh.Date, dh.Hour, dh.Date)
	if err != nil {
		return nil, fmt.Errorf("fetching solar forecast from %s: %w", dh, err)
	}
	defer rows.Close()

	var res []SolarForecastRow
	for rows.Next() {
		var sf SolarForecastRow
		err := rows.Scan(&sf.When.Date, &sf.When.Hour, &sf.Watts, &sf.CloudCover)
		if err != nil {
			return nil, fmt.Errorf("scanning solar forecast row: %w", err)
		}
		res = append(res, sf)
	}

	return res, nil
}

func (d *Database) PurgeSolarForecast(ctx context.Context, retentionDays int) error {
	return d.purgeTable(ctx, "solar_forecast", retentionDays)
}
