package database

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//DeleteSchema cleans up the table and data - useful for testing but not exposed to web
func DeleteSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, "DROP TABLE IF EXISTS features CASCADE")
	return err
}

//SetupSchema creates the features table and its geometry index if they don't exist
func SetupSchema(ctx context.Context, db *pgxpool.Pool) error {

	if _, err := db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS hstore"); err != nil {
		return errors.Wrap(err, "unable to install hstore")
	}

	//is postgis installed?
	row := db.QueryRow(ctx, "SELECT postgis_version()")
	var version string
	err := row.Scan(&version)

	if err != nil {
		zap.L().Warn("PostGIS not found...attempting to install")
		if _, err := db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis"); err != nil {
			return errors.Wrap(err, "unable to install postgis")
		}
		zap.L().Info("Installed PostGIS")
	} else {
		zap.L().Info("Found PostGIS: " + version)
	}

	createSql := `CREATE TABLE IF NOT EXISTS features(
	id char(24) primary key,
	type text NOT NULL DEFAULT 'Feature',
	props HSTORE NOT NULL DEFAULT '',
	geom geometry(Geometry, 4326) NOT NULL
);
CREATE INDEX IF NOT EXISTS feature_geom_index ON features USING GIST(geography(geom));
`
	if _, err = db.Exec(ctx, createSql); err != nil {
		return errors.Wrap(err, "unable to create features table")
	}
	zap.L().Info("features table ready")
	return nil
}
