package main

import (
	"context"
	"os"
	"time"

	"github.com/earthrise-media/featurestore/config"
	"github.com/earthrise-media/featurestore/database"
	"github.com/earthrise-media/featurestore/encoding"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Options struct {
	File    string        `short:"f" long:"file"    description:"GeoJSON FeatureCollection to import, or the export target" required:"true"`
	Lenient bool          `short:"l" long:"lenient" description:"Coerce non-string property values and skip unsupported geometries"`
	Export  bool          `short:"e" long:"export"  description:"Write every stored feature to the file instead of importing it"`
	Timeout time.Duration `short:"t" long:"timeout" env:"LOADER_TIMEOUT" description:"Overall deadline" default:"5m"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	config.LoadConfig()
	logger := config.SetupLogger()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	store, err := config.ConnectStore(ctx, logger)
	if err != nil {
		zap.L().Fatal("failed to connect to feature store", zap.Error(err))
	}
	defer store.Close()

	if opts.Export {
		n, err := exportFeatures(ctx, store, opts.File)
		if err != nil {
			zap.L().Fatal("export failed", zap.Error(err))
		}
		zap.S().Infof("exported %d features to %s", n, opts.File)
		return
	}

	data, err := os.ReadFile(opts.File)
	if err != nil {
		zap.L().Fatal("unable to read input", zap.String("file", opts.File), zap.Error(err))
	}
	n, err := importFeatures(ctx, store, data, opts.Lenient)
	if err != nil {
		zap.L().Fatal("import failed", zap.Int("imported", n), zap.Error(err))
	}
	zap.S().Infof("imported %d features from %s", n, opts.File)
}

// importFeatures stores every feature of data and reports how many made it
// before the first failure.
func importFeatures(ctx context.Context, store database.FeatureRepository, data []byte, lenient bool) (int, error) {

	features, err := encoding.FeaturesFromGeoJSON(data, lenient)
	if err != nil {
		return 0, err
	}
	for i, f := range features {
		if _, err := store.Create(ctx, f); err != nil {
			return i, errors.WithMessagef(err, "feature %d", i)
		}
	}
	return len(features), nil
}

func exportFeatures(ctx context.Context, store database.FeatureRepository, path string) (int, error) {

	features, err := store.List(ctx)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return 0, err
	}
	data, err := encoding.ToGeoJSON(features).MarshalJSON()
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, err
	}
	return len(features), nil
}
