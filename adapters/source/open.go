package source

import (
	"context"
	"fmt"
	"io"

	"heartdash/internal/config"
	"heartdash/internal/errors"
	"heartdash/ports"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the record source selected by the data configuration. The
// returned closer releases the database pool when one was opened.
func Open(ctx context.Context, cfg config.DataConfig, db config.DatabaseConfig) (ports.RecordSource, io.Closer, error) {
	switch cfg.Source {
	case config.SourcePostgres:
		conn, err := OpenPostgres(ctx, db.URL)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresReader(conn, db.Table), conn, nil
	case config.SourceCSV, config.SourceXLSX:
		reader, err := NewDataReaderWithType(cfg.File, cfg.Source)
		if err != nil {
			return nil, nil, err
		}
		return reader, nopCloser{}, nil
	case "":
		return NewDataReader(cfg.File), nopCloser{}, nil
	default:
		return nil, nil, errors.ConfigInvalid(fmt.Sprintf("unknown DATA_SOURCE %q", cfg.Source))
	}
}
