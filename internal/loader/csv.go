package loader

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

func (l *Loader) loadCSV(ctx context.Context) ([]domain.MetricRecord, error) {
	path := l.cfg.Path

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewSourceNotFoundError(path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, the parser bounds-checks cells

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeSchemaMismatch, "failed to read CSV", err).
			WithContext("path", path)
	}

	// Strip the UTF-8 BOM some spreadsheet exports prepend.
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\uFEFF")
	}

	l.logger.DebugContext(ctx, "reading CSV",
		"path", path,
		"rows", len(rows),
	)

	return parseLongRows(rows, filepath.Base(path))
}
