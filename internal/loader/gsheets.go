package loader

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/internal/errors"
	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

func (l *Loader) loadGoogleSheet(ctx context.Context) ([]domain.MetricRecord, error) {
	id := l.cfg.SpreadsheetID
	if id == "" {
		return nil, apperrors.NewConfigError("gsheets source requires a spreadsheet_id", nil)
	}

	var opts []option.ClientOption
	switch {
	case l.cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(l.cfg.APIKey))
	case l.cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(l.cfg.CredentialsFile))
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to create sheets client", err)
	}

	readRange := l.cfg.ValueRange
	if readRange == "" {
		readRange = "A:E"
	}
	if l.cfg.Sheet != "" && !strings.Contains(readRange, "!") {
		readRange = l.cfg.Sheet + "!" + readRange
	}

	resp, err := srv.Spreadsheets.Values.Get(id, readRange).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewSourceNotFoundError("gsheets:"+id, err)
	}
	if len(resp.Values) == 0 {
		return nil, apperrors.NewSchemaMismatchError("spreadsheet range is empty").
			WithContext("spreadsheet_id", id).
			WithContext("range", readRange)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, cells := range resp.Values {
		row := make([]string, 0, len(cells))
		for _, cell := range cells {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}

	l.logger.DebugContext(ctx, "read spreadsheet range",
		"spreadsheet_id", id,
		"range", readRange,
		"rows", len(rows),
	)

	return parseLongRows(rows, id)
}
