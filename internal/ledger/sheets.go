package ledger

import (
	"context"
	"fmt"
	"os"
	"time"

	"timeclock/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsConfig configures the Google Sheets backend.
type SheetsConfig struct {
	SpreadsheetID     string
	CredentialsFile   string
	Worksheets        Worksheets
	Timeout           time.Duration
	RequestsPerMinute int
}

// SheetsGateway keeps the ledger in a Google spreadsheet.
type SheetsGateway struct {
	service       *sheets.Service
	spreadsheetID string
	worksheets    Worksheets
	timeout       time.Duration
	limiter       *rate.Limiter
	logger        *zerolog.Logger
}

// NewSheetsGateway authenticates with a service account key file unless
// client options are supplied.
func NewSheetsGateway(ctx context.Context, cfg SheetsConfig, logger *zerolog.Logger, opts ...option.ClientOption) (*SheetsGateway, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if len(opts) == 0 {
		key, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		jwt, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(jwt.Client(ctx)))
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Worksheets == (Worksheets{}) {
		cfg.Worksheets = DefaultWorksheets()
	}

	return &SheetsGateway{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		worksheets:    cfg.Worksheets,
		timeout:       cfg.Timeout,
		limiter:       rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 5),
		logger:        logger,
	}, nil
}

func (g *SheetsGateway) readRows(ctx context.Context, sheet string) ([][]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, unavailable("read "+sheet, err)
	}
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, unavailable("read "+sheet, err)
	}
	return resp.Values, nil
}

// FindEvents reads the whole events worksheet and filters it locally.
func (g *SheetsGateway) FindEvents(ctx context.Context, subjectID string, date time.Time) ([]models.WorkEvent, error) {
	rows, err := g.readRows(ctx, g.worksheets.Events)
	if err != nil {
		return nil, err
	}
	return decodeEvents(rows, subjectID, date), nil
}

// Append adds one row with USER_ENTERED semantics so dates and numbers are
// typed by the spreadsheet.
func (g *SheetsGateway) Append(ctx context.Context, event models.WorkEvent) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return unavailable("append", err)
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{eventRowValues(event)}}
	_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, g.worksheets.Events, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return unavailable("append", err)
	}

	g.logger.Debug().
		Str("subject_id", event.SubjectID).
		Str("order_id", event.OrderID).
		Str("exact", event.ExactTimestamp.String()).
		Msg("ledger row appended")
	return nil
}

// EnsureHeader writes the header row when the events worksheet is empty.
func (g *SheetsGateway) EnsureHeader(ctx context.Context) error {
	rows, err := g.readRows(ctx, g.worksheets.Events+"!1:1")
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		if !indexColumns(rows[0]).has("hora_exacta") {
			g.logger.Warn().Str("sheet", g.worksheets.Events).Msg("first row has no hora_exacta column")
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	vr := &sheets.ValueRange{Values: [][]interface{}{headerRow(EventHeaders)}}
	_, err = g.service.Spreadsheets.Values.Update(g.spreadsheetID, g.worksheets.Events+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return unavailable("write header", err)
	}
	g.logger.Info().Str("sheet", g.worksheets.Events).Msg("ledger header written")
	return nil
}

func (g *SheetsGateway) Subjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := g.readRows(ctx, g.worksheets.Subjects)
	if err != nil {
		return nil, err
	}
	return decodeSubjects(rows), nil
}

func (g *SheetsGateway) Activities(ctx context.Context) ([]models.Activity, error) {
	rows, err := g.readRows(ctx, g.worksheets.Activities)
	if err != nil {
		return nil, err
	}
	return decodeActivities(rows), nil
}

func (g *SheetsGateway) Orders(ctx context.Context) ([]models.Order, error) {
	rows, err := g.readRows(ctx, g.worksheets.Orders)
	if err != nil {
		return nil, err
	}
	return decodeOrders(rows), nil
}
