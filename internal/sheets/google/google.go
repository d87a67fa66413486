package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tracker/internal/ledger"
	applog "tracker/internal/log"
	"tracker/internal/sheets"
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	HistorySheet    string
	CategoriesSheet string
	CredentialsJSON string
	CredentialsFile string
}

// valuesAPI is the part of the Sheets values API the mirror needs.
type valuesAPI interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

// Client mirrors ledger snapshots into two sheets of one spreadsheet.
type Client struct {
	values          valuesAPI
	spreadsheetID   string
	historySheet    string
	categoriesSheet string
}

var _ sheets.Mirror = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(serviceValues{svc: svc}, cfg), nil
}

func newClient(values valuesAPI, cfg Config) *Client {
	history := strings.TrimSpace(cfg.HistorySheet)
	if history == "" {
		history = "History"
	}
	categories := strings.TrimSpace(cfg.CategoriesSheet)
	if categories == "" {
		categories = "Categories"
	}
	return &Client{
		values:          values,
		spreadsheetID:   cfg.SpreadsheetID,
		historySheet:    history,
		categoriesSheet: categories,
	}
}

// newSheetsService initializes a Sheets service from service account
// credentials, inline JSON first.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	var err error

	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		credentialsJSON, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newHTTPClientWithPooling returns an HTTP client with connection pooling and
// timeouts suited to the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Sync clears both sheets and writes the snapshot's history and category
// totals.
func (c *Client) Sync(ctx context.Context, snap ledger.Snapshot) error {
	if c.values == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.replace(ctx, c.historySheet, sheets.HistoryRows(snap)); err != nil {
		return err
	}
	if err := c.replace(ctx, c.categoriesSheet, sheets.CategoryRows(snap.Totals)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Mirrored ledger to Google Sheets",
		applog.FieldComponent, applog.ComponentSheets,
		applog.FieldOperation, applog.OpSync,
		applog.FieldRevision, snap.Revision,
		"transactions", len(snap.Transactions))
	return nil
}

func (c *Client) replace(ctx context.Context, sheet string, rows [][]any) error {
	clearRange := fmt.Sprintf("%s!A:Z", sheet)
	if err := c.values.Clear(ctx, c.spreadsheetID, clearRange); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}
	writeRange := fmt.Sprintf("%s!A1", sheet)
	if err := c.values.Update(ctx, c.spreadsheetID, writeRange, rows); err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}
	return nil
}

type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (s serviceValues) Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}
