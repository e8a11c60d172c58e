package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"timeclock/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Ledger.Backend = "memory"
	cfg.Storage.Dir = dir
	cfg.Database.Path = filepath.Join(dir, "history.db")
	return cfg
}

func TestNewApp_UnknownBackend(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Ledger.Backend = "ftp"
	logger := zerolog.New(io.Discard)

	_, err := newApp(context.Background(), cfg, &logger)
	assert.ErrorContains(t, err, `unknown ledger backend "ftp"`)
}

func TestNewApp_SheetsNeedsSpreadsheet(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Ledger.Backend = "sheets"
	logger := zerolog.New(io.Discard)

	_, err := newApp(context.Background(), cfg, &logger)
	assert.ErrorContains(t, err, "spreadsheet_id")
}

func TestRunTerminal(t *testing.T) {
	logger := zerolog.New(io.Discard)
	a, err := newApp(context.Background(), memoryConfig(t), &logger)
	require.NoError(t, err)
	defer a.Close()

	in := strings.NewReader("12\n1020\n12\n4501\n\n")
	var out bytes.Buffer
	require.NoError(t, runTerminal(context.Background(), a, in, &out))

	text := out.String()
	assert.Contains(t, text, "invalid barcode")
	assert.Contains(t, text, "subject 1020, activity 12, order 4501")
	assert.Contains(t, text, "Badge not registered")
	assert.Equal(t, 0, a.queue.Len())
}
