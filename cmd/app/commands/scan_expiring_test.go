package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	lifecycleUseCase "github.com/md-riaz/domaindesk/internal/lifecycle/usecase"
)

func TestRunScanExpiring(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result := lifecycleUseCase.ScanResult{
		Partners:            2,
		Domains:             5,
		Warnings:            4,
		RenewalsQueued:      2,
		RenewalsSkipped:     1,
		RenewalsUnsupported: 1,
	}

	t.Run("text-output", func(t *testing.T) {
		scanner := &mockScanner{}
		scanner.On("Scan", ctx).Return(result, nil)

		var out bytes.Buffer
		err := RunScanExpiring(ctx, scanner, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(),
			"Scanned 5 domain(s) across 2 partner(s): 4 warning(s), 2 renewal(s) queued, 1 skipped, 0 failure(s)")
		scanner.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		scanner := &mockScanner{}
		scanner.On("Scan", ctx).Return(result, nil)

		var out bytes.Buffer
		err := RunScanExpiring(ctx, scanner, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"renewals_queued": 2`)
		require.Contains(t, out.String(), `"warnings": 4`)
		require.Contains(t, out.String(), `"renewals_unsupported": 1`)
	})

	t.Run("scan-error", func(t *testing.T) {
		scanner := &mockScanner{}
		scanner.On("Scan", ctx).Return(lifecycleUseCase.ScanResult{}, errors.New("database down"))

		err := RunScanExpiring(ctx, scanner, logger, &bytes.Buffer{}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to scan expiring domains: database down")
	})
}
