package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
)

func TestRunTestRegistrar(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registrarID := uuid.Must(uuid.NewV7())

	t.Run("connected", func(t *testing.T) {
		mockUseCase := &mockRegistrarUseCase{}
		mockUseCase.On("TestConnection", ctx, registrarID).Return(true, nil)

		var out bytes.Buffer
		err := RunTestRegistrar(ctx, mockUseCase, logger, &out, registrarID.String(), "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "connection: OK")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("rejected", func(t *testing.T) {
		mockUseCase := &mockRegistrarUseCase{}
		mockUseCase.On("TestConnection", ctx, registrarID).Return(false, nil)

		var out bytes.Buffer
		err := RunTestRegistrar(ctx, mockUseCase, logger, &out, registrarID.String(), "json")

		require.Error(t, err)
		require.Contains(t, out.String(), `"connected": false`)
	})

	t.Run("unknown-registrar", func(t *testing.T) {
		mockUseCase := &mockRegistrarUseCase{}
		mockUseCase.On("TestConnection", ctx, registrarID).Return(false, registrarDomain.ErrRegistrarNotFound)

		err := RunTestRegistrar(ctx, mockUseCase, logger, &bytes.Buffer{}, registrarID.String(), "text")

		require.ErrorIs(t, err, registrarDomain.ErrRegistrarNotFound)
	})
}

func TestRunCheckAvailability(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registrarID := uuid.Must(uuid.NewV7())

	t.Run("normalizes-domain", func(t *testing.T) {
		mockUseCase := &mockRegistrarUseCase{}
		mockUseCase.On("CheckAvailability", ctx, registrarID, "example.com").Return(true, nil)

		var out bytes.Buffer
		err := RunCheckAvailability(ctx, mockUseCase, logger, &out, registrarID.String(), "  Example.COM ", "text")

		require.NoError(t, err)
		require.Equal(t, "example.com is available\n", out.String())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("taken-json", func(t *testing.T) {
		mockUseCase := &mockRegistrarUseCase{}
		mockUseCase.On("CheckAvailability", ctx, registrarID, "taken.com").Return(false, nil)

		var out bytes.Buffer
		err := RunCheckAvailability(ctx, mockUseCase, logger, &out, registrarID.String(), "taken.com", "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"available": false`)
	})

	t.Run("missing-domain", func(t *testing.T) {
		err := RunCheckAvailability(ctx, &mockRegistrarUseCase{}, logger, &bytes.Buffer{}, registrarID.String(), " ", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "domain is required")
	})
}
