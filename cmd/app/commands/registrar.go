package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	registrarUseCase "github.com/md-riaz/domaindesk/internal/registrar/usecase"
)

// RunTestRegistrar checks that a registrar accepts its configured credentials.
// A failed connection is reported in the output and as an error.
func RunTestRegistrar(
	ctx context.Context,
	useCase registrarUseCase.RegistrarUseCase,
	logger *slog.Logger,
	writer io.Writer,
	registrarIDStr, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	registrarID, err := parseID("registrar ID", registrarIDStr)
	if err != nil {
		return err
	}

	connected, err := useCase.TestConnection(ctx, registrarID)
	if err != nil {
		return fmt.Errorf("failed to test registrar connection: %w", err)
	}

	logger.Info("registrar connection tested",
		slog.String("registrar_id", registrarID.String()),
		slog.Bool("connected", connected),
	)

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"registrar_id": registrarID.String(),
			"connected":    connected,
		}); err != nil {
			return err
		}
	} else {
		status := "OK"
		if !connected {
			status = "FAILED"
		}
		if _, err := fmt.Fprintf(writer, "Registrar %s connection: %s\n", registrarID, status); err != nil {
			return err
		}
	}

	if !connected {
		return fmt.Errorf("registrar %s rejected the connection test", registrarID)
	}
	return nil
}

// RunCheckAvailability asks a registrar whether a domain name can be registered.
func RunCheckAvailability(
	ctx context.Context,
	useCase registrarUseCase.RegistrarUseCase,
	logger *slog.Logger,
	writer io.Writer,
	registrarIDStr, domainName, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	registrarID, err := parseID("registrar ID", registrarIDStr)
	if err != nil {
		return err
	}

	domainName = strings.ToLower(strings.TrimSpace(domainName))
	if domainName == "" {
		return fmt.Errorf("domain is required")
	}

	available, err := useCase.CheckAvailability(ctx, registrarID, domainName)
	if err != nil {
		return fmt.Errorf("failed to check availability: %w", err)
	}

	logger.Info("availability checked",
		slog.String("registrar_id", registrarID.String()),
		slog.String("domain", domainName),
		slog.Bool("available", available),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"domain":    domainName,
			"available": available,
		})
	}

	verdict := "available"
	if !available {
		verdict = "not available"
	}
	_, err = fmt.Fprintf(writer, "%s is %s\n", domainName, verdict)
	return err
}
