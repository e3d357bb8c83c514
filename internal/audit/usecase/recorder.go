// Package usecase records registrar failures and domain status transitions.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/md-riaz/domaindesk/internal/audit/domain"
	"github.com/md-riaz/domaindesk/internal/database"
	registrarDomain "github.com/md-riaz/domaindesk/internal/registrar/domain"
	registrarService "github.com/md-riaz/domaindesk/internal/registrar/service"
)

// writeTimeout bounds a single audit write.
const writeTimeout = 5 * time.Second

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *auditDomain.Entry) error
	List(ctx context.Context, filter auditDomain.Filter) ([]*auditDomain.Entry, error)
}

// Recorder writes audit entries. Write failures are logged and never returned:
// losing an audit row must not fail the operation being audited.
type Recorder struct {
	repo   AuditRepository
	logger *slog.Logger
	now    func() time.Time
}

var _ registrarService.ErrorRecorder = (*Recorder)(nil)

// NewRecorder creates a Recorder.
func NewRecorder(repo AuditRepository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger, now: time.Now}
}

// RecordRegistrarError stores a registrar_error entry. It writes outside any
// transaction in ctx so the entry survives a rollback of the failed workflow.
func (r *Recorder) RecordRegistrarError(
	ctx context.Context,
	registrar, operation string,
	params map[string]any,
	err *registrarDomain.RegistrarError,
) {
	entry := &auditDomain.Entry{
		EventType: auditDomain.EventRegistrarError,
		Registrar: registrar,
		Operation: operation,
		Metadata:  map[string]any{},
	}
	if err != nil {
		entry.ErrorKind = string(err.Kind)
		entry.ErrorCode = err.Code
		entry.Message = err.Message
		if len(err.Details) > 0 {
			entry.Metadata["details"] = registrarService.Sanitize(err.Details)
		}
	}
	if len(params) > 0 {
		entry.Metadata["params"] = registrarService.Sanitize(params)
	}
	if name, ok := params["domain"].(string); ok {
		entry.DomainName = name
	}

	r.write(database.WithoutTx(ctx), entry)
}

// RecordTransition stores a status_transition entry. It joins the transaction in
// ctx so the entry commits together with the status change.
func (r *Recorder) RecordTransition(ctx context.Context, transition auditDomain.Transition) {
	domainID := transition.DomainID
	entry := &auditDomain.Entry{
		EventType:  auditDomain.EventStatusTransition,
		Registrar:  transition.Registrar,
		DomainID:   &domainID,
		DomainName: transition.DomainName,
		PartnerID:  transition.PartnerID,
		FromStatus: transition.From,
		ToStatus:   transition.To,
		Message:    transition.Reason,
		Metadata:   transition.Metadata,
	}

	r.write(ctx, entry)
}

// List returns audit entries matching filter.
func (r *Recorder) List(ctx context.Context, filter auditDomain.Filter) ([]*auditDomain.Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return r.repo.List(ctx, filter)
}

func (r *Recorder) write(ctx context.Context, entry *auditDomain.Entry) {
	entry.ID = uuid.Must(uuid.NewV7())
	entry.CreatedAt = r.now().UTC()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.repo.Create(writeCtx, entry); err != nil {
		r.logger.ErrorContext(ctx, "failed to write audit entry",
			slog.String("event_type", string(entry.EventType)),
			slog.String("registrar", entry.Registrar),
			slog.String("operation", entry.Operation),
			slog.String("domain", entry.DomainName),
			slog.Any("error", err),
		)
	}
}
