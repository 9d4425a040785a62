// Package handler exposes the consent lifecycle and the data subject rights
// operations over HTTP. It is a thin layer: decode, delegate, render.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutela/internal/consent/handler/dto"
	"tutela/internal/consent/models"
	"tutela/internal/consent/service"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/platform/httputil"
	"tutela/pkg/requestcontext"
)

// Service defines the consent operations the HTTP surface exposes.
type Service interface {
	Save(ctx context.Context, req service.SaveRequest) (*models.ConsentRecord, error)
	Get(ctx context.Context, userID, consentType string) (*models.ConsentRecord, error)
	Check(ctx context.Context, userID, consentType string) (*service.Decision, error)
	Withdraw(ctx context.Context, userID, consentType string) (*models.ConsentRecord, error)
	List(ctx context.Context, userID string) ([]*models.ConsentRecord, error)
	Access(ctx context.Context, userID string) (*models.UserDataExport, error)
	Erase(ctx context.Context, userID string) (*service.ErasureReceipt, error)
	Rectify(ctx context.Context, userID, consentType string, patch models.Rectification) (*models.ConsentRecord, error)
	Portability(ctx context.Context, userID, format string) (*models.UserDataExport, error)
	ProcessingActivities(ctx context.Context) ([]models.ProcessingActivity, error)
	AuditTrail(ctx context.Context, userID string) ([]models.AuditEvent, error)
}

// Handler handles consent and data subject rights endpoints.
type Handler struct {
	logger  *slog.Logger
	consent Service
}

// New creates a new consent Handler.
func New(consent Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		consent: consent,
	}
}

// Register registers the consent and rights routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/consent", h.HandleSaveConsent)
	r.Get("/consent", h.HandleGetConsent)
	r.Get("/consent/check", h.HandleCheckConsent)
	r.Post("/consent/withdraw", h.HandleWithdrawConsent)
	r.Get("/consents", h.HandleListConsents)

	r.Get("/rights/access", h.HandleAccessRequest)
	r.Post("/rights/erasure", h.HandleErasureRequest)
	r.Post("/rights/rectification", h.HandleRectificationRequest)
	r.Get("/rights/portability", h.HandlePortabilityRequest)

	r.Get("/activities", h.HandleListActivities)
	r.Get("/audit", h.HandleAuditTrail)
}

// HandleSaveConsent records a consent decision. A granted=false body is a
// recorded denial, handled exactly like a grant.
func (h *Handler) HandleSaveConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[dto.SaveConsentRequest](w, r, h.logger)
	if !ok {
		return
	}

	record, err := h.consent.Save(ctx, req.ToSaveRequest())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to save consent",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleGetConsent returns the stored record for one (user, type) pair.
func (h *Handler) HandleGetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	record, err := h.consent.Get(ctx, r.URL.Query().Get("user_id"), r.URL.Query().Get("type"))
	if err != nil {
		// Absent pairs are routine reads, not operational failures.
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to get consent",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleCheckConsent answers whether a consent is effectively active. An
// absent record is a plain "no", not an error.
func (h *Handler) HandleCheckConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	decision, err := h.consent.Check(ctx, r.URL.Query().Get("user_id"), r.URL.Query().Get("type"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check consent",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, decision)
}

// HandleWithdrawConsent marks a consent withdrawn.
func (h *Handler) HandleWithdrawConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[dto.WithdrawConsentRequest](w, r, h.logger)
	if !ok {
		return
	}

	record, err := h.consent.Withdraw(ctx, req.UserID, req.ConsentType)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to withdraw consent",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if record == nil {
		httputil.WriteJSON(w, http.StatusOK, dto.WithdrawResponse{
			Withdrawn: false,
			Message:   "no consent on file for this user and type",
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dto.WithdrawResponse{
		Withdrawn: true,
		Record:    record,
	})
}

// HandleListConsents returns every consent record held for a data subject.
func (h *Handler) HandleListConsents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	records, err := h.consent.List(ctx, r.URL.Query().Get("user_id"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list consents",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dto.ConsentsResponse{Consents: records})
}

// HandleAccessRequest serves a data subject access request: everything held
// about the subject in one document.
func (h *Handler) HandleAccessRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	export, err := h.consent.Access(ctx, r.URL.Query().Get("user_id"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to serve access request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, export)
}

// HandleErasureRequest erases a data subject's records and returns a receipt.
func (h *Handler) HandleErasureRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[dto.ErasureRequest](w, r, h.logger)
	if !ok {
		return
	}

	receipt, err := h.consent.Erase(ctx, req.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to serve erasure request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	// The receipt, not the log stream, names the subject.
	h.logger.InfoContext(ctx, "erasure request served",
		"request_id", requestID,
		"request_ref", receipt.RequestRef,
		"records_removed", receipt.RecordsRemoved,
	)

	httputil.WriteJSON(w, http.StatusOK, receipt)
}

// HandleRectificationRequest corrects fields of a stored consent record.
func (h *Handler) HandleRectificationRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[dto.RectificationRequest](w, r, h.logger)
	if !ok {
		return
	}

	record, err := h.consent.Rectify(ctx, req.UserID, req.ConsentType, req.ToPatch())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to serve rectification request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandlePortabilityRequest serves the subject's data in a portable format.
func (h *Handler) HandlePortabilityRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	q := r.URL.Query()
	export, err := h.consent.Portability(ctx, q.Get("user_id"), q.Get("format"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to serve portability request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, export)
}

// HandleListActivities returns the processing activity register.
func (h *Handler) HandleListActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	activities, err := h.consent.ProcessingActivities(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list processing activities",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dto.ActivitiesResponse{Activities: activities})
}

// HandleAuditTrail returns audit events, scoped to one subject when user_id
// is present and the whole trail otherwise.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	events, err := h.consent.AuditTrail(ctx, r.URL.Query().Get("user_id"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read audit trail",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dto.AuditTrailResponse{Events: events})
}
