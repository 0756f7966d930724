// Submission HTTP handlers.
//
// This file exposes the form endpoints used by the recruitment site:
//   - POST /join-us              (application, one of four categories)
//   - POST /contact              (contact message)
//   - GET  /admin/applications   (list)
//   - GET  /admin/contacts       (list)
//
// Handlers are transport-thin: they bind JSON, call the submission service,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/skiline-backend/internal/domain"
	"github.com/tbourn/skiline-backend/internal/http/middleware"
	"github.com/tbourn/skiline-backend/internal/services"
	"github.com/tbourn/skiline-backend/internal/validation"
)

//
// Service contract (context-aware)
//

// SubmissionService defines the submission pipeline consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SubmissionService interface {
	// SubmitApplication validates and stores a join-us form.
	SubmitApplication(ctx context.Context, in validation.ApplicationInput, idemKey string) (services.Receipt, error)
	// SubmitContact validates and stores a contact form.
	SubmitContact(ctx context.Context, in validation.ContactInput, idemKey string) (services.Receipt, error)
	// ListApplications returns every stored application.
	ListApplications(ctx context.Context) ([]domain.StoredApplication, error)
	// ListContacts returns every stored contact message.
	ListContacts(ctx context.Context) ([]domain.StoredContact, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for submissions.
type Handlers struct {
	svc SubmissionService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(svc SubmissionService) *Handlers {
	return &Handlers{svc: svc}
}

// Success messages shown by the site after a submission.
const (
	MsgApplicationAccepted = "Application submitted successfully. You will receive a confirmation email shortly."
	MsgContactAccepted     = "Message sent successfully"
)

//
// DTOs
//

// SubmitResponse is returned when a form submission is accepted.
type SubmitResponse struct {
	Success      bool   `json:"success" example:"true"`
	Message      string `json:"message" example:"Message sent successfully"`
	SubmissionID string `json:"submissionId" example:"0b7c7e52-6f0f-4a53-9f1b-7d7a4d2f8c11"`
}

// ApplicationsResponse wraps the admin listing of applications.
type ApplicationsResponse struct {
	Applications []domain.StoredApplication `json:"applications"`
}

// ContactsResponse wraps the admin listing of contact messages.
type ContactsResponse struct {
	Contacts []domain.StoredContact `json:"contacts"`
}

//
// Handlers
//

// SubmitApplication godoc
// @ID          submitApplication
// @Summary     Submit a job application
// @Description Validates the form for its category, stores it, and answers immediately.
// @Description Notification e-mails are sent in the background and never affect the response.
// @Tags        Submissions
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    validation.ApplicationInput  true  "Application form"
//
// @Success     201  {object}  handlers.SubmitResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid form data"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many requests"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /join-us [post]
func (h *Handlers) SubmitApplication(c *gin.Context) {
	var in validation.ApplicationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	rec, err := h.svc.SubmitApplication(c.Request.Context(), in, key)
	if err != nil {
		h.submitError(c, err, "Failed to submit application")
		return
	}
	h.accepted(c, rec, MsgApplicationAccepted)
}

// SubmitContact godoc
// @ID          submitContact
// @Summary     Send a contact message
// @Description Validates and stores the message, then e-mails the operator.
// @Description A failed e-mail does not fail the request.
// @Tags        Submissions
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    validation.ContactInput  true  "Contact form"
//
// @Success     201  {object}  handlers.SubmitResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid form data"
// @Failure     429  {object}  handlers.ErrorResponse  "Too many requests"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contact [post]
func (h *Handlers) SubmitContact(c *gin.Context) {
	var in validation.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	rec, err := h.svc.SubmitContact(c.Request.Context(), in, key)
	if err != nil {
		h.submitError(c, err, "Failed to send message")
		return
	}
	h.accepted(c, rec, MsgContactAccepted)
}

// ListApplications godoc
// @ID          listApplications
// @Summary     List applications
// @Description Returns every stored application ordered by submission time.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ApplicationsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/applications [get]
func (h *Handlers) ListApplications(c *gin.Context) {
	apps, err := h.svc.ListApplications(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch applications")
		return
	}
	if apps == nil {
		apps = []domain.StoredApplication{}
	}
	ok(c, http.StatusOK, ApplicationsResponse{Applications: apps})
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List contact messages
// @Description Returns every stored contact message ordered by submission time.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ContactsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/contacts [get]
func (h *Handlers) ListContacts(c *gin.Context) {
	contacts, err := h.svc.ListContacts(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch contacts")
		return
	}
	if contacts == nil {
		contacts = []domain.StoredContact{}
	}
	ok(c, http.StatusOK, ContactsResponse{Contacts: contacts})
}

//
// Helpers
//

func (h *Handlers) accepted(c *gin.Context, rec services.Receipt, msg string) {
	if rec.Replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusCreated, SubmitResponse{Success: true, Message: msg, SubmissionID: rec.ID})
}

// bindError answers a body that could not be decoded. A value of the wrong
// JSON type is reported against its field, anything else is a bad request.
func bindError(c *gin.Context, err error) {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		failValidation(c, validation.WrongType(te.Field).Fields)
		return
	}
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
}

// submitError maps service errors: validation to 400, anything else to 500.
func (h *Handlers) submitError(c *gin.Context, err error, msg string) {
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		failValidation(c, ve.Fields)
		return
	}
	if !errors.Is(err, services.ErrStoreFault) {
		middleware.LoggerFrom(c).Error().Err(err).Msg("unexpected submission error")
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, msg)
}
