package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/incident-reporter/internal/dto"
	"github.com/noah-isme/incident-reporter/internal/service"
	appErrors "github.com/noah-isme/incident-reporter/pkg/errors"
	"github.com/noah-isme/incident-reporter/pkg/response"
)

const (
	screenshotField      = "screenshot"
	workerNameCookie     = "worker_name"
	workerNameCookieAge  = 365 * 24 * 60 * 60
	multipartBodyOverage = 1 << 20
)

type incidentSubmitter interface {
	Submit(ctx context.Context, req dto.CreateIncidentRequest, upload *service.FileUpload) (int64, *service.UploadResult, error)
}

// WorkerHandler handles the worker form submission.
type WorkerHandler struct {
	service      incidentSubmitter
	maxBodyBytes int64
}

// NewWorkerHandler constructs the handler. Request bodies are capped at maxFileSize plus 1 MiB of form fields.
func NewWorkerHandler(svc incidentSubmitter, maxFileSize int64) *WorkerHandler {
	return &WorkerHandler{service: svc, maxBodyBytes: maxFileSize + multipartBodyOverage}
}

// Submit godoc
// @Summary Submit an incident
// @Description Worker form submission with an optional screenshot
// @Tags Worker
// @Accept multipart/form-data
// @Produce json
// @Param wolt_id formData string true "Wolt order id"
// @Param wolt_delivery_id formData string true "Wolt delivery id"
// @Param category formData string true "Incident category"
// @Param amount formData number false "Amount for monetary categories"
// @Param description formData string false "Description"
// @Param report_date formData string true "Report date"
// @Param worker_name formData string true "Worker name"
// @Param screenshot formData file false "Screenshot image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /worker/submit [post]
func (h *WorkerHandler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	var req dto.CreateIncidentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	upload, closeFile, err := formUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFile()

	id, _, err := h.service.Submit(c.Request.Context(), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetCookie(workerNameCookie, req.WorkerName, workerNameCookieAge, "/", "", false, false)
	response.OK(c, dto.CreateIncidentResponse{ID: id}, service.IncidentCreatedMessage)
}

// formUpload opens the optional screenshot part; a missing part is not an error.
func formUpload(c *gin.Context) (*service.FileUpload, func(), error) {
	noop := func() {}
	header, err := c.FormFile(screenshotField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, bindError(err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, noop, appErrors.Internal(err, "failed to read upload")
	}
	upload := &service.FileUpload{
		Filename: header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Content:  file,
	}
	return upload, func() { _ = file.Close() }, nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return appErrors.Wrap(err, appErrors.ErrUploadRejected.Code, http.StatusBadRequest, "File too large")
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid form data")
}
