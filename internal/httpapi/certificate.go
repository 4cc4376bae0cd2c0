package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/learnpath/internal/domain"
	"github.com/alexanderramin/learnpath/internal/logger"
	"github.com/alexanderramin/learnpath/internal/repository"
)

// CertificateVerifier resolves public certificate ids.
type CertificateVerifier interface {
	Verify(ctx context.Context, certificateID string) (*domain.CertificateVerification, error)
}

type CertificateHandler struct {
	log      *logger.Logger
	verifier CertificateVerifier
}

func NewCertificateHandler(log *logger.Logger, verifier CertificateVerifier) *CertificateHandler {
	return &CertificateHandler{
		log:      logger.OrNop(log).With("handler", "CertificateHandler"),
		verifier: verifier,
	}
}

type certificateResponse struct {
	CertificateID string    `json:"certificate_id"`
	RecipientName string    `json:"recipient_name"`
	IssuedAt      time.Time `json:"issued_at"`
}

// GET /api/certificates/:id
func (h *CertificateHandler) Verify(c *gin.Context) {
	id := c.Param("id")
	v, err := h.verifier.Verify(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "certificate_not_found", errors.New("certificate not found"))
			return
		}
		h.log.Error("verifying certificate", "certificate_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", errors.New("could not verify certificate"))
		return
	}
	RespondOK(c, certificateResponse{
		CertificateID: v.CertificateID,
		RecipientName: v.RecipientName,
		IssuedAt:      v.IssuedAt.UTC(),
	})
}
