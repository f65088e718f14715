// Package httpapi exposes the signing core over HTTP. These are the entry
// points that accept signer input and return the evidentiary check-list
// shapes; the core itself stays transport-agnostic.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/firmaleg/sescore/internal/sescore/device"
	"github.com/firmaleg/sescore/internal/sescore/evidence"
	"github.com/firmaleg/sescore/internal/sescore/export"
	"github.com/firmaleg/sescore/internal/sescore/ledger"
	"github.com/firmaleg/sescore/internal/sescore/verifier"
)

type Handler struct {
	Builder        *evidence.Builder
	Store          evidence.Store
	Ledger         *ledger.Ledger
	VerifyBaseURL  string
	LegalFramework string
}

// NewRouter wires all routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/signatures", h.handleCreateSignature)
	api.GET("/signatures/:id/verify", h.handleVerifySignature)
	api.GET("/signatures/:id/package", h.handleExportPackage)
	api.GET("/trails/:id/export", h.handleExportTrail)

	r.GET("/verify/:id", h.handlePublicVerify)
	return r
}

type createRequest struct {
	SignerMethod     string            `json:"signerMethod"`
	SignerIdentifier string            `json:"signerIdentifier"`
	SignerName       string            `json:"signerName,omitempty"`
	SignerTaxID      string            `json:"signerTaxId,omitempty"`
	SignerEmail      string            `json:"signerEmail,omitempty"`
	SignerPhone      string            `json:"signerPhone,omitempty"`
	DocumentContent  string            `json:"documentContent"`
	DocumentName     string            `json:"documentName"`
	SignatureValue   string            `json:"signatureValue"`
	SignatureMethod  string            `json:"signatureMethod"`
	Location         string            `json:"location,omitempty"`
	ConsentGiven     bool              `json:"consentGiven"`
	IntentToBind     bool              `json:"intentToBind"`
	AgreementText    string            `json:"agreementText,omitempty"`
	RetainContent    bool              `json:"retainContent"`
	ResourceID       string            `json:"resourceId,omitempty"`
	AdditionalFields map[string]string `json:"additionalFields,omitempty"`

	Device *struct {
		ScreenResolution string `json:"screenResolution,omitempty"`
		Timezone         string `json:"timezone,omitempty"`
		Language         string `json:"language,omitempty"`
		ConnectionType   string `json:"connectionType,omitempty"`
		CapturedAt       string `json:"capturedAt,omitempty"`
	} `json:"device,omitempty"`
}

func (h *Handler) handleCreateSignature(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params := evidence.CreateParams{
		SignerMethod:     req.SignerMethod,
		SignerIdentifier: req.SignerIdentifier,
		SignerName:       req.SignerName,
		SignerTaxID:      req.SignerTaxID,
		SignerEmail:      req.SignerEmail,
		SignerPhone:      req.SignerPhone,
		DocumentContent:  req.DocumentContent,
		DocumentName:     req.DocumentName,
		SignatureValue:   req.SignatureValue,
		SignatureMethod:  req.SignatureMethod,
		IPAddress:        c.ClientIP(),
		UserAgent:        c.Request.UserAgent(),
		Location:         req.Location,
		ConsentGiven:     req.ConsentGiven,
		IntentToBind:     req.IntentToBind,
		AgreementText:    req.AgreementText,
		RetainContent:    req.RetainContent,
		ResourceID:       req.ResourceID,
		AdditionalFields: req.AdditionalFields,
	}
	if req.Device != nil {
		params.DeviceInput = &device.CaptureInput{
			IPAddress:        c.ClientIP(),
			UserAgent:        c.Request.UserAgent(),
			ScreenResolution: req.Device.ScreenResolution,
			Timezone:         req.Device.Timezone,
			Language:         req.Device.Language,
			ConnectionType:   req.Device.ConnectionType,
			CapturedAt:       req.Device.CapturedAt,
		}
	}

	sig, err := h.Builder.CreateSignature(c.Request.Context(), params)
	if err != nil {
		var verr *evidence.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signature creation failed"})
		return
	}

	if err := h.Store.Put(sig); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evidence store failed"})
		return
	}

	res := verifier.Verify(sig)
	legalValidity := "valid"
	if !res.Valid {
		legalValidity = "valid_with_warnings"
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":              sig.ID,
		"status":          "signed",
		"complianceLevel": "SES",
		"legalValidity":   legalValidity,
	})
}

func (h *Handler) handleVerifySignature(c *gin.Context) {
	sig, ok := h.Store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown signature"})
		return
	}

	if resourceID := c.Query("resourceId"); resourceID != "" {
		c.JSON(http.StatusOK, verifier.VerifyWithLedger(sig, h.Ledger, resourceID))
		return
	}
	c.JSON(http.StatusOK, verifier.Verify(sig))
}

// handlePublicVerify backs the QR/URL printed on exported artifacts. It
// returns the per-field check-list shape UIs render as verificado / no
// verificado, never raw internals.
func (h *Handler) handlePublicVerify(c *gin.Context) {
	sig, ok := h.Store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown signature"})
		return
	}

	res := verifier.Verify(sig)
	c.JSON(http.StatusOK, gin.H{
		"id":              sig.ID,
		"signerMethod":    sig.Signer.Method,
		"documentHash":    sig.Document.Hash,
		"timestamp":       sig.Timestamp.Value,
		"timestampSource": sig.Timestamp.Source,
		"checks":          res.Checks,
		"warnings":        res.Warnings,
		"valid":           res.Valid,
	})
}

func (h *Handler) handleExportPackage(c *gin.Context) {
	sig, ok := h.Store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown signature"})
		return
	}
	c.JSON(http.StatusOK, export.EvidencePackage(sig, h.LegalFramework))
}

func (h *Handler) handleExportTrail(c *gin.Context) {
	te, err := h.Ledger.ExportTrail(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trail export failed"})
		return
	}
	if te == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown trail"})
		return
	}
	c.JSON(http.StatusOK, te)
}
