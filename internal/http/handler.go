package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/xsec-api/internal/adapter/hitran"
	"go.ngs.io/xsec-api/internal/adapter/interp"
	"go.ngs.io/xsec-api/internal/adapter/store"
	"go.ngs.io/xsec-api/internal/domain"
	"go.ngs.io/xsec-api/internal/usecase"
)

// Handler handles HTTP requests for cross sections and line tables.
type Handler struct {
	xsecUC *usecase.CrossSectionUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(xsecUC *usecase.CrossSectionUseCase) *Handler {
	return &Handler{
		xsecUC: xsecUC,
	}
}

// paramError is a malformed or missing query parameter.
type paramError struct {
	name string
	msg  string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.name, e.msg)
}

func requiredFloat(c *gin.Context, name string) (float64, error) {
	s := c.Query(name)
	if s == "" {
		return 0, &paramError{name, "parameter is required"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &paramError{name, err.Error()}
	}
	return v, nil
}

func optionalFloat(c *gin.Context, name string, def float64) (float64, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &paramError{name, err.Error()}
	}
	return v, nil
}

func optionalInt(c *gin.Context, name string, def int) (int, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &paramError{name, err.Error()}
	}
	return v, nil
}

// windowParams holds the parameters shared by /v1/xsec and /v1/spectrum.
type windowParams struct {
	moleculeID     int
	isotopologueID int
	numin, numax   float64
	temperature    float64
	pressure       float64
}

func parseWindow(c *gin.Context) (windowParams, error) {
	var p windowParams
	var err error

	molecule := c.Query("molecule_id")
	if molecule == "" {
		return p, &paramError{"molecule_id", "parameter is required"}
	}
	if p.moleculeID, err = strconv.Atoi(molecule); err != nil {
		return p, &paramError{"molecule_id", err.Error()}
	}
	if p.isotopologueID, err = optionalInt(c, "isotopologue_id", 1); err != nil {
		return p, err
	}
	if p.numin, err = requiredFloat(c, "numin"); err != nil {
		return p, err
	}
	if p.numax, err = requiredFloat(c, "numax"); err != nil {
		return p, err
	}
	if p.temperature, err = optionalFloat(c, "temperature", domain.TRef); err != nil {
		return p, err
	}
	if p.pressure, err = optionalFloat(c, "pressure", domain.PRef); err != nil {
		return p, err
	}
	return p, nil
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var pe *paramError
	switch {
	case errors.As(err, &pe), errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyGrid),
		errors.Is(err, domain.ErrGridTooLarge),
		errors.Is(err, domain.ErrInvalidEnvironment),
		errors.Is(err, domain.ErrUnknownIsotopologue),
		errors.Is(err, domain.ErrInvalidWavelength),
		errors.Is(err, interp.ErrEmptySeries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, hitran.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// GetCrossSection handles GET /v1/xsec.
func (h *Handler) GetCrossSection(c *gin.Context) {
	p, err := parseWindow(c)
	if err != nil {
		writeError(c, err)
		return
	}

	wavelength, err := requiredFloat(c, "wavelength")
	if err != nil {
		writeError(c, err)
		return
	}

	unit, err := domain.ParseSpectralUnit(c.Query("unit"))
	if err != nil {
		writeError(c, &paramError{"unit", err.Error()})
		return
	}

	response, err := h.xsecUC.Execute(c.Request.Context(), usecase.CrossSectionRequest{
		MoleculeID:     p.moleculeID,
		IsotopologueID: p.isotopologueID,
		NuMin:          p.numin,
		NuMax:          p.numax,
		Wavelength:     wavelength,
		Unit:           unit,
		TemperatureK:   p.temperature,
		PressureAtm:    p.pressure,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetSpectrum handles GET /v1/spectrum.
func (h *Handler) GetSpectrum(c *gin.Context) {
	p, err := parseWindow(c)
	if err != nil {
		writeError(c, err)
		return
	}

	step, err := optionalFloat(c, "step", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	selfFraction, err := optionalFloat(c, "self_fraction", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	if selfFraction < 0 || selfFraction > 1 {
		writeError(c, &paramError{"self_fraction", "must be between 0 and 1"})
		return
	}
	peaks, err := optionalInt(c, "peaks", 10)
	if err != nil {
		writeError(c, err)
		return
	}
	absorption := false
	if s := c.Query("absorption"); s != "" {
		if absorption, err = strconv.ParseBool(s); err != nil {
			writeError(c, &paramError{"absorption", err.Error()})
			return
		}
	}

	response, err := h.xsecUC.Spectrum(c.Request.Context(), usecase.SpectrumRequest{
		MoleculeID:     p.moleculeID,
		IsotopologueID: p.isotopologueID,
		NuMin:          p.numin,
		NuMax:          p.numax,
		Step:           step,
		TemperatureK:   p.temperature,
		PressureAtm:    p.pressure,
		SelfFraction:   selfFraction,
		Absorption:     absorption,
		Table:          c.Query("table"),
		Peaks:          peaks,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetIsotopologues handles GET /v1/isotopologues.
func (h *Handler) GetIsotopologues(c *gin.Context) {
	isos := h.xsecUC.Isotopologues()
	c.JSON(http.StatusOK, gin.H{
		"isotopologues": isos,
		"count":         len(isos),
	})
}

// GetTables handles GET /v1/tables.
func (h *Handler) GetTables(c *gin.Context) {
	tables, err := h.xsecUC.ListTables(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tables": tables,
		"count":  len(tables),
	})
}

// DeleteTable handles DELETE /v1/tables/:name.
func (h *Handler) DeleteTable(c *gin.Context) {
	if err := h.xsecUC.DropTable(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
