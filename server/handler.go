package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tree-tracker/benefits"
	"tree-tracker/catalog"
	"tree-tracker/location"
	"tree-tracker/models"
	"tree-tracker/services"
	"tree-tracker/storage"
	"tree-tracker/utils"
)

// LocationResolver is the session's address resolver.
type LocationResolver interface {
	Resolve(ctx context.Context) (*models.ResolvedAddress, error)
	Address() *models.ResolvedAddress
	State() location.State
	Resolving() bool
}

// Handler serves the API. Index may be nil when no search backend is
// configured. Each client session gets its own resolver from NewResolver;
// DefaultPosition, when set, is used for sessions opened without
// coordinates.
type Handler struct {
	Catalog         *catalog.Catalog
	Forms           *services.FormService
	Benefits        *services.BenefitsService
	Recorder        *services.Recorder
	Reports         *services.InsightService
	Store           storage.TreeStore
	Index           storage.SearchIndex
	NewResolver     ResolverFactory
	DefaultPosition *models.Coordinates
	Logger          *utils.Logger

	sessions sessions
}

// treeRequest is the add-tree form plus an optional explicit address.
// Without one, the session address is used.
type treeRequest struct {
	models.TreeForm
	Address           *models.ResolvedAddress `json:"address,omitempty"`
	CalculateBenefits bool                    `json:"calculate_benefits"`
}

// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{"status": "ok", "species": h.Catalog.Len(), "submitted": h.Recorder.Submitted()}
	if counter, ok := h.Store.(storage.TreeCounter); ok {
		n, err := counter.Count(c.Request.Context())
		if err != nil {
			h.Logger.Warn("[http] Health: %v", err)
			resp["status"] = "degraded"
		} else {
			resp["trees"] = n
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/species?q=&code=&sort=common
func (h *Handler) ListSpecies(c *gin.Context) {
	if code := c.Query("code"); code != "" {
		sp, ok := h.Catalog.LookupByCode(code)
		if !ok {
			c.JSON(http.StatusOK, []models.Species{})
			return
		}
		c.JSON(http.StatusOK, []models.Species{sp})
		return
	}
	if c.Query("sort") == "common" && c.Query("q") == "" {
		c.JSON(http.StatusOK, h.Catalog.SortedByCommon())
		return
	}
	c.JSON(http.StatusOK, h.Catalog.Search(c.Query("q")))
}

// GET /api/species/:id
func (h *Handler) GetSpecies(c *gin.Context) {
	sp, ok := h.Catalog.LookupByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "species not found"})
		return
	}
	c.JSON(http.StatusOK, sp)
}

// GET /api/genera?q=
func (h *Handler) ListGenera(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.Genera(c.Query("q")))
}

// GET /api/genera/:genus/species
func (h *Handler) ListGenusSpecies(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.InGenus(c.Param("genus")))
}

// session returns the resolver of the request's session, or nil.
func (h *Handler) session(c *gin.Context) LocationResolver {
	return h.sessions.get(c.GetHeader(SessionHeader))
}

// GET /api/location
func (h *Handler) GetLocation(c *gin.Context) {
	r := h.session(c)
	if r == nil {
		c.JSON(http.StatusOK, gin.H{"state": location.Unrequested.String(), "address": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":     r.State().String(),
		"resolving": r.Resolving(),
		"address":   r.Address(),
	})
}

// POST /api/location/resolve
//
// Opens a session when the request carries no known session ID. The
// session's position comes from the body or DefaultPosition and is fixed
// for its lifetime.
func (h *Handler) ResolveLocation(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.GetHeader(SessionHeader)
	r := h.sessions.get(id)
	if r == nil {
		coords, ok := req.position(h.DefaultPosition)
		if !ok {
			h.fail(c, ErrNoPosition)
			return
		}
		if id == "" {
			id = uuid.NewString()
		}
		r = h.sessions.open(id, func() LocationResolver { return h.NewResolver(coords) })
		h.Logger.Debug("[http] Session %s at %.5f,%.5f", id, coords.Latitude, coords.Longitude)
	}
	c.Header(SessionHeader, id)

	addr, err := r.Resolve(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "state": r.State().String(), "address": addr})
}

// POST /api/benefits
func (h *Handler) CalculateBenefits(c *gin.Context) {
	var req treeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		rec *models.BenefitRecord
		err error
	)
	if req.Address != nil {
		rec, err = h.Benefits.CalculateAt(c.Request.Context(), req.TreeForm, req.Address)
	} else {
		var src services.AddressSource
		if r := h.session(c); r != nil {
			src = r
		}
		rec, err = h.Benefits.Calculate(c.Request.Context(), req.TreeForm, src)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"benefits": rec.Ordered()})
}

// POST /api/trees
func (h *Handler) SubmitTree(c *gin.Context) {
	var req treeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	addr := req.Address
	if r := h.session(c); addr == nil && r != nil {
		addr = r.Address()
	}

	var rec *models.BenefitRecord
	if req.CalculateBenefits {
		var err error
		rec, err = h.Benefits.CalculateAt(c.Request.Context(), req.TreeForm, addr)
		if err != nil {
			h.Logger.Warn("[http] Submitting without benefits: %v", err)
		}
	}

	entry, err := h.Forms.BuildEntry(req.TreeForm, addr, rec)
	if err != nil {
		h.fail(c, err)
		return
	}

	id, err := h.Recorder.Submit(entry)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "benefits": rec.Ordered()})
}

// GET /api/trees
func (h *Handler) ListTrees(c *gin.Context) {
	entries, err := h.Store.FetchAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []*models.TreeEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// GET /api/insights
func (h *Handler) Insights(c *gin.Context) {
	entries, err := h.Store.FetchAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Reports.Generate(entries))
}

// GET /api/search?q=&limit=
func (h *Handler) Search(c *gin.Context) {
	if h.Index == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	docs, err := h.Index.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if docs == nil {
		docs = []storage.TreeDocument{}
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidForm),
		errors.Is(err, ErrNoPosition),
		errors.Is(err, benefits.ErrMissingField),
		errors.Is(err, benefits.ErrUnresolvedRegion):
		return http.StatusBadRequest
	case errors.Is(err, location.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, benefits.ErrAddressUnresolved),
		errors.Is(err, services.ErrDuplicateSubmission):
		return http.StatusConflict
	case errors.Is(err, benefits.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, location.ErrLocationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
