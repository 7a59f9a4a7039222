package search

import (
	"errors"
	"net/http"
	"strconv"

	"farefinder/internal/offer"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{
		service: s,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/v1/flights/search", h.SearchFlightsHandler)
	router.POST("/v1/flights/filter", h.FilterOffersHandler)
	router.GET("/v1/locations", h.SearchLocationsHandler)
	router.GET("/v1/history", h.RecentSearchesHandler)
}

type FilterRequest struct {
	offer.SearchQuery
	Criteria offer.FilterCriteria `json:"criteria"`
}

func (h *Handler) SearchFlightsHandler(c *gin.Context) {
	var q offer.SearchQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid JSON body",
			"code":  offer.ErrorCodeValidation,
		})
		return
	}

	offers, err := h.service.SearchFlights(c.Request.Context(), q)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  len(offers),
		"offers": offers,
	})
}

func (h *Handler) FilterOffersHandler(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid JSON body",
			"code":  offer.ErrorCodeValidation,
		})
		return
	}

	offers, err := h.service.FilterOffers(c.Request.Context(), req.SearchQuery, req.Criteria)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  len(offers),
		"offers": offers,
	})
}

func (h *Handler) SearchLocationsHandler(c *gin.Context) {
	locations, err := h.service.SearchLocations(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"locations": locations,
	})
}

func (h *Handler) RecentSearchesHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	records, err := h.service.RecentSearches(c.Request.Context(), limit)
	if err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"searches": records,
	})
}

// sendError maps AppError codes to HTTP statuses. Provider-side failures
// surface as 502 so a transient outage never looks like a bug in this
// service, and never crashes the request pipeline.
func sendError(c *gin.Context, err error) {
	var appErr *offer.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case offer.ErrorCodeValidation:
			status = http.StatusBadRequest
		case offer.ErrorCodeAuth, offer.ErrorCodeUpstream, offer.ErrorCodeParse:
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal Server Error",
	})
}
