package server

import (
	"net/http"
	"strings"

	plandomain "github.com/fanflet/fanflet/internal/plan/domain"
	"github.com/gin-gonic/gin"
)

type createPlanRequest struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Limits      map[string]int64 `json:"limits"`
	Active      *bool            `json:"active"`
}

type updatePlanLimitsRequest struct {
	Limits map[string]int64 `json:"limits"`
}

type replacePlanFeaturesRequest struct {
	FeatureKeys []string `json:"feature_keys"`
}

func (s *Server) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Create(c.Request.Context(), plandomain.CreateRequest{
		Name:        strings.TrimSpace(req.Name),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Limits:      req.Limits,
		Active:      req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPlans(c *gin.Context) {
	var query struct {
		Active  string `form:"active"`
		SortBy  string `form:"sort_by"`
		OrderBy string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.planSvc.List(c.Request.Context(), plandomain.ListRequest{
		Active:  active,
		SortBy:  strings.TrimSpace(query.SortBy),
		OrderBy: strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlan(c *gin.Context) {
	resp, err := s.planSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePlanLimits(c *gin.Context) {
	var req updatePlanLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.UpdateLimits(c.Request.Context(), plandomain.UpdateLimitsRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Limits: req.Limits,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPlanFeatures(c *gin.Context) {
	resp, err := s.planSvc.ListFeatures(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReplacePlanFeatures(c *gin.Context) {
	var req replacePlanFeaturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.ReplaceFeatures(c.Request.Context(), plandomain.ReplaceFeaturesRequest{
		PlanID: strings.TrimSpace(c.Param("id")),
		Keys:   req.FeatureKeys,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
