package server

import (
	"net/http"
	"strings"

	featureflagdomain "github.com/fanflet/fanflet/internal/featureflag/domain"
	"github.com/gin-gonic/gin"
)

type createFeatureFlagRequest struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsGlobal    bool    `json:"is_global"`
}

type updateFeatureFlagRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsGlobal    *bool   `json:"is_global,omitempty"`
}

type setOverrideRequest struct {
	Enabled *bool   `json:"enabled"`
	Reason  *string `json:"reason"`
}

func (s *Server) CreateFeatureFlag(c *gin.Context) {
	var req createFeatureFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.featureFlagSvc.Create(c.Request.Context(), featureflagdomain.CreateRequest{
		Key:         strings.TrimSpace(req.Key),
		Name:        strings.TrimSpace(req.Name),
		Description: trimOptionalString(req.Description),
		IsGlobal:    req.IsGlobal,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFeatureFlags(c *gin.Context) {
	var query struct {
		Key      string `form:"key"`
		IsGlobal string `form:"is_global"`
		SortBy   string `form:"sort_by"`
		OrderBy  string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isGlobal, err := parseOptionalBool(query.IsGlobal)
	if err != nil {
		AbortWithError(c, newValidationError("is_global", "invalid_is_global", "invalid is_global"))
		return
	}

	resp, err := s.featureFlagSvc.List(c.Request.Context(), featureflagdomain.ListRequest{
		Key:      strings.TrimSpace(query.Key),
		IsGlobal: isGlobal,
		SortBy:   strings.TrimSpace(query.SortBy),
		OrderBy:  strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateFeatureFlag(c *gin.Context) {
	var req updateFeatureFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.featureFlagSvc.Update(c.Request.Context(), featureflagdomain.UpdateRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Name:        trimOptionalString(req.Name),
		Description: req.Description,
		IsGlobal:    req.IsGlobal,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetOverride(c *gin.Context) {
	var req setOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		AbortWithError(c, newValidationError("enabled", "required", "enabled is required"))
		return
	}

	resp, err := s.featureFlagSvc.SetOverride(c.Request.Context(), featureflagdomain.SetOverrideRequest{
		SpeakerID: strings.TrimSpace(c.Param("id")),
		Key:       c.Param("key"),
		Enabled:   *req.Enabled,
		Reason:    trimOptionalString(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ClearOverride(c *gin.Context) {
	err := s.featureFlagSvc.ClearOverride(c.Request.Context(), strings.TrimSpace(c.Param("id")), c.Param("key"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListOverrides(c *gin.Context) {
	resp, err := s.featureFlagSvc.ListOverrides(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
