package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HasFeature answers whether the calling speaker may use a feature. Store
// failures surface as 503, never as a denial.
func (s *Server) HasFeature(c *gin.Context) {
	speakerID, err := speakerFromActor(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	key := c.Param("key")
	enabled, err := s.entitlementSvc.HasFeature(c.Request.Context(), speakerID, key)
	if err != nil {
		AbortWithError(c, storeUnavailable(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"feature_key": key,
		"enabled":     enabled,
	}})
}

// GetSpeakerLimits returns the calling speaker's plan limits. Unknown limits
// render as null.
func (s *Server) GetSpeakerLimits(c *gin.Context) {
	speakerID, err := speakerFromActor(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limits, err := s.entitlementSvc.GetSpeakerLimits(c.Request.Context(), speakerID)
	if err != nil {
		AbortWithError(c, storeUnavailable(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"limits": limits}})
}

func (s *Server) GetSpeakerLimitsForAdmin(c *gin.Context) {
	speakerID := strings.TrimSpace(c.Param("id"))

	limits, err := s.entitlementSvc.GetSpeakerLimits(c.Request.Context(), speakerID)
	if err != nil {
		AbortWithError(c, storeUnavailable(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"speaker_id": speakerID,
		"limits":     limits,
	}})
}

func (s *Server) ExplainEntitlement(c *gin.Context) {
	speakerID := strings.TrimSpace(c.Param("id"))

	exp, err := s.entitlementSvc.Explain(c.Request.Context(), speakerID, c.Param("key"))
	if err != nil {
		AbortWithError(c, storeUnavailable(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": exp})
}
