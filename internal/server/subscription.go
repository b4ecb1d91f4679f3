package server

import (
	"net/http"
	"strings"

	subscriptiondomain "github.com/fanflet/fanflet/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

type createSubscriptionRequest struct {
	SpeakerID string `json:"speaker_id"`
	PlanID    string `json:"plan_id"`
	Status    string `json:"status"`
}

type transitionSubscriptionRequest struct {
	Status string `json:"status"`
}

type changeSubscriptionPlanRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.Create(c.Request.Context(), subscriptiondomain.CreateRequest{
		SpeakerID: strings.TrimSpace(req.SpeakerID),
		PlanID:    strings.TrimSpace(req.PlanID),
		Status:    subscriptiondomain.SubscriptionStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSubscription(c *gin.Context) {
	resp, err := s.subscriptionSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSpeakerSubscriptions(c *gin.Context) {
	resp, err := s.subscriptionSvc.ListBySpeaker(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TransitionSubscription(c *gin.Context) {
	var req transitionSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.Transition(c.Request.Context(), subscriptiondomain.TransitionRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Status: subscriptiondomain.SubscriptionStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ChangeSubscriptionPlan(c *gin.Context) {
	var req changeSubscriptionPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriptionSvc.ChangePlan(c.Request.Context(), subscriptiondomain.ChangePlanRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		PlanID: strings.TrimSpace(req.PlanID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
