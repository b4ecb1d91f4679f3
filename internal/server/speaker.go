package server

import (
	"net/http"
	"strings"

	speakerdomain "github.com/fanflet/fanflet/internal/speaker/domain"
	"github.com/gin-gonic/gin"
)

type createSpeakerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) CreateSpeaker(c *gin.Context) {
	var req createSpeakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.speakerSvc.Create(c.Request.Context(), speakerdomain.CreateRequest{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSpeaker(c *gin.Context) {
	resp, err := s.speakerSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
