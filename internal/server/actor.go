package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fanflet/fanflet/internal/authorization"
	obscontext "github.com/fanflet/fanflet/internal/observability/context"
	"github.com/gin-gonic/gin"
)

// HeaderActor carries the caller identity resolved by the upstream auth layer.
const HeaderActor = "X-Actor"

const contextActorKey = "actor"

type Actor struct {
	Type string
	ID   snowflake.ID
}

func (a Actor) subject() string {
	return a.Type + ":" + a.ID.String()
}

// ActorRequired parses X-Actor and stores the actor on the request context.
// Speaker actors also set the speaker correlation id for logs and traces.
func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderActor))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		actorType, actorID, err := authorization.ParseActor(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := Actor{Type: actorType, ID: actorID}
		ctx := obscontext.WithActor(c.Request.Context(), actor.Type, actor.ID.String())
		if actor.Type == authorization.ActorTypeSpeaker {
			ctx = obscontext.WithSpeakerID(ctx, actor.ID.String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextActorKey, actor)
		c.Next()
	}
}

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor.subject(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func actorFromContext(c *gin.Context) (Actor, bool) {
	if c == nil {
		return Actor{}, false
	}
	value, ok := c.Get(contextActorKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := value.(Actor)
	if !ok || actor.ID == 0 {
		return Actor{}, false
	}
	return actor, true
}

// speakerFromActor returns the caller's own speaker id. Dashboard routes only
// ever resolve the calling speaker.
func speakerFromActor(c *gin.Context) (string, error) {
	actor, ok := actorFromContext(c)
	if !ok {
		return "", ErrUnauthorized
	}
	if actor.Type != authorization.ActorTypeSpeaker {
		return "", ErrForbidden
	}
	return actor.ID.String(), nil
}
