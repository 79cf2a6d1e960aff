package ui

import (
	"shoptrends/internal/dashboard"
	"shoptrends/internal/errors"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// loadSession resolves the :id path parameter to a live session
func (s *Server) loadSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func sessionOf(c *gin.Context) *dashboard.Session {
	return c.MustGet(sessionKey).(*dashboard.Session)
}

// abortWithError writes the error body with the status of its code. Internal errors are
// logged; client errors are not.
func (s *Server) abortWithError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	code := errors.CodeInternalError
	if errors.IsAppError(err) {
		code = errors.GetCode(err)
	}
	if status >= 500 {
		s.logger.Error("[Server] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}
