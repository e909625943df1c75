package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KaranKumar0402/Commodity-price/internal/logger"
	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

const sessionKey = "session"

// session attaches the visitor's form state to the request, creating a new
// session when the cookie is missing or has expired. The state is written
// back once the handler returns.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *models.Session
		if id, err := c.Cookie(s.opts.SessionCookie); err == nil {
			sess, _ = s.opts.Store.GetSession(id)
		}
		if sess == nil {
			sess = &models.Session{
				ID:     uuid.NewString(),
				Inputs: models.DefaultInputs(),
			}
			logger.Debug("Started session %s", sess.ID)
		}
		if err := s.opts.Store.PutSession(sess); err != nil {
			logger.Error("Failed to store session %s: %v", sess.ID, err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.opts.SessionCookie, sess.ID, int(s.opts.SessionTTL.Seconds()), "/", "", false, true)
		c.Set(sessionKey, sess)

		c.Next()

		if err := s.opts.Store.PutSession(sess); err != nil {
			logger.Warn("Failed to save session %s: %v", sess.ID, err)
		}
	}
}

func currentSession(c *gin.Context) *models.Session {
	return c.MustGet(sessionKey).(*models.Session)
}
