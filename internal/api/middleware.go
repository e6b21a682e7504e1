package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHeader carries the authenticated user id set by the upstream gateway.
const UserHeader = "X-User-ID"

const userKey = "userID"

// RequireUser rejects requests without a valid user id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(UserHeader))
		if err != nil || id == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{
				Status:  statusFail,
				Message: "You are not logged in. Please log in to get access.",
			})
			return
		}
		c.Set(userKey, id)
		c.Next()
	}
}

func currentUser(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet(userKey).(uuid.UUID)
	return id
}
