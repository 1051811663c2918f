package auth

import "github.com/gin-gonic/gin"

const actorKey = "actor"

// SetActor stores the authenticated actor in the gin context.
func SetActor(c *gin.Context, actor Actor) {
	c.Set(actorKey, actor)
}

// GetActor returns the authenticated actor, if any.
func GetActor(c *gin.Context) (Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	return actor, ok
}

