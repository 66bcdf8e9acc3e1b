package web

import (
	"github.com/bsnacks000/pgdal/apierr"
	"github.com/bsnacks000/pgdal/etag"
	"github.com/gin-gonic/gin"
)

// RenderError writes err as a JSON error response. Recognized apierr values
// render their status, detail and headers; anything else is a 500
// "Server Error." without leaking internals.
func RenderError(c *gin.Context, err error) {
	if e, ok := apierr.AsError(err); ok {
		for k, v := range e.Headers {
			c.Header(k, v)
		}
		c.AbortWithStatusJSON(e.Status, gin.H{"detail": e.Detail})
		return
	}
	c.AbortWithStatusJSON(500, gin.H{"detail": "Server Error."})
}

// SetEtag sets the Etag response header when tag is non-empty. Call it
// after a successful guarded mutation so the client's next write can use
// the fresh tag as its precondition.
func SetEtag(c *gin.Context, tag string) {
	etag.SetHeader(c.Writer.Header(), tag)
}
