package cacheserver

import (
	"net/http"
	"strconv"
	"time"

	"cachequorum/internal/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter returns a gin engine serving the cache REST API over store.
func NewRouter(store storage.Store, logger *log.Entry) *gin.Engine {
	r := gin.New()
	// Values travel in the path, so match on the escaped form.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), requestLogger(logger))

	h := &handler{store: store, logger: logger}
	r.GET("/cache", h.list)
	r.GET("/cache/:key", h.get)
	r.PUT("/cache/:key/:value", h.put)
	r.DELETE("/cache/:key", h.delete)
	return r
}

func requestLogger(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("request")
	}
}

type handler struct {
	store  storage.Store
	logger *log.Entry
}

func parseKey(c *gin.Context) (uint64, bool) {
	key, err := strconv.ParseUint(c.Param("key"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key must be an unsigned integer"})
		return 0, false
	}
	return key, true
}

func (h *handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List())
}

func (h *handler) get(c *gin.Context) {
	key, ok := parseKey(c)
	if !ok {
		return
	}
	v, found := h.store.Get(key)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, storage.Entry{Key: key, Value: v})
}

func (h *handler) put(c *gin.Context) {
	key, ok := parseKey(c)
	if !ok {
		return
	}
	value := c.Param("value")
	h.store.Put(key, value)
	c.JSON(http.StatusOK, storage.Entry{Key: key, Value: value})
}

func (h *handler) delete(c *gin.Context) {
	key, ok := parseKey(c)
	if !ok {
		return
	}
	if !h.store.Delete(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
