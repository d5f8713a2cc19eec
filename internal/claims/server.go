package claims

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"feigov/internal/domain"
	"feigov/internal/logger"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ClaimResponse is returned by GET /claims/:token/:holder.
type ClaimResponse struct {
	Token  common.Address `json:"token"`
	Holder common.Address `json:"holder"`
	Root   common.Hash    `json:"root"`
	domain.Claim
}

// Handler answers claims requests from a Store.
type Handler struct {
	store *Store
	log   *logger.Logger
}

func NewHandler(s *Store, log *logger.Logger) *Handler {
	return &Handler{store: s, log: log.With("handler", "claims")}
}

// NewRouter builds the gin engine serving s.
func NewRouter(s *Store, log *logger.Logger) *gin.Engine {
	h := NewHandler(s, log)
	router := gin.New()
	router.Use(gin.Recovery(), accessLog(log))

	router.GET("/healthz", h.Health)
	router.GET("/roots", h.Roots)
	router.GET("/claims/:token/:holder", h.Claim)
	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not_found", fmt.Errorf("no route for %s", c.Request.URL.Path))
	})
	return router
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) Roots(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Roots())
}

func (h *Handler) Claim(c *gin.Context) {
	token, ok := parseAddress(c, "token")
	if !ok {
		return
	}
	holder, ok := parseAddress(c, "holder")
	if !ok {
		return
	}
	claim, root, err := h.store.Claim(token, holder)
	switch {
	case errors.Is(err, ErrUnknownToken):
		respondError(c, http.StatusNotFound, "unknown_token", err)
		return
	case errors.Is(err, ErrUnknownHolder):
		respondError(c, http.StatusNotFound, "unknown_holder", err)
		return
	case err != nil:
		h.log.Error("claim lookup failed", "error", err)
		respondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	c.JSON(http.StatusOK, ClaimResponse{Token: token, Holder: holder, Root: root, Claim: claim})
}

func parseAddress(c *gin.Context, param string) (common.Address, bool) {
	v := c.Param(param)
	if !common.IsHexAddress(v) {
		respondError(c, http.StatusBadRequest, "invalid_address", fmt.Errorf("%s %q is not an address", param, v))
		return common.Address{}, false
	}
	return common.HexToAddress(v), true
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// accessLog records method, path, status, bytes and duration per request.
func accessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"remote", c.ClientIP(),
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"duration", time.Since(start),
		)
	}
}
