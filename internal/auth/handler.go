package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Repo   *Repo
	Tokens TokenService

	// PairHash is the bcrypt hash of the pairing passphrase. Empty
	// disables pairing entirely.
	PairHash string
}

func NewHandler(repo *Repo, tokens TokenService, pairHash string) *Handler {
	return &Handler{Repo: repo, Tokens: tokens, PairHash: pairHash}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pair", h.pair)
}

// RegisterProtected adds the routes that require an already-paired device.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.GET("/devices", h.listDevices)
	rg.DELETE("/devices/:id", h.revoke)
}

type pairReq struct {
	Name       string `json:"name"`
	Passphrase string `json:"passphrase"`
}

func (h *Handler) pair(c *gin.Context) {
	if h.PairHash == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "pairing disabled"})
		return
	}

	var req pairReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.PairHash), []byte(req.Passphrase)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong passphrase"})
		return
	}

	device := Device{ID: uuid.NewString(), Name: name}
	if err := h.Repo.Create(c.Request.Context(), device); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pair failed"})
		return
	}

	token, exp, err := h.Tokens.Sign(&device)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device_id":  device.ID,
		"token":      token,
		"expires_at": exp,
	})
}

func (h *Handler) listDevices(c *gin.Context) {
	devices, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": devices})
}

func (h *Handler) revoke(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}
	ok, err := h.Repo.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "revoked"})
}
