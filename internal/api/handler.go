// Package api exposes the persistence service's message protocol over HTTP.
// The contract mirrors the runtime messaging boundary it replaces: failures
// are converted into `{success: false, error}` or a best-effort default and
// logged to the diagnostic store; they never surface as transport errors.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"betterfiction/internal/store"
	synchub "betterfiction/internal/sync"
	"betterfiction/pkg/models"
)

type Handler struct {
	Store *store.Store
	Hub   *synchub.Hub
}

func NewHandler(st *store.Store, hub *synchub.Hub) *Handler {
	return &Handler{Store: st, Hub: hub}
}

// RegisterReads wires the read half of the message protocol.
func (h *Handler) RegisterReads(rg *gin.RouterGroup) {
	rg.GET("/get-info", h.getInfo)
	rg.GET("/get-dir", h.getDir)
}

// RegisterWrites wires the mutating half of the message protocol.
func (h *Handler) RegisterWrites(rg *gin.RouterGroup) {
	rg.POST("/set-bookmark", h.setBookmark)
	rg.POST("/del-bookmark", h.delBookmark)
	rg.POST("/set-status", h.setStatus)
}

// RegisterStore wires the log and import/export surfaces.
func (h *Handler) RegisterStore(rg *gin.RouterGroup) {
	rg.GET("/logs", h.logs)
	rg.DELETE("/logs", h.clearLogs)
	rg.GET("/export", h.export)
	rg.POST("/import", h.importBlob)
}

type setBookmarkReq struct {
	ID        string    `json:"id"`
	Chapter   int       `json:"chapter"`
	Chapters  int       `json:"chapters"`
	Fandom    string    `json:"fandom"`
	Author    string    `json:"author"`
	StoryName string    `json:"storyName"`
	AddTime   time.Time `json:"addTime"`
	Status    string    `json:"status"`
}

func (h *Handler) setBookmark(c *gin.Context) {
	var req setBookmarkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "invalid json"})
		return
	}

	b := models.Bookmark{
		ID:        strings.TrimSpace(req.ID),
		Chapter:   req.Chapter,
		Chapters:  req.Chapters,
		Fandom:    req.Fandom,
		Author:    req.Author,
		StoryName: req.StoryName,
		AddTime:   req.AddTime,
		Status:    models.ParseStatus(req.Status),
	}

	if err := h.Store.SetBookmark(c.Request.Context(), b); err != nil {
		h.Store.LogError(c.Request.Context(), models.LogStorageError, "Failed to save bookmark",
			map[string]string{"id": b.ID, "error": err.Error()})
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	if h.Hub != nil {
		go h.Hub.Broadcast(synchub.UpdateEvent(b))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type idReq struct {
	ID string `json:"id"`
}

func (h *Handler) delBookmark(c *gin.Context) {
	var req idReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "id required"})
		return
	}
	id := strings.TrimSpace(req.ID)

	if err := h.Store.DelBookmark(c.Request.Context(), id); err != nil {
		h.Store.LogError(c.Request.Context(), models.LogStorageError, "Failed to delete bookmark",
			map[string]string{"id": id, "error": err.Error()})
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	if h.Hub != nil {
		go h.Hub.Broadcast(synchub.DeleteEvent(id))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) getInfo(c *gin.Context) {
	settings, err := h.Store.Settings(c.Request.Context())
	if err != nil {
		h.Store.LogError(c.Request.Context(), models.LogStorageError, "Failed to get settings (get-info)",
			map[string]string{"error": err.Error()})
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) getDir(c *gin.Context) {
	dir, err := h.Store.GetDir(c.Request.Context())
	if err != nil {
		h.Store.LogError(c.Request.Context(), models.LogStorageError, "Failed to get bookmark directory",
			map[string]string{"error": err.Error()})
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, dir)
}

type setStatusReq struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (h *Handler) setStatus(c *gin.Context) {
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}
	id := strings.TrimSpace(req.ID)
	status := models.ParseStatus(req.Status)

	if err := h.Store.SetStatus(c.Request.Context(), id, status); err != nil {
		h.Store.LogError(c.Request.Context(), models.LogStorageError, "Failed to set status",
			map[string]string{"id": id, "error": err.Error()})
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	if h.Hub != nil {
		if b, err := h.Store.Get(c.Request.Context(), id); err == nil && b != nil {
			go h.Hub.Broadcast(synchub.UpdateEvent(*b))
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) logs(c *gin.Context) {
	entries, err := h.Store.Logs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"items": []models.LogEntry{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (h *Handler) clearLogs(c *gin.Context) {
	if err := h.Store.ClearLogs(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cleared"})
}

func (h *Handler) export(c *gin.Context) {
	blob, err := h.Store.Export(c.Request.Context())
	if err != nil {
		h.Store.LogError(c.Request.Context(), models.LogStorageError, "Failed to export store",
			map[string]string{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.JSON(http.StatusOK, blob)
}

func (h *Handler) importBlob(c *gin.Context) {
	var blob store.Blob
	if err := c.ShouldBindJSON(&blob); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Store.Import(c.Request.Context(), &blob); err != nil {
		h.Store.LogError(c.Request.Context(), models.LogStorageError, "Failed to import store",
			map[string]string{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "imported"})
}
