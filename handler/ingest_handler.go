package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/lawchat-be/service"
	"github.com/tieubaoca/lawchat-be/types"
)

type IngestHandler struct {
	ingest    *service.IngestService
	corpusDir string
}

func NewIngestHandler(ingest *service.IngestService, corpusDir string) *IngestHandler {
	return &IngestHandler{
		ingest:    ingest,
		corpusDir: corpusDir,
	}
}

// HandleIngest triggers a corpus ingestion run. The directory defaults to
// the configured corpus directory.
func (h *IngestHandler) HandleIngest(c *gin.Context) {
	var req types.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}
	dir := req.Dir
	if dir == "" {
		dir = h.corpusDir
	}

	result := h.ingest.IngestDirectory(c.Request.Context(), dir)
	status := "success"
	httpStatus := http.StatusOK
	if !result.Success {
		status = "error"
		httpStatus = http.StatusInternalServerError
	}
	c.JSON(httpStatus, types.DataResponse{
		Status: status,
		Data:   result,
	})
}
