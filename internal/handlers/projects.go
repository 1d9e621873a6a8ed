package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-photoshoot-gateway/internal/logger"
	"ai-photoshoot-gateway/internal/middleware"
	"ai-photoshoot-gateway/internal/models"
	"ai-photoshoot-gateway/internal/services"
	"ai-photoshoot-gateway/internal/studio"
	"ai-photoshoot-gateway/internal/supabase"
	"ai-photoshoot-gateway/internal/workflow"
)

type ProjectsHandler struct {
	studioClient   *studio.Client
	realtimeClient *supabase.RealtimeClient
	archiveService *services.ArchiveService
	log            *logger.Logger
}

func NewProjectsHandler(
	studioClient *studio.Client,
	realtimeClient *supabase.RealtimeClient,
	archiveService *services.ArchiveService,
	log *logger.Logger,
) *ProjectsHandler {
	return &ProjectsHandler{
		studioClient:   studioClient,
		realtimeClient: realtimeClient,
		archiveService: archiveService,
		log:            log,
	}
}

// ListProjects proxies the studio backend's project list.
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	sc := h.tokenClient(c)

	var projects []studio.Project
	err := sc.RetryWithBackoff(func() error {
		var err error
		projects, err = sc.ListProjects(c.Request.Context())
		return err
	}, 3)
	if err != nil {
		h.log.Error("failed to list projects", "error", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "backend connection error",
			Message: "We're having trouble connecting to our servers. Please try again.",
		})
		return
	}

	if projects == nil {
		projects = []studio.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

// Generate runs the generation stages for an existing product: project
// creation, prompt generation, and the concurrent design fan-out. The
// response carries the chat handoff (project id plus the ordered image
// list and its encoded navigation parameter).
func (h *ProjectsHandler) Generate(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	productID := c.Param("product_id")
	sc := h.tokenClient(c)

	product, err := h.findProduct(c.Request.Context(), sc, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "product not found",
			Message: err.Error(),
		})
		return
	}

	progress := h.progressFunc(userID, "product:"+productID)
	runner := workflow.NewRunner(sc, h.log, progress)
	result, err := runner.Generate(c.Request.Context(), product)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: "failed to generate designs",
		})
		return
	}

	if h.realtimeClient != nil {
		if err := h.realtimeClient.PublishProjectEvent(userID, result.ProjectID, "designs_ready",
			supabase.DesignsReadyPayload(result.ProjectID, result.ImageURLs)); err != nil {
			h.log.Warn("failed to publish designs event",
				"project_id", result.ProjectID,
				"error", err)
		}
	}

	// Archive in the background; the handoff never waits on it.
	if h.archiveService != nil && len(result.ImageURLs) > 0 {
		go h.archiveService.ArchiveDesigns(context.Background(), userID, result.ProjectID, result.ImageURLs)
	}

	c.JSON(http.StatusOK, models.GenerateResponse{
		ProjectID:   result.ProjectID,
		ImageURLs:   result.ImageURLs,
		ImagesParam: result.ImagesParam,
	})
}

func (h *ProjectsHandler) findProduct(ctx context.Context, sc *studio.Client, productID string) (*studio.Product, error) {
	products, err := sc.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == productID {
			return &products[i], nil
		}
	}
	return nil, studio.ErrProductNotFound
}

func (h *ProjectsHandler) tokenClient(c *gin.Context) *studio.Client {
	return h.studioClient.WithToken(c.GetString(middleware.TokenKey))
}

func (h *ProjectsHandler) progressFunc(userID, channel string) workflow.ProgressFunc {
	if h.realtimeClient == nil {
		return nil
	}
	return func(stage workflow.Stage, message string) {
		if err := h.realtimeClient.PublishEvent(userID, channel, "stage_changed",
			supabase.StageChangedPayload(string(stage), message)); err != nil {
			h.log.Warn("failed to publish stage event",
				"channel", channel,
				"stage", string(stage),
				"error", err)
		}
	}
}
