package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ai-photoshoot-gateway/internal/logger"
	"ai-photoshoot-gateway/internal/middleware"
	"ai-photoshoot-gateway/internal/models"
	"ai-photoshoot-gateway/internal/studio"
	"ai-photoshoot-gateway/internal/supabase"
	"ai-photoshoot-gateway/internal/workflow"
)

type ProductsHandler struct {
	studioClient   *studio.Client
	realtimeClient *supabase.RealtimeClient
	httpClient     *http.Client
	log            *logger.Logger
}

func NewProductsHandler(studioClient *studio.Client, realtimeClient *supabase.RealtimeClient, log *logger.Logger) *ProductsHandler {
	return &ProductsHandler{
		studioClient:   studioClient,
		realtimeClient: realtimeClient,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// ListProducts proxies the studio backend's product list, newest first.
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	sc := h.tokenClient(c)

	var products []studio.Product
	err := sc.RetryWithBackoff(func() error {
		var err error
		products, err = sc.ListProducts(c.Request.Context())
		return err
	}, 3)
	if err != nil {
		h.log.Error("failed to list products", "error", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "backend connection error",
			Message: "We're having trouble connecting to our servers. Please try again.",
		})
		return
	}

	if products == nil {
		products = []studio.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// CreateProduct accepts a multipart form with a product_type label and an
// image (either an uploaded file or an image_url to fetch), then runs the
// create + background-removal stages. On any stage failure nothing is
// returned for display; the partially created product stays hidden.
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	productType := strings.TrimSpace(c.PostForm("product_type"))
	if productType == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "product_type is required",
		})
		return
	}

	filename, image, cleanup, err := h.imageSource(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no product image provided",
			Message: err.Error(),
		})
		return
	}
	defer cleanup()

	runner := workflow.NewRunner(h.tokenClient(c), h.log, h.progressFunc(userID, "user:"+userID))
	product, err := runner.CreateProduct(c.Request.Context(), workflow.CreateProductInput{
		ProductType: productType,
		Filename:    filename,
		Image:       image,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: "failed to create product",
		})
		return
	}

	if h.realtimeClient != nil {
		if err := h.realtimeClient.PublishProductEvent(userID, product.ID, "product_ready",
			supabase.ProductReadyPayload(product.ID, product.ProductImageBgRemovedURL)); err != nil {
			h.log.Warn("failed to publish product event",
				"product_id", product.ID,
				"error", err)
		}
	}

	c.JSON(http.StatusOK, product)
}

// imageSource resolves the product image from the multipart form: an
// uploaded file wins, otherwise image_url is fetched. The returned cleanup
// releases the underlying file handle.
func (h *ProductsHandler) imageSource(c *gin.Context) (string, io.Reader, func(), error) {
	var fileHeader *multipart.FileHeader
	for _, field := range []string{"file", "image"} {
		if fh, err := c.FormFile(field); err == nil {
			fileHeader = fh
			break
		}
	}

	if fileHeader != nil {
		src, err := fileHeader.Open()
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		return fileHeader.Filename, src, func() { src.Close() }, nil
	}

	imageURL := strings.TrimSpace(c.PostForm("image_url"))
	if imageURL == "" {
		return "", nil, nil, fmt.Errorf("provide a file upload or an image_url")
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), "GET", imageURL, nil)
	if err != nil {
		return "", nil, nil, fmt.Errorf("invalid image_url: %w", err)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to fetch image_url: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return "", nil, nil, fmt.Errorf("failed to fetch image_url: status %d", resp.StatusCode)
	}

	filename := path.Base(req.URL.Path)
	if filename == "." || filename == "/" || filename == "" {
		filename = "product-image"
	}
	return filename, resp.Body, func() { resp.Body.Close() }, nil
}

func (h *ProductsHandler) tokenClient(c *gin.Context) *studio.Client {
	return h.studioClient.WithToken(c.GetString(middleware.TokenKey))
}

// progressFunc publishes stage transitions as realtime events. Publishing
// is best-effort; a publish failure never affects the workflow.
func (h *ProductsHandler) progressFunc(userID, channel string) workflow.ProgressFunc {
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
