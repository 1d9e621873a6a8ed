// Package studio wraps the remote studio backend that owns all durable
// state and heavy computation: product storage, background removal, prompt
// generation, design rendering, and image editing. Each method maps to
// exactly one endpoint; failures surface as wrapped errors with no retry.
package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Product is the studio backend's product entity. The background-removed
// URL is empty until RemoveBackground has completed for the product.
type Product struct {
	ID                       string `json:"id"`
	ProductType              string `json:"product_type"`
	ProductImageURL          string `json:"product_image_url"`
	ProductImageBgRemovedURL string `json:"product_image_bg_removed_url"`
	ProductExtractedInfo     string `json:"product_extracted_info,omitempty"`
}

// Design is one generation lineage inside a project: the first entry is the
// originally generated image, later entries are successive edits.
type Design struct {
	ID               string   `json:"id"`
	VersionImageURLs []string `json:"version_image_urls"`
}

type Project struct {
	ID         string   `json:"id"`
	ProductID  string   `json:"product_id"`
	Designs    []Design `json:"designs"`
	PromptURLs []string `json:"prompt_urls"`
}

type removeBackgroundRequest struct {
	ProductID string `json:"product_id"`
}

type createProjectRequest struct {
	ProductID string `json:"product_id"`
}

type generatePromptsRequest struct {
	ProjectID       string `json:"project_id"`
	ProductImageURL string `json:"product_image_url"`
	ProductType     string `json:"product_type"`
}

type generatePromptsResponse struct {
	Prompts []string `json:"prompts"`
}

type generateDesignRequest struct {
	ProjectID   string `json:"project_id"`
	ImagePrompt string `json:"image_prompt"`
}

type editImageRequest struct {
	DesignID     string `json:"design_id"`
	EditPrompt   string `json:"edit_prompt"`
	BaseImageURL string `json:"base_image_url"`
}

type imageURLResponse struct {
	ImageURL string `json:"image_url"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithToken returns a copy of the client that sends the given bearer token
// with every request. The zero-value token sends no Authorization header.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

func (c *Client) setHeaders(req *http.Request, contentType string) {
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// CreateProduct uploads a product image with its category label and returns
// the created product entity.
func (c *Client) CreateProduct(ctx context.Context, productType, filename string, image io.Reader) (*Product, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to copy image data: %w", err)
	}
	if err := writer.WriteField("product_type", productType); err != nil {
		return nil, fmt.Errorf("failed to write product_type field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := c.baseURL + "/api/products/create"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to create product: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result Product
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}
	if result.ID == "" {
		return nil, fmt.Errorf("product id is empty in response, body: %s", string(body))
	}

	return &result, nil
}

// RemoveBackground asks the backend to strip the background from the
// product's original image and returns the updated product.
func (c *Client) RemoveBackground(ctx context.Context, productID string) (*Product, error) {
	var result Product
	if err := c.postJSON(ctx, "/api/products/remove-background", removeBackgroundRequest{ProductID: productID}, &result); err != nil {
		return nil, fmt.Errorf("failed to remove background: %w", err)
	}
	if result.ID == "" {
		return nil, fmt.Errorf("failed to remove background: product id is empty in response")
	}
	return &result, nil
}

// ListProducts returns every product belonging to the authenticated user,
// newest first.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var result []Product
	if err := c.getJSON(ctx, "/api/products/get-all-products", &result); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return result, nil
}

// CreateProject opens a generation run for the product.
func (c *Client) CreateProject(ctx context.Context, productID string) (*Project, error) {
	var result Project
	if err := c.postJSON(ctx, "/api/projects/create", createProjectRequest{ProductID: productID}, &result); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	if result.ID == "" {
		return nil, fmt.Errorf("failed to create project: project id is empty in response")
	}
	return &result, nil
}

// GeneratePrompts returns the ordered prompt list for a project. An empty
// list is a valid result.
func (c *Client) GeneratePrompts(ctx context.Context, projectID, productImageURL, productType string) ([]string, error) {
	var result generatePromptsResponse
	req := generatePromptsRequest{
		ProjectID:       projectID,
		ProductImageURL: productImageURL,
		ProductType:     productType,
	}
	if err := c.postJSON(ctx, "/api/projects/generate-prompts", req, &result); err != nil {
		return nil, fmt.Errorf("failed to generate prompts: %w", err)
	}
	return result.Prompts, nil
}

// GenerateDesign renders one design image for the prompt and returns its URL.
func (c *Client) GenerateDesign(ctx context.Context, projectID, imagePrompt string) (string, error) {
	var result imageURLResponse
	req := generateDesignRequest{ProjectID: projectID, ImagePrompt: imagePrompt}
	if err := c.postJSON(ctx, "/api/projects/generate-design", req, &result); err != nil {
		return "", fmt.Errorf("failed to generate design: %w", err)
	}
	if result.ImageURL == "" {
		return "", fmt.Errorf("failed to generate design: image_url is empty in response")
	}
	return result.ImageURL, nil
}

// EditImage applies a free-text edit instruction to the base image and
// returns the edited image URL.
func (c *Client) EditImage(ctx context.Context, designID, editPrompt, baseImageURL string) (string, error) {
	var result imageURLResponse
	req := editImageRequest{
		DesignID:     designID,
		EditPrompt:   editPrompt,
		BaseImageURL: baseImageURL,
	}
	if err := c.postJSON(ctx, "/api/designs/edit-image", req, &result); err != nil {
		return "", fmt.Errorf("failed to edit image: %w", err)
	}
	if result.ImageURL == "" {
		return "", fmt.Errorf("failed to edit image: image_url is empty in response")
	}
	return result.ImageURL, nil
}

// ListProjects returns every project belonging to the authenticated user.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var result []Project
	if err := c.getJSON(ctx, "/api/projects/get-all-projects", &result); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return result, nil
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, out interface{}) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, "")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	return nil
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
func (c *Client) RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
