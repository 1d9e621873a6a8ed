// Package workflow drives the multi-stage generation sequence: create a
// product, remove its background, open a project, generate prompts, and fan
// out one design render per prompt. Stages run strictly in order; any
// failure terminates the run with no retry and no rollback of remote side
// effects already committed.
package workflow

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"ai-photoshoot-gateway/internal/logger"
	"ai-photoshoot-gateway/internal/studio"
)

// Stage is one discrete step of the generation workflow with its own
// success/failure boundary.
type Stage string

const (
	StageCreating           Stage = "creating"
	StageRemovingBackground Stage = "removing-bg"
	StageCreatingProject    Stage = "creating-project"
	StageGeneratingPrompts  Stage = "generating-prompts"
	StageGeneratingDesigns  Stage = "generating-designs"
	StageComplete           Stage = "complete"
	StageFailed             Stage = "failed"
	StageCancelled          Stage = "cancelled"
)

// ProgressFunc receives every stage transition together with a
// human-readable progress message.
type ProgressFunc func(stage Stage, message string)

type Runner struct {
	studio   *studio.Client
	log      *logger.Logger
	progress ProgressFunc
}

func NewRunner(studioClient *studio.Client, log *logger.Logger, progress ProgressFunc) *Runner {
	return &Runner{
		studio:   studioClient,
		log:      log,
		progress: progress,
	}
}

type CreateProductInput struct {
	ProductType string
	Filename    string
	Image       io.Reader
}

// GenerateResult is the handoff payload for the chat loop: the project id
// and the generated image URLs in prompt order, plus the URL-encoded form
// of the image list for use as a navigation parameter.
type GenerateResult struct {
	ProjectID   string
	ImageURLs   []string
	ImagesParam string
}

func (r *Runner) report(stage Stage, message string) {
	if r.progress != nil {
		r.progress(stage, message)
	}
}

// fail maps an error to the failed or cancelled terminal stage, reports it,
// and logs the cause. The HTTP layer surfaces only a generic failure; the
// log carries the detail.
func (r *Runner) fail(ctx context.Context, stage Stage, err error) error {
	if ctx.Err() != nil {
		r.log.Warn("workflow cancelled", "stage", string(stage))
		r.report(StageCancelled, "Generation was cancelled.")
		return fmt.Errorf("workflow cancelled during %s: %w", stage, ctx.Err())
	}
	r.log.Error("workflow stage failed", "stage", string(stage), "error", err)
	r.report(StageFailed, "Something went wrong. Please try again.")
	return fmt.Errorf("stage %s failed: %w", stage, err)
}

// CreateProduct runs the first two stages: upload the product, then remove
// its background. The returned product carries the background-removed image
// URL and is ready to be shown newest-first; on failure nothing is surfaced.
func (r *Runner) CreateProduct(ctx context.Context, in CreateProductInput) (*studio.Product, error) {
	r.report(StageCreating, "Creating your product...")
	created, err := r.studio.CreateProduct(ctx, in.ProductType, in.Filename, in.Image)
	if err != nil {
		return nil, r.fail(ctx, StageCreating, err)
	}

	r.report(StageRemovingBackground, "Removing the background...")
	finished, err := r.studio.RemoveBackground(ctx, created.ID)
	if err != nil {
		return nil, r.fail(ctx, StageRemovingBackground, err)
	}

	r.log.Info("product created",
		"product_id", finished.ID,
		"product_type", finished.ProductType)
	return finished, nil
}

// Generate runs the remaining stages for an existing background-removed
// product: create a project, generate prompts, render every design
// concurrently, and assemble the chat handoff.
//
// The design fan-out is all-or-nothing: all prompt renders are issued at
// once, the stage waits for every one, and a single failure fails the whole
// stage with no partial image list. Results are ordered by prompt position
// regardless of completion order.
func (r *Runner) Generate(ctx context.Context, product *studio.Product) (*GenerateResult, error) {
	r.report(StageCreatingProject, "Setting up your project...")
	project, err := r.studio.CreateProject(ctx, product.ID)
	if err != nil {
		return nil, r.fail(ctx, StageCreatingProject, err)
	}

	r.report(StageGeneratingPrompts, "Generating creative prompts...")
	prompts, err := r.studio.GeneratePrompts(ctx, project.ID, product.ProductImageBgRemovedURL, product.ProductType)
	if err != nil {
		return nil, r.fail(ctx, StageGeneratingPrompts, err)
	}

	r.report(StageGeneratingDesigns, fmt.Sprintf("Generating %d design concepts...", len(prompts)))
	imageURLs := make([]string, len(prompts))
	g, gctx := errgroup.WithContext(ctx)
	for i, prompt := range prompts {
		i, prompt := i, prompt
		g.Go(func() error {
			url, err := r.studio.GenerateDesign(gctx, project.ID, prompt)
			if err != nil {
				return fmt.Errorf("design for prompt %d: %w", i, err)
			}
			imageURLs[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, r.fail(ctx, StageGeneratingDesigns, err)
	}

	r.report(StageComplete, "Done! Opening the editor...")
	r.log.Info("generation run complete",
		"project_id", project.ID,
		"designs", len(imageURLs))

	return &GenerateResult{
		ProjectID:   project.ID,
		ImageURLs:   imageURLs,
		ImagesParam: EncodeImagesParam(imageURLs),
	}, nil
}
