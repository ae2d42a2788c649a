// Package validator orchestrates the per-file validation pipeline:
// parse, shape-validate, existence-check, remote dry-run. Files are processed
// concurrently; every failure is collected into a deterministic report.
package validator

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/port-tools/portcheck/internal/discover"
	"github.com/port-tools/portcheck/internal/document"
)

// EntityAPI is the read-only slice of the Port client needed for validation.
type EntityAPI interface {
	// BlueprintSchema returns the property names the blueprint's schema requires.
	BlueprintSchema(ctx context.Context, blueprint string) ([]string, error)

	// EntityExists reports whether the blueprint/identifier pair is registered.
	EntityExists(ctx context.Context, blueprint, identifier string) (bool, error)

	// ValidateEntity submits a document payload for dry-run validation.
	ValidateEntity(ctx context.Context, payload map[string]any) error
}

// Result is the outcome for one file (or one undiscoverable path).
// No result is ever dropped from the report.
type Result struct {
	Path   string
	Errors []string
}

// Passed reports whether the file cleared every validation stage.
func (r Result) Passed() bool {
	return len(r.Errors) == 0
}

// Report aggregates every per-file outcome of a run, ordered by path.
type Report struct {
	Results []Result
}

// Failed counts the files with at least one recorded error.
func (r Report) Failed() int {
	count := 0
	for _, res := range r.Results {
		if !res.Passed() {
			count++
		}
	}
	return count
}

// Total counts every file (and undiscoverable path) in the report.
func (r Report) Total() int {
	return len(r.Results)
}

// Passed reports whether the entire run was clean. An empty report passes:
// zero discovered files is not a failure.
func (r Report) Passed() bool {
	return r.Failed() == 0
}

// Validator runs the validation pipeline over a set of paths.
type Validator struct {
	api        EntityAPI
	discoverer *discover.Discoverer
	logger     hclog.Logger
}

// New creates a Validator backed by the given API client and discoverer.
func New(logger hclog.Logger, api EntityAPI, discoverer *discover.Discoverer) *Validator {
	return &Validator{
		api:        api,
		discoverer: discoverer,
		logger:     logger.Named("validator"),
	}
}

// Run discovers files for the given paths and validates each one.
func (v *Validator) Run(ctx context.Context, paths []string) (Report, error) {
	files, issues := v.discoverer.Files(paths)

	v.logger.Debug("Discovered files", "count", len(files), "issues", len(issues))

	return v.Validate(ctx, files, issues)
}

// Validate runs the pipeline over an already-discovered file set.
// Files are validated concurrently (the run is I/O-bound on remote lookups)
// and all outcomes are awaited before the report is assembled. The report is
// ordered by file path, not completion order, so output is stable across runs.
func (v *Validator) Validate(ctx context.Context, files []string, issues []discover.Issue) (Report, error) {
	results := make([]Result, len(files), len(files)+len(issues))

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			results[i] = v.validateFile(gctx, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	for _, issue := range issues {
		results = append(results, Result{
			Path:   issue.Path,
			Errors: []string{issue.Err.Error()},
		})
	}

	slices.SortFunc(results, func(a, b Result) int {
		return strings.Compare(a.Path, b.Path)
	})

	return Report{Results: results}, nil
}

// validateFile moves one file through the pipeline. A document fails at the
// first stage that rejects it and skips the remaining stages; other documents
// in the same file, and other files, are unaffected.
func (v *Validator) validateFile(ctx context.Context, path string) Result {
	result := Result{Path: path}

	docs, parseErrs := document.ParseFile(path)
	for _, err := range parseErrs {
		result.Errors = append(result.Errors, err.Error())
	}

	for _, doc := range docs {
		if err := v.checkDocument(ctx, doc); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	if result.Passed() {
		v.logger.Debug("File passed validation", "path", path, "documents", len(docs))
	}

	return result
}

// checkDocument runs the remote stages for one shape-valid document:
// the blueprint required-properties check, the existence probe, then the
// dry-run validation. A stage that rejects the document skips the rest;
// only updates to registered entities are meaningful.
func (v *Validator) checkDocument(ctx context.Context, doc document.Document) error {
	identifier := doc.Entity.Identifier
	blueprint := doc.Entity.Blueprint

	required, err := v.api.BlueprintSchema(ctx, blueprint)
	if err != nil {
		return fmt.Errorf("document %d: %w", doc.Index(), err)
	}
	if missing := missingProperties(required, doc.Properties); len(missing) > 0 {
		return fmt.Errorf(
			"document %d: blueprint '%s' requires properties missing from the document: %s",
			doc.Index(), blueprint, strings.Join(missing, ", "),
		)
	}

	exists, err := v.api.EntityExists(ctx, blueprint, identifier)
	if err != nil {
		return fmt.Errorf("document %d: %w", doc.Index(), err)
	}
	if !exists {
		return fmt.Errorf(
			"document %d: entity '%s' of blueprint '%s' does not exist; updates only, creation is disallowed",
			doc.Index(), identifier, blueprint,
		)
	}

	if err := v.api.ValidateEntity(ctx, doc.Raw()); err != nil {
		return fmt.Errorf("document %d (entity '%s'): %w", doc.Index(), identifier, err)
	}

	return nil
}

// missingProperties returns the blueprint-required property names absent from
// the document's properties mapping, in the order the schema declares them.
func missingProperties(required []string, properties map[string]any) []string {
	var missing []string
	for _, name := range required {
		if _, ok := properties[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
