package compiler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rulesets-dev/rulesets/internal/config"
	"github.com/rulesets-dev/rulesets/internal/destination"
	"github.com/rulesets-dev/rulesets/internal/parser"
	"github.com/rulesets-dev/rulesets/internal/render"
	"github.com/rulesets-dev/rulesets/internal/state"
	"github.com/rulesets-dev/rulesets/internal/transform"
	"github.com/rulesets-dev/rulesets/pkg/core"
)

func (c *Compiler) compileDocument(ctx context.Context, path, runID string) *DocumentResult {
	id := c.DocumentID(path)
	result := &DocumentResult{Path: path, ID: id}
	logger := c.logger.With("document", id)

	doc, err := parser.ParseFile(path, id, core.FormatRule)
	if err != nil {
		result.Err = err
		c.forget(path)
		logger.Error("failed to parse", "error", err)
		return result
	}

	transformed, err := transform.Run(doc, c.transforms...)
	if err != nil {
		result.Err = err
		logger.Error("transform failed", "error", err)
		return result
	}
	doc = transformed.Document
	result.Document = doc
	result.Diagnostics = transformed.Diagnostics
	c.remember(doc)

	for _, d := range result.Diagnostics {
		logger.Warn(d.Message, "line", d.Pos.Line, "column", d.Pos.Column)
	}

	directives, err := destination.PrepareAll(ctx, destination.PrepareContext{
		Parsed:        doc,
		ProjectConfig: c.project,
		Logger:        logger,
	}, c.providers)
	if err != nil {
		result.Err = err
		logger.Error("failed to prepare destinations", "error", err)
		return result
	}

	reg := c.Registry()
	outputDir := config.OutputDir(c.root, c.project)
	for _, p := range c.providers {
		body, err := render.Render(doc, directives[p.Name()], reg)
		if err != nil {
			result.Err = fmt.Errorf("destination %s: %w", p.Name(), err)
			logger.Error("render failed", "destination", p.Name(), "error", err)
			return result
		}

		content, err := artifactContent(p, doc, body)
		if err != nil {
			result.Err = fmt.Errorf("destination %s: %w", p.Name(), err)
			return result
		}

		artifact, err := c.writeArtifact(ctx, doc, p.Name(), filepath.Join(outputDir, filepath.FromSlash(p.OutputPath(doc))), content, runID)
		if err != nil {
			result.Err = err
			logger.Error("failed to write artifact", "destination", p.Name(), "error", err)
			return result
		}
		result.Artifacts = append(result.Artifacts, artifact)
	}

	logger.Debug("compiled document", "artifacts", len(result.Artifacts), "dependencies", len(doc.Dependencies))
	return result
}

// artifactContent prefixes body with the destination's own front matter, if any.
func artifactContent(p destination.Provider, doc *core.RulesetDocument, body string) ([]byte, error) {
	hp, ok := p.(destination.HeaderProvider)
	if !ok {
		return []byte(body), nil
	}
	header := hp.ArtifactFrontMatter(doc)
	if len(header) == 0 {
		return []byte(body), nil
	}

	out, err := yaml.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to encode artifact front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(out)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

func (c *Compiler) writeArtifact(ctx context.Context, doc *core.RulesetDocument, dest, path string, content []byte, runID string) (ArtifactResult, error) {
	sum := sha256.Sum256(content)
	artifact := ArtifactResult{
		Destination: dest,
		Path:        path,
		Hash:        hex.EncodeToString(sum[:]),
	}

	if c.dryRun {
		return artifact, nil
	}

	if c.unchanged(ctx, doc.Name(), dest, path, artifact.Hash) {
		return artifact, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return artifact, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return artifact, fmt.Errorf("failed to write %s: %w", path, err)
	}
	artifact.Written = true

	if c.store != nil && runID != "" {
		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			rel = path
		}
		err = c.store.RecordArtifact(ctx, state.Artifact{
			DocumentID:  doc.Name(),
			Destination: dest,
			OutputPath:  filepath.ToSlash(rel),
			ContentHash: artifact.Hash,
			RunID:       runID,
		})
		if err != nil {
			return artifact, err
		}
	}
	return artifact, nil
}

// unchanged reports whether the cache already holds hash for this artifact
// and the file is still on disk.
func (c *Compiler) unchanged(ctx context.Context, docID, dest, path, hash string) bool {
	if c.store == nil || c.force {
		return false
	}
	cached, err := c.store.GetArtifactHash(ctx, docID, dest)
	if err != nil {
		c.logger.Warn("failed to read compile cache", "document", docID, "destination", dest, "error", err)
		return false
	}
	if cached != hash {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
