// Package pipeline sequences the build stages (aggregate, transform,
// assemble, normalize, write) and validation runs.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dgallion1/thesisfmt/internal/assemble"
	"github.com/dgallion1/thesisfmt/internal/chapters"
	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/docxio"
	"github.com/dgallion1/thesisfmt/internal/markup"
	"github.com/dgallion1/thesisfmt/internal/normalize"
	"github.com/dgallion1/thesisfmt/internal/profile"
	"github.com/dgallion1/thesisfmt/internal/style"
	"github.com/dgallion1/thesisfmt/internal/validate"
)

// Builder runs builds and validations for one profile. The registry is built
// once and shared read-only by every stage.
type Builder struct {
	profile     profile.Profile
	registry    *style.Registry
	transformer *markup.Transformer
	assembler   *assemble.Assembler
	normalizer  *normalize.Normalizer
	writer      *docxio.Writer
	validator   *validate.Validator
	log         *slog.Logger
}

func NewBuilder(p profile.Profile, log *slog.Logger) (*Builder, error) {
	reg, err := p.Registry()
	if err != nil {
		return nil, fmt.Errorf("style registry: %w", err)
	}
	v, err := validate.New(p, reg)
	if err != nil {
		return nil, err
	}
	return &Builder{
		profile:     p,
		registry:    reg,
		transformer: markup.New(p),
		assembler:   assemble.New(p, reg),
		normalizer:  normalize.New(reg, p.ListIndent),
		writer:      docxio.NewWriter(p, reg),
		validator:   v,
		log:         log,
	}, nil
}

func (b *Builder) Profile() profile.Profile   { return b.profile }
func (b *Builder) Registry() *style.Registry { return b.registry }

// Build assembles the chapter tree in src into a docx at out. source names
// the tree in logs and the run. Chapters without content are skipped with a
// note; every other failure aborts the run.
func (b *Builder) Build(ctx context.Context, src fs.FS, source, out string) (*Run, error) {
	run := NewRun(KindBuild, source)
	log := b.log.With("run_id", run.ID, "kind", run.Kind)
	fail := func(phase string, err error) (*Run, error) {
		log.Error("build failed", "phase", phase, "error", err)
		run.SetStatus(StatusFailed, phase)
		return run, err
	}

	// Phase 1: find chapters
	run.SetStatus(StatusAggregating, "aggregating")
	descs, notes, err := chapters.Aggregate(src, b.profile)
	if err != nil {
		return fail("aggregating", err)
	}
	for _, n := range notes {
		log.Warn("chapter skipped", "error", n)
		run.AddNote(n.Error())
	}
	if len(descs) == 0 {
		log.Warn("no chapters found", "source", source)
		run.AddNote("no chapters found in " + source)
	}
	run.SetChapters(len(descs))
	log.Info("chapters found", "chapters", len(descs), "skipped", len(notes))

	// Phase 2: transform each chapter
	run.SetStatus(StatusTransforming, "transforming")
	chs := make([]assemble.Chapter, 0, len(descs))
	for _, d := range descs {
		if err := ctx.Err(); err != nil {
			return fail("transforming", err)
		}
		nodes, err := b.chapterNodes(src, d)
		if err != nil {
			return fail("transforming", err)
		}
		chs = append(chs, assemble.Chapter{Descriptor: d, Nodes: nodes})
		run.IncrChaptersDone()
		log.Debug("chapter transformed", "chapter", d.Dir, "sources", len(d.Sources), "nodes", len(nodes))
	}

	// Phase 3: assemble
	run.SetStatus(StatusAssembling, "assembling")
	doc, err := b.assembler.Assemble(chs)
	if err != nil {
		return fail("assembling", err)
	}
	run.SetNodes(len(doc.Nodes))

	// Phase 4: normalize
	run.SetStatus(StatusNormalizing, "normalizing")
	if err := b.normalizer.Document(doc); err != nil {
		return fail("normalizing", err)
	}

	// Phase 5: persist
	if err := ctx.Err(); err != nil {
		return fail("writing", err)
	}
	run.SetStatus(StatusWriting, "writing")
	if err := b.writer.WriteFile(out, doc); err != nil {
		return fail("writing", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return fail("writing", fmt.Errorf("%w: %w", docxio.ErrIOFailure, err))
	}
	run.setOutput(out, ContentHashHex(data))

	run.SetStatus(StatusCompleted, "done")
	log.Info("build complete", "output", out, "chapters", len(chs), "nodes", len(doc.Nodes), "bytes", len(data))
	return run, nil
}

// chapterNodes transforms every source of a chapter in order.
func (b *Builder) chapterNodes(src fs.FS, d chapters.Descriptor) ([]doctree.Node, error) {
	var nodes []doctree.Node
	for _, path := range d.Sources {
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return nil, fmt.Errorf("%w: chapter %s: %w", docxio.ErrUnreadableSource, d.Dir, err)
		}
		nodes = append(nodes, b.transformer.Transform(string(data))...)
	}
	return nodes, nil
}

// Preview transforms one markup text and normalizes the nodes, without
// assembling a document.
func (b *Builder) Preview(text string) ([]doctree.Node, error) {
	doc := &doctree.Document{Margins: b.profile.Margins, Nodes: b.transformer.Transform(text)}
	if err := b.normalizer.Document(doc); err != nil {
		return nil, err
	}
	return doc.Nodes, nil
}

// Validate checks the docx at path. Findings never fail the run; only an
// unreadable document does.
func (b *Builder) Validate(ctx context.Context, path string, opts validate.Options) (*Run, error) {
	source := opts.Source
	if source == "" {
		source = path
	}
	run := NewRun(KindValidate, source)
	log := b.log.With("run_id", run.ID, "kind", run.Kind)

	if err := ctx.Err(); err != nil {
		run.SetStatus(StatusFailed, "validating")
		return run, err
	}
	run.SetStatus(StatusValidating, "validating")
	rep, err := b.validator.ValidateFile(path, opts)
	if err != nil {
		log.Error("validation failed", "source", source, "error", err)
		run.SetStatus(StatusFailed, "validating")
		return run, err
	}
	run.setReport(rep)
	run.SetStatus(StatusCompleted, "done")
	log.Info("validation complete",
		"source", source,
		"structural", len(rep.Structural),
		"technical", len(rep.Technical),
		"stylistic", len(rep.Stylistic),
		"compliant", rep.Compliant(),
	)
	return run, nil
}
