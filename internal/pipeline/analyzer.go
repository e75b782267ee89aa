package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dgallion1/examscope/internal/classify"
	"github.com/dgallion1/examscope/internal/document"
	"github.com/dgallion1/examscope/internal/ocr"
	"github.com/dgallion1/examscope/internal/parser"
	"github.com/dgallion1/examscope/internal/provider"
	"github.com/dgallion1/examscope/internal/report"
	"github.com/dgallion1/examscope/internal/segment"
)

var tracer = otel.Tracer("examscope/pipeline")

// Refresher re-reads provider credentials.
type Refresher interface {
	Refresh() provider.Status
}

// AnalyzerConfig holds the per-document settings.
type AnalyzerConfig struct {
	Parser      parser.Options
	SampleCount int
}

// Options are per-request switches.
type Options struct {
	UseAI bool
}

// Analyzer runs one document through extraction, OCR, segmentation and
// classification.
type Analyzer struct {
	cfg       AnalyzerConfig
	ocr       *ocr.Fallback
	segmenter *segment.Segmenter
	providers Refresher
	cascade   *classify.Cascade
	log       *slog.Logger
}

func NewAnalyzer(cfg AnalyzerConfig, fallback *ocr.Fallback, providers Refresher, cascade *classify.Cascade, log *slog.Logger) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		ocr:       fallback,
		segmenter: segment.New(),
		providers: providers,
		cascade:   cascade,
		log:       log,
	}
}

// OCRAvailable reports whether scanned pages can be OCR'd.
func (a *Analyzer) OCRAvailable() bool {
	return a.ocr.Available()
}

// OCREngine names the OCR engine in use, or "none".
func (a *Analyzer) OCREngine() string {
	return a.ocr.EngineName()
}

// Analyze produces a report for one upload. Only unsupported or unreadable
// documents fail; classification problems degrade into warnings.
func (a *Analyzer) Analyze(ctx context.Context, filename string, data []byte, opts Options) (*report.Report, error) {
	ctx, span := tracer.Start(ctx, "analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("file.name", filename),
		attribute.Int("file.size", len(data)),
		attribute.Bool("use_ai", opts.UseAI),
	)

	start := time.Now()
	log := a.log.With("filename", filename)

	p, err := parser.ForFile(filename, a.cfg.Parser)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var warnings []string
	ocrAvailable := a.ocr.Available()
	if doc.Format == "pdf" {
		res := a.ocr.Apply(ctx, doc, data)
		ocrAvailable = res.OCRAvailable
		if res.Failed > 0 {
			warnings = append(warnings, fmt.Sprintf("OCR failed on %d of %d scanned pages", res.Failed, res.Attempted))
		}
		if !res.OCRAvailable && len(doc.InsufficientPages()) > 0 {
			warnings = append(warnings, fmt.Sprintf("%d pages have little or no text and OCR is unavailable", len(doc.InsufficientPages())))
		}
	}

	var questions []document.Question
	if doc.HasText() {
		questions = a.segmenter.Collect(doc.MergedText())
	} else {
		warnings = append(warnings, "no text could be extracted from the document")
	}

	var run classify.Run
	if len(questions) > 0 {
		if opts.UseAI {
			a.providers.Refresh()
		}
		run = a.cascade.Classify(ctx, questions, opts.UseAI)
	}

	rep := report.Aggregate(questions, run.Results, report.Options{SampleCount: a.cfg.SampleCount})
	rep.Filename = filename
	rep.Pages = doc.PageCount()
	rep.OCRPages = doc.OCRPages()
	rep.OCRAvailable = ocrAvailable
	rep.Warnings = append(append(rep.Warnings, warnings...), run.Warnings...)

	span.SetAttributes(
		attribute.Int("questions", rep.TotalQuestions),
		attribute.String("analysis_method", string(rep.Method)),
	)
	log.Info("analysis complete",
		"report_id", rep.ID,
		"pages", rep.Pages,
		"ocr_pages", rep.OCRPages,
		"questions", rep.TotalQuestions,
		"unclassified", rep.UnclassifiedCount,
		"method", rep.Method,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rep, nil
}
