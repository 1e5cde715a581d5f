// Package template implements the facade (§4.I): compose archive → markup
// → parser → executor (+ row cleaner), re-pack the archive, and expose the
// three entry points §6 specifies as the core's programmatic API:
// render, render_batch, validate.
package template

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/errgroup"

	"github.com/tmplforge/doctpl/core/ast"
	"github.com/tmplforge/doctpl/core/exec"
	"github.com/tmplforge/doctpl/core/parser"
	"github.com/tmplforge/doctpl/runtime/archive"
	"github.com/tmplforge/doctpl/runtime/cache"
	"github.com/tmplforge/doctpl/runtime/markup"
	"github.com/tmplforge/doctpl/runtime/rowclean"
	"github.com/tmplforge/doctpl/runtime/validate"
)

// Config carries the options §6 says the core recognizes.
type Config struct {
	// Debug is carried through from the config file; nothing in Open,
	// Render or Validate reads it, so it does not change logging.
	Debug              bool
	MaxMergeIterations int
	StylingEmit        exec.StylingEmit
	Logger             *slog.Logger
	Cache              *cache.Cache
	// Schema, when set, is compiled and checked against each render's data
	// object before execution, producing InputDataInvalid on mismatch —
	// the jsonschema-backed feature named in the domain stack.
	Schema []byte
}

func (c Config) withDefaults() Config {
	if c.MaxMergeIterations <= 0 {
		c.MaxMergeIterations = markup.DefaultConfig.MaxMergeIterations
	}
	if c.StylingEmit == "" {
		c.StylingEmit = exec.StylingFlatten
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Cache == nil {
		c.Cache = cache.New()
	}
	return c
}

// Kind distinguishes the caller-visible error classes of §7 that a
// template-level operation can fail with.
type Kind string

const (
	KindArchive          Kind = "archive"
	KindParse            Kind = "parse"
	KindInputDataInvalid Kind = "input_data_invalid"
)

// Error wraps an underlying archive/parse/validation failure with its
// §7 error-kind classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Template is a compiled document ready to render against any number of
// data objects.
type Template struct {
	cfg    Config
	nodes  []ast.Node
	schema *jsonschema.Schema
}

const maxDataPayloadBytes = 10 * 1024 * 1024

// Open unpacks templateBytes, normalizes and parses its main document
// part, and compiles an optional attached JSON Schema. Archive and parse
// failures abort here and are returned typed per §7.
func Open(templateBytes []byte, cfg Config) (*Template, error) {
	cfg = cfg.withDefaults()

	a, err := archive.Open(templateBytes)
	if err != nil {
		return nil, &Error{Kind: KindArchive, Err: err}
	}

	raw := a.ReadMain()
	normalized := markup.Normalize(raw, markup.Config{MaxMergeIterations: cfg.MaxMergeIterations})

	if markup.DirectiveSpansParagraphBreak(normalized) {
		return nil, &Error{Kind: KindParse, Err: fmt.Errorf("DirectiveSpansBlock: a directive spans a paragraph break and cannot be repaired")}
	}

	key := cache.KeyOf(normalized)
	nodes, hit := cfg.Cache.Get(key)
	if !hit {
		nodes, err = parser.Parse(normalized)
		if err != nil {
			return nil, &Error{Kind: KindParse, Err: err}
		}
		cfg.Cache.Put(key, nodes)
	}

	t := &Template{cfg: cfg, nodes: nodes}

	if len(cfg.Schema) > 0 {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("template.schema.json", bytes.NewReader(cfg.Schema)); err != nil {
			return nil, &Error{Kind: KindInputDataInvalid, Err: fmt.Errorf("invalid schema: %w", err)}
		}
		schema, err := compiler.Compile("template.schema.json")
		if err != nil {
			return nil, &Error{Kind: KindInputDataInvalid, Err: fmt.Errorf("invalid schema: %w", err)}
		}
		t.schema = schema
	}

	return t, nil
}

// Warnings returned with a successful render (§7: unknown formatter,
// non-iterable #each, bad expression) — never abort, always accompany
// output.
type RenderResult struct {
	Output   []byte
	Warnings []exec.Warning
}

// Render executes the compiled template against data (a
// map[string]interface{}/[]interface{}/... tree, typically produced by
// json.Unmarshal) and re-packs the archive. Archive re-pack failures and
// schema violations abort; expression/formatter failures are scoped
// per-node and reported as warnings alongside successful output.
func (t *Template) Render(templateBytes []byte, data interface{}) (RenderResult, error) {
	decoded, err := t.checkData(data)
	if err != nil {
		return RenderResult{}, &Error{Kind: KindInputDataInvalid, Err: err}
	}
	if t.schema != nil {
		if err := t.schema.Validate(decoded); err != nil {
			return RenderResult{}, &Error{Kind: KindInputDataInvalid, Err: err}
		}
	}

	a, err := archive.Open(templateBytes)
	if err != nil {
		return RenderResult{}, &Error{Kind: KindArchive, Err: err}
	}

	val := FromGo(decoded)
	res := exec.Execute(t.nodes, val, exec.Options{Formatters: nil, Logger: t.cfg.Logger, StylingEmit: t.cfg.StylingEmit})
	cleaned := rowclean.Clean(res.Output)
	a.WriteMain(cleaned)

	packed, err := a.Pack()
	if err != nil {
		return RenderResult{}, &Error{Kind: KindArchive, Err: err}
	}

	return RenderResult{Output: packed, Warnings: res.Warnings}, nil
}

// checkData enforces §5's 10 MiB serialized-data cap and §7's
// InputDataInvalid ("non-object or circular or oversize") regardless of
// whether a schema is attached, then returns the round-tripped value for
// an optional schema check.
func (t *Template) checkData(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("data is not serializable (circular reference or unsupported type): %w", err)
	}
	if len(raw) > maxDataPayloadBytes {
		return nil, fmt.Errorf("data payload exceeds %d bytes", maxDataPayloadBytes)
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	if _, ok := decoded.(map[string]interface{}); !ok {
		return nil, fmt.Errorf("data must be a JSON object at the top level")
	}
	return decoded, nil
}

// Validate runs the static inspector (§4.H) against the compiled
// template's normalized source. It never executes a directive.
func (t *Template) Validate(templateBytes []byte) (validate.Report, error) {
	a, err := archive.Open(templateBytes)
	if err != nil {
		return validate.Report{}, &Error{Kind: KindArchive, Err: err}
	}
	normalized := markup.Normalize(a.ReadMain(), markup.Config{MaxMergeIterations: t.cfg.MaxMergeIterations})
	return validate.Validate(normalized), nil
}

// BatchItem is one slot of a batch render, tagged independently of its
// neighbors per §5/§6 ("each item is {index, success, bytes_or_error}").
type BatchItem struct {
	Index   int
	Success bool
	Output  []byte
	Err     error
}

// BatchOptions configures RenderBatch's scheduling per §5/§6.
type BatchOptions struct {
	BatchSize  int
	BatchDelay time.Duration
}

// RenderBatch renders templateBytes against each element of datas,
// preserving input order in the result slice regardless of completion
// order. Within a batch, items render concurrently (bounded by BatchSize)
// via errgroup; a failure in one item never aborts its siblings, matching
// the per-slot success/failure tagging §6 requires.
func (t *Template) RenderBatch(ctx context.Context, templateBytes []byte, datas []interface{}, opts BatchOptions) []BatchItem {
	if opts.BatchSize <= 0 {
		opts.BatchSize = len(datas)
		if opts.BatchSize == 0 {
			opts.BatchSize = 1
		}
	}

	results := make([]BatchItem, len(datas))
	for start := 0; start < len(datas); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(datas) {
			end = len(datas)
		}
		t.renderOneBatch(ctx, templateBytes, datas, start, end, results)
		if opts.BatchDelay > 0 && end < len(datas) {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(opts.BatchDelay):
			}
		}
	}
	return results
}

func (t *Template) renderOneBatch(ctx context.Context, templateBytes []byte, datas []interface{}, start, end int, results []BatchItem) {
	g, gctx := errgroup.WithContext(ctx)
	for i := start; i < end; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = BatchItem{Index: i, Success: false, Err: gctx.Err()}
				return nil
			default:
			}
			res, err := t.Render(templateBytes, datas[i])
			if err != nil {
				results[i] = BatchItem{Index: i, Success: false, Err: err}
				return nil
			}
			results[i] = BatchItem{Index: i, Success: true, Output: res.Output}
			return nil
		})
	}
	_ = g.Wait() // item-level errors are captured in results, never propagated here
}
