package parsing

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// FileName is the registered name of the local document parser.
const FileName = "FileParser"

// FileFormats are the formats the file parser accepts.
var FileFormats = []string{"docx", "pdf", "md", "txt"}

// File converts local documents to Markdown.
type File struct {
	env    pipeline.Env
	parsed atomic.Int64
}

// NewFile implements pipeline.Factory.
func NewFile(env pipeline.Env, params domain.Params) (pipeline.Task, error) {
	var p Params
	if err := params.Decode(&p); err != nil {
		return nil, err
	}
	return &File{env: env}, nil
}

// Name implements pipeline.Task.
func (f *File) Name() string { return FileName }

// Filter implements pipeline.Task.
func (f *File) Filter() domain.Filter {
	formats := make([]domain.Filter, 0, len(FileFormats))
	for _, format := range FileFormats {
		formats = append(formats, domain.MatchKV(domain.MetaFormat, format))
	}
	return domain.And(domain.MatchKV(domain.MetaStep, string(domain.StageFetching)), domain.Any(formats...))
}

// ToMarkdown converts a document of the given format.
func ToMarkdown(format string, data []byte) ([]byte, error) {
	switch format {
	case "md", "txt":
		return data, nil
	case "docx":
		return DocxToMarkdown(data)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "convert"), "format", format)
	}
}

// Run implements pipeline.Task.
func (f *File) Run(ctx context.Context, uri string, entry *domain.CacheEntry, emit pipeline.Emit) error {
	format := fmt.Sprint(entry.Metadata[domain.MetaFormat])
	cache := f.env.Resources.Cache

	existed, _, err := cache.GetOrCreate(ctx, ParsedURI(*entry, FileName), func(context.Context) ([]byte, error) {
		raw, err := cache.Content(*entry)
		if err != nil {
			return nil, err
		}
		return ToMarkdown(format, raw)
	}, f.env.Tag(parsedMeta(uri, FileName)))
	if err != nil {
		return zerr.With(err, "source", uri)
	}

	f.parsed.Add(1)
	if existed {
		emit(domain.Progressf("Cached %s %s", strings.ToUpper(format), uri))
	} else {
		emit(domain.Progressf("Parsing %s %s", strings.ToUpper(format), uri))
	}
	return nil
}

// Completed implements pipeline.Task.
func (f *File) Completed() domain.Event {
	return domain.Completedf("Parsed %d document(s) with FileParser", f.parsed.Load())
}
