package loader

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino-ext/components/document/parser/html"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/gogf/gf/v2/frame/g"
)

// 元数据键
const (
	MetaSource   = "source"
	MetaFilename = "filename"
	MetaFormat   = "format"
	MetaPage     = "page"
	MetaRow      = "row"
	MetaSeqNum   = "seq_num"
)

// Config Dispatcher 配置
type Config struct {
	// JSONField JSON 文档中承载正文的字段，默认 body
	JSONField string
}

// Dispatcher 按扩展名把文件分派给对应的解析器
type Dispatcher struct {
	parsers    map[Format]parser.Parser
	fileLoader document.Loader
}

// NewDispatcher 构建解析器注册表，覆盖全部 Formats
func NewDispatcher(ctx context.Context, cfg *Config) (*Dispatcher, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	jsonField := cfg.JSONField
	if jsonField == "" {
		jsonField = "body"
	}

	pdfParser, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf parser: %w", err)
	}
	htmlParser, err := html.NewParser(ctx, &html.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create html parser: %w", err)
	}
	wordParser := &DocxParser{}

	d := &Dispatcher{
		parsers: map[Format]parser.Parser{
			FormatPDF:  &pageParser{inner: pdfParser},
			FormatDOC:  wordParser,
			FormatDOCX: wordParser,
			FormatHTML: htmlParser,
			FormatCSV:  &CSVParser{},
			FormatJSON: &JSONParser{Field: jsonField},
			FormatTXT:  &parser.TextParser{},
		},
	}
	for _, f := range Formats {
		if _, ok := d.parsers[f]; !ok {
			return nil, fmt.Errorf("no parser registered for format %s", f)
		}
	}

	d.fileLoader, err = file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: false,
		Parser:      d,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file loader: %w", err)
	}
	return d, nil
}

// Load 读取并解析本地文件
func (d *Dispatcher) Load(ctx context.Context, path string) ([]*schema.Document, error) {
	if _, err := FormatFromPath(path); err != nil {
		return nil, err
	}

	docs, err := d.fileLoader.Load(ctx, document.Source{URI: path})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Wrapf(apperrors.ErrFileReadFailed, err, "failed to read %s", filepath.Base(path))
	}
	return docs, nil
}

// Parse 实现 parser.Parser，根据 URI 扩展名选择解析器
func (d *Dispatcher) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	options := parser.GetCommonOptions(&parser.Options{}, opts...)

	format, err := FormatFromPath(options.URI)
	if err != nil {
		return nil, err
	}
	p, ok := d.parsers[format]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnsupportedFormat, "unsupported file type: .%s", format)
	}

	docs, err := p.Parse(ctx, reader, opts...)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrDocumentParseFailed, err, "failed to parse %s", filepath.Base(options.URI))
	}

	records := make([]*schema.Document, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			continue
		}
		if doc.MetaData == nil {
			doc.MetaData = make(map[string]any)
		}
		for k, v := range options.ExtraMeta {
			if _, exists := doc.MetaData[k]; !exists {
				doc.MetaData[k] = v
			}
		}
		doc.MetaData[MetaSource] = options.URI
		doc.MetaData[MetaFormat] = string(format)
		records = append(records, doc)
	}

	if len(records) == 0 {
		return nil, apperrors.Newf(apperrors.ErrDocumentParseFailed, "no text could be extracted from %s", filepath.Base(options.URI))
	}

	g.Log().Debugf(ctx, "parsed %s as %s into %d records", options.URI, format, len(records))
	return records, nil
}

// pageParser 给按页拆分的 PDF 结果补充页码
type pageParser struct {
	inner parser.Parser
}

func (p *pageParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	docs, err := p.inner.Parse(ctx, reader, opts...)
	if err != nil {
		return nil, err
	}
	for i, doc := range docs {
		if doc.MetaData == nil {
			doc.MetaData = make(map[string]any)
		}
		doc.MetaData[MetaPage] = i + 1
	}
	return docs, nil
}
