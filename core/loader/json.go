package loader

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// JSONParser 只抽取每条记录中的指定字段作为正文，其余字段丢弃
type JSONParser struct {
	Field string
}

func (p *JSONParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	options := parser.GetCommonOptions(&parser.Options{}, opts...)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	var root any
	if err := sonic.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	var items []any
	switch v := root.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("json root must be an object or an array of objects")
	}

	var docs []*schema.Document
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		value, ok := obj[p.Field]
		if !ok || value == nil {
			continue
		}

		var content string
		if s, isString := value.(string); isString {
			content = s
		} else {
			content, err = sonic.MarshalString(value)
			if err != nil {
				return nil, fmt.Errorf("encode field %q of record %d: %w", p.Field, i, err)
			}
		}

		meta := map[string]any{
			MetaFilename: filepath.Base(options.URI),
			MetaSeqNum:   i + 1,
		}
		for k, v := range options.ExtraMeta {
			meta[k] = v
		}
		docs = append(docs, &schema.Document{Content: content, MetaData: meta})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("field %q not found in any json record", p.Field)
	}
	return docs, nil
}
