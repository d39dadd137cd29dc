package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// CSVParser 每行数据生成一条记录，内容为 "列名: 值" 的多行文本
type CSVParser struct{}

func (p *CSVParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	options := parser.GetCommonOptions(&parser.Options{}, opts...)

	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var docs []*schema.Document
	for row := 0; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}

		lines := make([]string, 0, len(record))
		for i, value := range record {
			name := fmt.Sprintf("column_%d", i)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				name = strings.TrimSpace(header[i])
			}
			lines = append(lines, name+": "+strings.TrimSpace(value))
		}

		meta := map[string]any{MetaRow: row}
		for k, v := range options.ExtraMeta {
			meta[k] = v
		}
		docs = append(docs, &schema.Document{
			Content:  strings.Join(lines, "\n"),
			MetaData: meta,
		})
	}
	return docs, nil
}
