// =============================================================================
// csvline - Output Rendering
// =============================================================================
//
// Encodes parsed CSV data as XML, XLSX, YAML or JSON.
//
// YAML and JSON keep the header order of every record.
//
// =============================================================================

package converter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/csvline/internal/config"
	"github.com/ginjaninja78/csvline/internal/csvparser"
	"github.com/ginjaninja78/csvline/internal/xlsxwriter"
	"github.com/ginjaninja78/csvline/internal/xmlwriter"
)

// Render encodes data in the given output format.
//
// PARAMETERS:
//   - data: The parsed CSV data.
//   - format: One of config.FormatXML, FormatXLSX, FormatYAML, FormatJSON.
//
// RETURNS:
//   - The encoded document.
//   - An error if the format is unknown or encoding fails.
func Render(data *csvparser.CSVData, format string) ([]byte, error) {
	switch format {
	case config.FormatXML:
		return xmlwriter.Generate(data)
	case config.FormatXLSX:
		return xlsxwriter.Generate(data)
	case config.FormatYAML:
		return RenderYAML(data)
	case config.FormatJSON:
		return RenderJSON(data)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// RenderYAML encodes data as a YAML document. Fields keep the column order of
// the file and every value is a string.
//
//   source: payments.csv
//   count: 1
//   headers: [id, note]
//   records:
//     - row: 2
//       fields:
//         id: "007"
//         note: hello
func RenderYAML(data *csvparser.CSVData) ([]byte, error) {
	headers := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, header := range data.Headers {
		headers.Content = append(headers.Content, stringNode(header))
	}

	records := &yaml.Node{Kind: yaml.SequenceNode}
	for i, record := range data.Records {
		fields := &yaml.Node{Kind: yaml.MappingNode}
		for col, header := range data.Headers {
			fields.Content = append(fields.Content, stringNode(header), stringNode(valueAt(record, col)))
		}

		entry := &yaml.Node{Kind: yaml.MappingNode}
		if i < len(data.RowNumbers) {
			entry.Content = append(entry.Content, stringNode("row"), intNode(data.RowNumbers[i]))
		}
		entry.Content = append(entry.Content, stringNode("fields"), fields)
		records.Content = append(records.Content, entry)
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	doc.Content = append(doc.Content,
		stringNode("source"), stringNode(data.SourceFile),
		stringNode("count"), intNode(len(data.Records)),
		stringNode("headers"), headers,
		stringNode("records"), records,
	)

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buffer.Bytes(), nil
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func intNode(value int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(value)}
}

// jsonDocument is the JSON shape of a converted file.
type jsonDocument struct {
	Source  string       `json:"source"`
	Count   int          `json:"count"`
	Headers []string     `json:"headers"`
	Records []jsonRecord `json:"records"`
}

type jsonRecord struct {
	Row    int           `json:"row,omitempty"`
	Fields orderedFields `json:"fields"`
}

// orderedFields marshals as a JSON object whose keys keep the header order.
type orderedFields struct {
	headers []string
	values  []string
}

func (f orderedFields) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, header := range f.headers {
		if i > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(header)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(valueAt(f.values, i))
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// RenderJSON encodes data as an indented JSON document with the same shape as
// RenderYAML.
func RenderJSON(data *csvparser.CSVData) ([]byte, error) {
	doc := jsonDocument{
		Source:  data.SourceFile,
		Count:   len(data.Records),
		Headers: data.Headers,
		Records: make([]jsonRecord, 0, len(data.Records)),
	}
	if doc.Headers == nil {
		doc.Headers = []string{}
	}

	for i, record := range data.Records {
		entry := jsonRecord{Fields: orderedFields{headers: data.Headers, values: record}}
		if i < len(data.RowNumbers) {
			entry.Row = data.RowNumbers[i]
		}
		doc.Records = append(doc.Records, entry)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(out, '\n'), nil
}

// valueAt returns record[i], or "" for the missing fields of an empty record.
func valueAt(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}
