// =============================================================================
// csvline - XML Writer Module
// =============================================================================
//
// This module renders parsed CSV data as an XML document. Every record becomes
// one element and every field a child element carrying its header name, so
// the document needs no schema of its own.
//
// XML STRUCTURE:
//
//   <records source="payments.csv" count="2">  <!-- Root element -->
//     <record row="2">                          <!-- Starting line in the file -->
//       <field name="id">1</field>
//       <field name="note">first line&#xA;second line</field>
//       <field name="amount"/>                  <!-- Empty value -->
//     </record>
//     <record row="4">
//       ...
//     </record>
//   </records>
//
// Field values are escaped with encoding/xml, so line breaks joined into a
// quoted field survive as character references.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"github.com/ginjaninja78/csvline/internal/csvparser"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// RootElement is the name of the document element.
	// Default: "records"
	RootElement string

	// RecordElement is the name of each record element.
	// Default: "record"
	RecordElement string

	// FieldElement is the name of each field element.
	// Default: "field"
	FieldElement string

	// RootAttributes are additional attributes for the root element.
	// Example: {"xmlns": "http://example.com/schema"}
	RootAttributes map[string]string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		RootElement:           "records",
		RecordElement:         "record",
		FieldElement:          "field",
		RootAttributes:        make(map[string]string),
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates an XML document from parsed CSV data using the default
// options.
func Generate(data *csvparser.CSVData) ([]byte, error) {
	return GenerateWithOptions(data, DefaultGenerateOptions())
}

// GenerateWithOptions creates an XML document with custom options.
//
// PARAMETERS:
//   - data: The parsed CSV data.
//   - options: The generation options.
//
// RETURNS:
//   - The XML document as a byte slice. The output is always UTF-8.
//   - An error if an element name is empty.
func GenerateWithOptions(data *csvparser.CSVData, options GenerateOptions) ([]byte, error) {
	if options.RootElement == "" || options.RecordElement == "" || options.FieldElement == "" {
		return nil, fmt.Errorf("element names must not be empty")
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		fmt.Fprintf(&buffer, "<?xml version=\"%s\" encoding=\"UTF-8\"?>\n", options.XMLVersion)
	}

	writeElement(&buffer, buildDocument(data, options), options.Indent, 0)

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	Name       string
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// buildDocument constructs the element tree for data.
func buildDocument(data *csvparser.CSVData, options GenerateOptions) XMLElement {
	root := XMLElement{
		Name: options.RootElement,
		Attributes: []xml.Attr{
			attr("source", data.SourceFile),
			attr("count", strconv.Itoa(len(data.Records))),
		},
	}

	// Map iteration order is random; sort for stable output.
	keys := make([]string, 0, len(options.RootAttributes))
	for key := range options.RootAttributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		root.Attributes = append(root.Attributes, attr(key, options.RootAttributes[key]))
	}

	for i, record := range data.Records {
		element := XMLElement{Name: options.RecordElement}
		if i < len(data.RowNumbers) {
			element.Attributes = []xml.Attr{attr("row", strconv.Itoa(data.RowNumbers[i]))}
		}

		for col, header := range data.Headers {
			value := ""
			if col < len(record) {
				value = record[col]
			}
			element.Children = append(element.Children, XMLElement{
				Name:       options.FieldElement,
				Attributes: []xml.Attr{attr("name", header)},
				Value:      value,
			})
		}

		root.Children = append(root.Children, element)
	}

	return root
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.Name)

	for _, a := range element.Attributes {
		buffer.WriteString(" ")
		buffer.WriteString(a.Name.Local)
		buffer.WriteString(`="`)
		escapeXML(buffer, a.Value)
		buffer.WriteString(`"`)
	}

	// Self-closing tag.
	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if len(element.Children) == 0 {
		escapeXML(buffer, element.Value)
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")
}

// escapeXML escapes s for use in character data or a quoted attribute.
// Characters that XML cannot represent are replaced with U+FFFD.
func escapeXML(buffer *bytes.Buffer, s string) {
	// EscapeText only fails when the writer does; bytes.Buffer never does.
	_ = xml.EscapeText(buffer, []byte(s))
}
