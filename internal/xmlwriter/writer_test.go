package xmlwriter

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csvline/internal/csvparser"
)

func sampleData() *csvparser.CSVData {
	return &csvparser.CSVData{
		SourceFile: "payments.csv",
		Headers:    []string{"id", "note", "amount"},
		Records: [][]string{
			{"1", "a < b & \"c\"", ""},
			{"2", "first\nsecond", "10.50"},
		},
		RowNumbers: []int{2, 3},
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	out, err := Generate(sampleData())
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<records source="payments.csv" count="2">
  <record row="2">
    <field name="id">1</field>
    <field name="note">a &lt; b &amp; &#34;c&#34;</field>
    <field name="amount"/>
  </record>
  <record row="3">
    <field name="id">2</field>
    <field name="note">first&#xA;second</field>
    <field name="amount">10.50</field>
  </record>
</records>
`
	assert.Equal(t, want, string(out))
}

func TestGenerateRoundTripsThroughDecoder(t *testing.T) {
	t.Parallel()

	out, err := Generate(sampleData())
	require.NoError(t, err)

	var doc struct {
		Source  string `xml:"source,attr"`
		Records []struct {
			Row    int `xml:"row,attr"`
			Fields []struct {
				Name  string `xml:"name,attr"`
				Value string `xml:",chardata"`
			} `xml:"field"`
		} `xml:"record"`
	}
	require.NoError(t, xml.Unmarshal(out, &doc))

	assert.Equal(t, "payments.csv", doc.Source)
	require.Len(t, doc.Records, 2)
	assert.Equal(t, 3, doc.Records[1].Row)
	assert.Equal(t, "first\nsecond", doc.Records[1].Fields[1].Value)
	assert.Equal(t, `a < b & "c"`, doc.Records[0].Fields[1].Value)
}

func TestGenerateWithOptions(t *testing.T) {
	t.Parallel()

	options := DefaultGenerateOptions()
	options.IncludeXMLDeclaration = false
	options.RootElement = "rows"
	options.RecordElement = "row"
	options.FieldElement = "col"
	options.Indent = "\t"
	options.RootAttributes = map[string]string{"xmlns": "urn:csvline", "batch": "7"}

	data := &csvparser.CSVData{SourceFile: "x.csv", Headers: []string{"a"}, Records: [][]string{{}}, RowNumbers: []int{5}}

	out, err := GenerateWithOptions(data, options)
	require.NoError(t, err)

	want := "<rows source=\"x.csv\" count=\"1\" batch=\"7\" xmlns=\"urn:csvline\">\n" +
		"\t<row row=\"5\">\n" +
		"\t\t<col name=\"a\"/>\n" +
		"\t</row>\n" +
		"</rows>\n"
	assert.Equal(t, want, string(out))
}

func TestGenerateEmptyData(t *testing.T) {
	t.Parallel()

	out, err := Generate(&csvparser.CSVData{SourceFile: "empty.csv"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<records source="empty.csv" count="0"/>`)
}

func TestGenerateRejectsEmptyElementNames(t *testing.T) {
	t.Parallel()

	options := DefaultGenerateOptions()
	options.FieldElement = ""

	_, err := GenerateWithOptions(sampleData(), options)
	assert.Error(t, err)
}
