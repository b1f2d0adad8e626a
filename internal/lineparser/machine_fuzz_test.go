package lineparser

import (
	"errors"
	"reflect"
	"testing"
)

func FuzzParseRoundTrip(f *testing.F) {
	seeds := []string{
		"",
		"a,b,c",
		`a,"b""c",d`,
		"a,\"b\nc\",d\r\n",
		`"unterminated`,
		`a\x`,
		`"a"b`,
		"a,b,",
		`a\,b\\c\`,
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if len(input) > 1<<12 {
			t.Skip()
		}

		record, ok, err := Parse(input, '\\', ',', '"')
		if err != nil {
			var merr *MalformedInputError
			if !errors.As(err, &merr) || merr.Line != input {
				t.Fatalf("unexpected error %v for input %q", err, input)
			}
			return
		}
		if !ok {
			if record != nil {
				t.Fatalf("incomplete parse returned record %q", record)
			}
			return
		}
		if len(record) == 0 {
			t.Fatalf("successful parse returned no fields for input %q", input)
		}

		again, ok, err := Parse(encodeRecord(record, '\\', ',', '"'), '\\', ',', '"')
		if err != nil || !ok {
			t.Fatalf("re-parse failed: ok=%v err=%v record=%q", ok, err, record)
		}
		if !reflect.DeepEqual(record, again) {
			t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", again, record)
		}
	})
}
