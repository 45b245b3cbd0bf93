package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
	// FormatJUnit is JUnit XML output (for test results).
	FormatJUnit OutputFormat = "junit"
)

// Formatter formats command output.
type Formatter interface {
	Format(data interface{}) ([]byte, error)
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// Format converts data to text format.
func (f *TextFormatter) Format(data interface{}) ([]byte, error) {
	return []byte(fmt.Sprintf("%v\n", data)), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data interface{}) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats output as CSV. Rows are derived by round-tripping
// data through JSON into a slice of flat records; a bare object is
// treated as a single row. Headers, if unset, are taken from the first
// row's keys in JSON encounter order.
type CSVFormatter struct {
	Headers []string
}

// Format converts data to CSV format.
func (f *CSVFormatter) Format(data interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := f.FormatTo(buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data interface{}) error {
	rows, headers, err := csvRows(data, f.Headers)
	if err != nil {
		return err
	}

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if len(headers) > 0 {
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
	}
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, h := range headers {
			record[i] = fmt.Sprintf("%v", row[h])
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}
	return csvWriter.Error()
}

// csvRows normalizes data (a struct, a map, or a slice of either) into a
// list of flat records plus the header order to render them in.
func csvRows(data interface{}, headers []string) ([]map[string]interface{}, []string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("csv: marshaling data: %w", err)
	}

	var rows []map[string]interface{}
	var asSlice []map[string]interface{}
	if err := json.Unmarshal(raw, &asSlice); err == nil {
		rows = asSlice
	} else {
		var asObject map[string]interface{}
		if err := json.Unmarshal(raw, &asObject); err != nil {
			return nil, nil, fmt.Errorf("csv: data must be a struct/map or a slice of either")
		}
		rows = []map[string]interface{}{asObject}
	}

	if len(headers) == 0 && len(rows) > 0 {
		headers = jsonKeyOrder(raw, rows[0])
	}
	return rows, headers, nil
}

// jsonKeyOrder recovers the field order of the first JSON object in raw
// (json.Unmarshal into a map loses order; a Decoder token stream doesn't).
func jsonKeyOrder(raw []byte, fallback map[string]interface{}) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	// Descend into a leading '[' if raw encodes a slice.
	tok, err := dec.Token()
	if err != nil {
		return sortedKeys(fallback)
	}
	if delim, ok := tok.(json.Delim); ok && delim == '[' {
		tok, err = dec.Token()
		if err != nil {
			return sortedKeys(fallback)
		}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return sortedKeys(fallback)
	}

	var order []string
	seen := map[string]bool{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return sortedKeys(fallback)
		}
		key, _ := keyTok.(string)
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
		if err := dec.Decode(new(json.RawMessage)); err != nil {
			return sortedKeys(fallback)
		}
	}
	return order
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}
