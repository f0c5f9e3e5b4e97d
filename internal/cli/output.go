package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Output format names accepted by --output flags.
const (
	outputFormatTable  = "table"
	outputFormatJSON   = "json"
	outputFormatNDJSON = "ndjson"
)

// ValidateOutputFormat rejects output formats outside table, json, and
// ndjson.
func ValidateOutputFormat(format string) error {
	switch format {
	case outputFormatTable, outputFormatJSON, outputFormatNDJSON:
		return nil
	default:
		return fmt.Errorf("invalid output format %q: must be table, json, or ndjson", format)
	}
}

// renderJSON writes v as indented JSON with a trailing newline.
func renderJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// renderNDJSON writes one compact JSON document per element.
func renderNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encoding ndjson: %w", err)
		}
	}
	return nil
}
