package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/raushankrgupta/fish-scout/models"
	"gopkg.in/yaml.v3"
)

// Output formats for recommendations
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "text"
)

// writeRecommendations renders recs in the given format
func writeRecommendations(w io.Writer, recs []models.Recommendation, format string) error {
	if recs == nil {
		recs = []models.Recommendation{}
	}

	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(recs); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		if len(recs) == 0 {
			_, err := fmt.Fprintln(w, "No recommendations.")
			return err
		}
		for i, rec := range recs {
			if _, err := fmt.Fprintf(w, "%d. %s\n   Price: %s  Score: %.1f\n   %s\n", i+1, rec.Title, rec.Price, rec.Score, rec.Reason); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (json, yaml, text)", format)
}
