package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/signup/internal/errors"
	"github.com/vango-dev/signup/internal/signup"
)

func validateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a values file against the signup rules",
		Long: `Check a YAML or JSON values file offline with the same rules the
server applies. The file is a single mapping of field names to values:

  username: ada_lovelace
  email: ada@example.com
  password: analytical-engine
  confirmPassword: analytical-engine
  acceptTerms: true

The command exits non-zero when any field is invalid.`,
		Args: checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// valueEntry is one field of a values file.
type valueEntry struct {
	field  string
	value  string
	line   int
	column int
}

func runValidate(w io.Writer, path string, asJSON bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New("E202").Wrap(err)
	}
	entries, err := parseValuesFile(data)
	if err != nil {
		return errors.New("E202").Wrap(err).
			WithSuggestion("Write the values as one YAML or JSON mapping")
	}

	f := signup.NewForm()
	known := make(map[string]bool)
	for _, field := range f.Fields() {
		known[field] = true
	}

	post := url.Values{}
	lines := make(map[string]valueEntry, len(entries))
	for _, e := range entries {
		if !known[e.field] {
			return errors.New("E203").
				WithLocation(path, e.line, e.column).
				WithDetail(fmt.Sprintf("%q is not a signup field. Known fields: %s.", e.field, strings.Join(f.Fields(), ", ")))
		}
		post.Set(e.field, e.value)
		lines[e.field] = e
	}
	if err := f.Bind(post); err != nil {
		return errors.New("E202").Wrap(err)
	}

	valid := f.Validate()
	errs := f.Errors()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"valid": valid, "errors": errs}); err != nil {
			return err
		}
	}
	if valid {
		if !asJSON {
			success(w, "%s is valid", path)
		}
		return nil
	}

	se := errors.New("E201").WithFields(errs)
	for _, field := range f.Fields() {
		if len(errs[field]) == 0 {
			continue
		}
		if e, ok := lines[field]; ok {
			se.WithLocation(path, e.line, e.column)
		} else {
			se.WithSuggestion(fmt.Sprintf("Add %s to %s", field, path))
		}
		break
	}
	return se
}

// parseValuesFile reads a YAML or JSON mapping of scalar values, keeping
// the position of every key.
func parseValuesFile(data []byte) ([]valueEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("values file is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: values must be a mapping", root.Line)
	}

	entries := make([]valueEntry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %s must be a single value", val.Line, key.Value)
		}
		value := val.Value
		if val.Tag == "!!null" {
			value = ""
		}
		entries = append(entries, valueEntry{
			field:  key.Value,
			value:  value,
			line:   key.Line,
			column: key.Column,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].line < entries[j].line })
	return entries, nil
}
