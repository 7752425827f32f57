package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/starford/grampsxml/internal"
	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/archive"
	"github.com/starford/grampsxml/internal/models"
	"github.com/starford/grampsxml/internal/validator"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print machine-readable JSON",
	}
}

// errDefects makes the process exit non-zero when an archive has defects.
var errDefects = cli.Exit("", 1)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate Gramps archives on the local file system",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			jsonFlag(),
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Also validate against the XSD given by --schema",
			},
			&cli.StringFlag{
				Name:  "schema",
				Usage: "Path to the Gramps XSD",
			},
		},
		Action: validateFiles,
	}
}

func validateFiles(_ context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return cli.Exit("validate: no files given", 2)
	}
	v, err := internal.NewValidator(internal.SchemaConfig{
		Path:   cmd.String("schema"),
		Strict: cmd.Bool("strict"),
	})
	if err != nil {
		return err
	}

	reports := make([]archive.Report, 0, len(files))
	for _, f := range files {
		r, err := validateFile(f, v)
		if err != nil {
			return err
		}
		reports = append(reports, *r)
	}

	if cmd.Bool("json") {
		if err := writeJSON(os.Stdout, reports); err != nil {
			return err
		}
	} else {
		printReports(os.Stdout, reports)
	}

	for _, r := range reports {
		if !r.Valid() {
			return errDefects
		}
	}
	return nil
}

// validateFile reports on one local archive. Malformed XML is a report, not
// an error; unreadable files are errors.
func validateFile(path string, v *validator.Validator) (*archive.Report, error) {
	doc, vs, err := archive.ImportFile(path, archive.WithValidator(v))
	r := &archive.Report{Path: path, Violations: vs}
	switch {
	case errors.Is(err, apperr.ErrMalformed):
		r.ParseError = err.Error()
	case err != nil:
		return nil, err
	default:
		r.SchemaVersion = doc.SchemaVersion
		r.Counts = doc.Counts()
	}
	if r.Violations == nil {
		r.Violations = validator.Violations{}
	}
	return r, nil
}

func printReports(w io.Writer, reports []archive.Report) {
	for _, r := range reports {
		switch {
		case r.ParseError != "":
			fmt.Fprintf(w, "%s: malformed: %s\n", r.Path, r.ParseError)
		case len(r.Violations) == 0:
			fmt.Fprintf(w, "%s: ok\n", r.Path)
		default:
			fmt.Fprintf(w, "%s: %d violations\n", r.Path, len(r.Violations))
			for _, v := range r.Violations {
				fmt.Fprintf(w, "  %s\n", v.String())
			}
		}
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Parse an archive and print it as a JSON document",
		ArgsUsage: "FILE",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("import: expected one file", 2)
			}
			doc, vs, err := archive.ImportFile(cmd.Args().First())
			if err != nil {
				return err
			}
			for _, v := range vs {
				fmt.Fprintf(os.Stderr, "warning: %s\n", v.String())
			}
			return writeJSON(os.Stdout, doc)
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert between .gramps, .xml and .json documents",
		ArgsUsage: "IN OUT",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return cli.Exit("convert: expected IN and OUT", 2)
			}
			return convert(cmd.Args().Get(0), cmd.Args().Get(1))
		},
	}
}

func isJSONFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func convert(in, out string) error {
	var doc *models.Document
	if isJSONFile(in) {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		doc = &models.Document{}
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("%w: %s: %w", apperr.ErrMalformed, in, err)
		}
	} else {
		d, _, err := archive.ImportFile(in)
		if err != nil {
			return err
		}
		doc = d
	}

	if isJSONFile(out) {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := writeJSON(f, doc); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return archive.ExportFile(out, doc)
}

func batch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	reports, err := internal.RunBatch(ctx, internal.WithConfig(cfg))
	if err != nil {
		return err
	}

	invalid := 0
	for _, r := range reports {
		if !r.Valid() {
			invalid++
		}
	}
	if cmd.Bool("json") {
		if err := writeJSON(os.Stdout, map[string]any{
			"reports": reports,
			"valid":   len(reports) - invalid,
			"invalid": invalid,
		}); err != nil {
			return err
		}
	} else {
		printReports(os.Stdout, reports)
		fmt.Fprintf(os.Stdout, "%d archives, %d with defects\n", len(reports), invalid)
	}
	if invalid > 0 {
		return errDefects
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
