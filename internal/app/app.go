// Package app is the CLI front-end's dispatch layer: it parses subcommand
// flags, wires the adapter/context/engine/validate/dto packages together,
// and reports results in the rule file's error-format convention (§6). It
// is the thin front-end the reference engine calls "contract only" — all
// real behavior lives in the packages it wires.
package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Knetic/govaluate"

	"transform-rules/internal/adapter"
	"transform-rules/internal/context"
	"transform-rules/internal/dto"
	"transform-rules/internal/engine"
	"transform-rules/internal/logging"
	"transform-rules/internal/rterr"
	"transform-rules/internal/rules"
	"transform-rules/internal/util"
	"transform-rules/internal/validate"
)

// Exit codes (§6).
const (
	ExitSuccess     = 0
	ExitIOOrBadArgs = 1
	ExitValidation  = 2
	ExitTransform   = 3
)

var (
	// ErrUsage marks an argument-parsing or missing-flag failure.
	ErrUsage = errors.New("usage error")
)

// AppRunner dispatches CLI subcommands. It holds no state: every flag it
// needs is parsed fresh from args on each Run call.
type AppRunner struct{}

// NewAppRunner constructs an AppRunner.
func NewAppRunner() *AppRunner {
	return &AppRunner{}
}

const usageText = `Usage:
  transform-rules <command> [flags]

Commands:
  validate   --rules FILE [--error-format text|json]
  transform  --rules FILE --input FILE [--context PATH] [--output FILE]
             [--format csv|json|xlsx] [--sheet NAME] [--validate]
             [--filter EXPR] [--error-format text|json]
  preflight  --rules FILE [--input FILE] [--context PATH]
             [--format csv|json|xlsx] [--sheet NAME] [--error-format text|json]
  generate   --rules FILE --language LANG [--name NAME] [--error-format text|json]

Common flags:
  --log-level none|error|warn|info|debug   (default: $LOG_LEVEL or info)
`

// Usage writes the command summary to w.
func (a *AppRunner) Usage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// Run parses args and dispatches to the named subcommand, returning the
// process exit code (§6) alongside an error for logging purposes.
func (a *AppRunner) Run(args []string) (int, error) {
	if len(args) == 0 {
		a.Usage(os.Stderr)
		return ExitIOOrBadArgs, fmt.Errorf("%w: missing subcommand", ErrUsage)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "validate":
		return a.runValidate(rest)
	case "transform":
		return a.runTransform(rest)
	case "preflight":
		return a.runPreflight(rest)
	case "generate":
		return a.runGenerate(rest)
	case "-h", "--help", "help":
		a.Usage(os.Stdout)
		return ExitSuccess, nil
	default:
		a.Usage(os.Stderr)
		return ExitIOOrBadArgs, fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func defaultLogLevel() string {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}

func loadRule(rulesPath string) (*rules.RuleFile, string, error) {
	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read rule file %q: %w", rulesPath, err)
	}
	rule, err := rules.Parse(data)
	if err != nil {
		return nil, "", err
	}
	return rule, string(data), nil
}

func runStaticValidation(rule *rules.RuleFile, source, errorFormat string, w io.Writer) []*validate.Error {
	errs := validate.ValidateWithSource(rule, source)
	if len(errs) > 0 {
		reportValidationErrors(w, errs, errorFormat)
	}
	return errs
}

// runValidate implements the `validate` subcommand.
func (a *AppRunner) runValidate(args []string) (int, error) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	rulesPath := fs.String("rules", "", "rules YAML file")
	errorFormat := fs.String("error-format", "text", "text|json")
	logLevel := fs.String("log-level", defaultLogLevel(), "log level")
	if err := fs.Parse(args); err != nil {
		return ExitIOOrBadArgs, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	logging.SetupLogging(*logLevel)
	if *rulesPath == "" {
		return ExitIOOrBadArgs, fmt.Errorf("%w: --rules is required", ErrUsage)
	}

	rule, source, err := loadRule(*rulesPath)
	if err != nil {
		return ExitIOOrBadArgs, err
	}

	errs := runStaticValidation(rule, source, *errorFormat, os.Stderr)
	if len(errs) > 0 {
		return ExitValidation, fmt.Errorf("rule file failed validation with %d error(s)", len(errs))
	}
	logging.Logf(logging.Info, "rule file %q is valid", *rulesPath)
	return ExitSuccess, nil
}

// readRecords resolves the effective input format (rule default, overridden
// by --format) and reads records through the matching adapter.
func readRecords(rule *rules.RuleFile, formatOverride, inputPath, sheet string) ([]map[string]any, error) {
	format := string(rule.Input.Format)
	if formatOverride != "" {
		format = formatOverride
	}

	switch format {
	case "csv":
		hasHeader := rule.Input.CSV.HasHeaderOrDefault()
		delimiter := rule.Input.CSV.DelimiterOrDefault()
		var columns []string
		if rule.Input.CSV != nil {
			for _, c := range rule.Input.CSV.Columns {
				columns = append(columns, c.Name)
			}
		}
		return adapter.ReadCSV(inputPath, delimiter, hasHeader, columns)
	case "json":
		recordsPath := ""
		if rule.Input.JSON != nil {
			recordsPath = rule.Input.JSON.RecordsPath
		}
		return adapter.ReadJSON(inputPath, recordsPath)
	case "xlsx":
		return adapter.ReadXLSX(inputPath, sheet)
	default:
		return nil, fmt.Errorf("unsupported input format %q", format)
	}
}

func loadContext(contextPath string) (any, error) {
	if contextPath == "" {
		return nil, nil
	}
	return context.Load(util.ExpandEnvUniversal(contextPath))
}

func applyCLIFilter(records []map[string]any, expr string) ([]map[string]any, error) {
	if expr == "" {
		return records, nil
	}
	evalExpr, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid --filter expression %q: %w", expr, err)
	}
	kept := make([]map[string]any, 0, len(records))
	for i, rec := range records {
		params := make(map[string]interface{}, len(rec))
		for k, v := range rec {
			params[k] = v
		}
		result, err := evalExpr.Evaluate(params)
		if err != nil {
			logging.Logf(logging.Warning, "filter evaluation failed for record %d: %v, skipping", i, err)
			continue
		}
		keep, ok := result.(bool)
		if !ok {
			logging.Logf(logging.Warning, "filter expression did not evaluate to a boolean for record %d, skipping", i)
			continue
		}
		if keep {
			kept = append(kept, rec)
		}
	}
	return kept, nil
}

// runTransform implements the `transform` subcommand.
func (a *AppRunner) runTransform(args []string) (int, error) {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	rulesPath := fs.String("rules", "", "rules YAML file")
	inputPath := fs.String("input", "", "input data file")
	contextPath := fs.String("context", "", "context document: local JSON file or postgres://...#query")
	outputPath := fs.String("output", "", "output file (default: stdout)")
	format := fs.String("format", "", "override input format: csv|json|xlsx")
	sheet := fs.String("sheet", "", "XLSX sheet name (default: first sheet)")
	doValidate := fs.Bool("validate", false, "run the static validator before transforming")
	filterExpr := fs.String("filter", "", "govaluate boolean pre-filter expression")
	errorFormat := fs.String("error-format", "text", "text|json")
	logLevel := fs.String("log-level", defaultLogLevel(), "log level")
	if err := fs.Parse(args); err != nil {
		return ExitIOOrBadArgs, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	logging.SetupLogging(*logLevel)
	if *rulesPath == "" || *inputPath == "" {
		return ExitIOOrBadArgs, fmt.Errorf("%w: --rules and --input are required", ErrUsage)
	}

	rule, source, err := loadRule(*rulesPath)
	if err != nil {
		return ExitIOOrBadArgs, err
	}

	if *doValidate {
		if errs := runStaticValidation(rule, source, *errorFormat, os.Stderr); len(errs) > 0 {
			return ExitValidation, fmt.Errorf("rule file failed validation with %d error(s)", len(errs))
		}
	}

	records, err := readRecords(rule, *format, *inputPath, *sheet)
	if err != nil {
		return ExitIOOrBadArgs, err
	}
	records, err = applyCLIFilter(records, *filterExpr)
	if err != nil {
		return ExitIOOrBadArgs, err
	}

	ctxDoc, err := loadContext(*contextPath)
	if err != nil {
		return ExitIOOrBadArgs, err
	}

	eng := engine.New(rule, ctxDoc)
	outputs, warnings, err := eng.TransformAll(records)
	if err != nil {
		reportTransformError(os.Stderr, err, *errorFormat)
		return ExitTransform, err
	}
	if len(warnings) > 0 {
		reportWarnings(os.Stderr, warnings, *errorFormat)
	}

	var out io.Writer = os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			return ExitIOOrBadArgs, fmt.Errorf("failed to create output file %q: %w", *outputPath, err)
		}
		defer f.Close()
		out = f
	}
	if err := adapter.WriteJSON(out, outputs); err != nil {
		return ExitIOOrBadArgs, fmt.Errorf("failed to write output: %w", err)
	}

	logging.Logf(logging.Info, "transformed %d record(s), %d warning(s)", len(outputs), len(warnings))
	return ExitSuccess, nil
}

// runPreflight implements the `preflight` subcommand: validate the rule
// file, and, when --input is given, run the transform driver over the
// input without writing any output, surfacing the errors/warnings a real
// transform run would hit.
func (a *AppRunner) runPreflight(args []string) (int, error) {
	fs := flag.NewFlagSet("preflight", flag.ContinueOnError)
	rulesPath := fs.String("rules", "", "rules YAML file")
	inputPath := fs.String("input", "", "input data file (optional)")
	contextPath := fs.String("context", "", "context document (optional)")
	format := fs.String("format", "", "override input format: csv|json|xlsx")
	sheet := fs.String("sheet", "", "XLSX sheet name")
	errorFormat := fs.String("error-format", "text", "text|json")
	logLevel := fs.String("log-level", defaultLogLevel(), "log level")
	if err := fs.Parse(args); err != nil {
		return ExitIOOrBadArgs, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	logging.SetupLogging(*logLevel)
	if *rulesPath == "" {
		return ExitIOOrBadArgs, fmt.Errorf("%w: --rules is required", ErrUsage)
	}

	rule, source, err := loadRule(*rulesPath)
	if err != nil {
		return ExitIOOrBadArgs, err
	}

	if errs := runStaticValidation(rule, source, *errorFormat, os.Stderr); len(errs) > 0 {
		return ExitValidation, fmt.Errorf("rule file failed validation with %d error(s)", len(errs))
	}

	if *inputPath == "" {
		logging.Logf(logging.Info, "rule file %q is valid; no --input given, skipping a dry transform", *rulesPath)
		return ExitSuccess, nil
	}

	records, err := readRecords(rule, *format, *inputPath, *sheet)
	if err != nil {
		return ExitIOOrBadArgs, err
	}
	ctxDoc, err := loadContext(*contextPath)
	if err != nil {
		return ExitIOOrBadArgs, err
	}

	eng := engine.New(rule, ctxDoc)
	outputs, warnings, err := eng.TransformAll(records)
	if err != nil {
		reportTransformError(os.Stderr, err, *errorFormat)
		return ExitTransform, err
	}
	if len(warnings) > 0 {
		reportWarnings(os.Stderr, warnings, *errorFormat)
	}
	logging.Logf(logging.Info, "preflight OK: %d record(s) would transform cleanly, %d warning(s)", len(outputs), len(warnings))
	return ExitSuccess, nil
}

// runGenerate implements the `generate` subcommand.
func (a *AppRunner) runGenerate(args []string) (int, error) {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	rulesPath := fs.String("rules", "", "rules YAML file")
	language := fs.String("language", "", "rust|typescript|python|go|java|kotlin|swift")
	name := fs.String("name", "", "root type name (default: Record)")
	outputPath := fs.String("output", "", "output file (default: stdout)")
	errorFormat := fs.String("error-format", "text", "text|json")
	logLevel := fs.String("log-level", defaultLogLevel(), "log level")
	if err := fs.Parse(args); err != nil {
		return ExitIOOrBadArgs, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	logging.SetupLogging(*logLevel)
	if *rulesPath == "" || *language == "" {
		return ExitIOOrBadArgs, fmt.Errorf("%w: --rules and --language are required", ErrUsage)
	}

	rule, source, err := loadRule(*rulesPath)
	if err != nil {
		return ExitIOOrBadArgs, err
	}
	if errs := runStaticValidation(rule, source, *errorFormat, os.Stderr); len(errs) > 0 {
		return ExitValidation, fmt.Errorf("rule file failed validation with %d error(s)", len(errs))
	}

	code, err := dto.Generate(rule, dto.Language(*language), *name)
	if err != nil {
		return ExitIOOrBadArgs, err
	}

	var out io.Writer = os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			return ExitIOOrBadArgs, fmt.Errorf("failed to create output file %q: %w", *outputPath, err)
		}
		defer f.Close()
		out = f
	}
	if _, err := io.WriteString(out, code); err != nil {
		return ExitIOOrBadArgs, fmt.Errorf("failed to write generated types: %w", err)
	}
	return ExitSuccess, nil
}

// reportValidationErrors writes errs to w in text or JSON form (§6).
func reportValidationErrors(w io.Writer, errs []*validate.Error, format string) {
	if format == "json" {
		entries := make([]map[string]any, len(errs))
		for i, e := range errs {
			entry := map[string]any{"type": "validation", "code": string(e.Code), "message": e.Message, "path": e.Path}
			if e.HasLoc {
				entry["line"] = e.Line
				entry["column"] = e.Column
			}
			entries[i] = entry
		}
		enc, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Fprintln(w, string(enc))
		return
	}
	for _, e := range errs {
		fmt.Fprintln(w, e.Error())
	}
}

func reportTransformError(w io.Writer, err error, format string) {
	var te *rterr.Error
	if !errors.As(err, &te) {
		fmt.Fprintln(w, err)
		return
	}
	if format == "json" {
		entry := map[string]any{"type": "transform", "kind": string(te.Kind), "message": te.Message}
		if te.Path != "" {
			entry["path"] = te.Path
		}
		enc, _ := json.MarshalIndent([]map[string]any{entry}, "", "  ")
		fmt.Fprintln(w, string(enc))
		return
	}
	fmt.Fprintln(w, te.Error())
}

func reportWarnings(w io.Writer, warnings []rterr.Warning, format string) {
	if format == "json" {
		entries := make([]map[string]any, len(warnings))
		for i, wr := range warnings {
			entry := map[string]any{"type": "warning", "kind": string(wr.Kind), "message": wr.Message}
			if wr.Path != "" {
				entry["path"] = wr.Path
			}
			entries[i] = entry
		}
		enc, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Fprintln(w, string(enc))
		return
	}
	for _, wr := range warnings {
		fmt.Fprintln(w, wr.String())
	}
}
