package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	charges "condo-billing/internal/charges/domain"
	"condo-billing/internal/charges/interfaces"
)

type options struct {
	requestPath string
	unitsPath   string
	tolerance   float64
	format      string
}

type unitsFile struct {
	Units []interfaces.UnitInput `yaml:"units"`
}

type output struct {
	Result  *charges.Result      `json:"result,omitempty"`
	Summary charges.PayerSummary `json:"summary"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}
	req, err := loadRequest(opts.requestPath)
	if err != nil {
		fmt.Fprintln(stderr, "request:", err)
		return 2
	}
	units, err := loadUnits(opts.unitsPath)
	if err != nil {
		fmt.Fprintln(stderr, "units:", err)
		return 2
	}

	result, err := charges.Aggregate(req, units, charges.WithTolerance(opts.tolerance))
	if err != nil {
		if errs, ok := charges.AsErrorMap(err); ok {
			printErrors(stderr, errs)
			return 1
		}
		fmt.Fprintln(stderr, "aggregate:", err)
		return 1
	}

	summary := charges.SummarizeByPayer(result.Records)
	if opts.format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output{Result: result, Summary: summary}); err != nil {
			fmt.Fprintln(stderr, "encode:", err)
			return 1
		}
		return 0
	}
	printTable(stdout, result, summary)
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("chargecalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.requestPath, "request", "", "charge request file (yaml or json)")
	fs.StringVar(&opts.unitsPath, "units", "", "unit list file (yaml or json)")
	fs.Float64Var(&opts.tolerance, "tolerance", charges.DefaultTolerance, "custom split reconciliation tolerance")
	fs.StringVar(&opts.format, "format", "table", "output format: table or json")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.requestPath == "" {
		return opts, errors.New("missing -request")
	}
	if opts.unitsPath == "" {
		return opts, errors.New("missing -units")
	}
	if opts.format != "table" && opts.format != "json" {
		return opts, fmt.Errorf("unsupported -format %q", opts.format)
	}
	return opts, nil
}

// loadRequest reads a request; yaml.v3 also accepts JSON documents.
func loadRequest(path string) (charges.ChargeRequest, error) {
	var req charges.ChargeRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, err
	}
	req.Kind = charges.ChargeKind(strings.ToLower(strings.TrimSpace(string(req.Kind))))
	req.TargetScope = charges.TargetScope(strings.ToLower(strings.TrimSpace(string(req.TargetScope))))
	req.PayerPolicy = charges.PayerPolicy(strings.ToLower(strings.TrimSpace(string(req.PayerPolicy))))
	return req, nil
}

// loadUnits accepts either a bare list or a document with a units key.
func loadUnits(path string) ([]charges.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inputs []interfaces.UnitInput
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		var doc unitsFile
		if docErr := yaml.Unmarshal(data, &doc); docErr != nil {
			return nil, err
		}
		inputs = doc.Units
	}
	return interfaces.NormalizeUnits(inputs)
}

func printErrors(w io.Writer, errs charges.ErrorMap) {
	fmt.Fprintln(w, "charge request rejected:")
	messages := errs.Messages()
	for _, field := range errs.Fields() {
		fmt.Fprintf(w, "  %s: %s\n", field, messages[field])
	}
}

func printTable(w io.Writer, result *charges.Result, summary charges.PayerSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tNUMBER\tPAYER\tAMOUNT")
	for _, record := range result.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", record.UnitID, record.UnitNumber, record.Payer, record.Amount)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nunits: %d  total: %.2f\n", len(result.Records), result.TotalAmount)
	fmt.Fprintf(w, "owner: %d units %.2f  resident: %d units %.2f\n",
		summary.OwnerUnits, summary.OwnerTotal, summary.ResidentUnits, summary.ResidentTotal)
}
