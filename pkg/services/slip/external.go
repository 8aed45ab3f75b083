package slip

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandGenerator produces the base slip with the qrbill command line tool
type CommandGenerator struct {
	Path     string
	FullPage bool
}

// NewCommandGenerator creates a generator running the qrbill binary at path
func NewCommandGenerator(path string) *CommandGenerator {
	return &CommandGenerator{Path: path, FullPage: true}
}

// Generate runs qrbill and writes the slip to svgPath
func (g *CommandGenerator) Generate(ctx context.Context, bill Bill, svgPath string) error {
	return run(ctx, g.Path, g.Args(bill, svgPath))
}

// Args builds the qrbill arguments for a bill
func (g *CommandGenerator) Args(bill Bill, svgPath string) []string {
	args := []string{
		"--output", svgPath,
		"--account", bill.Account,
		"--creditor-name", bill.Creditor.Name,
		"--creditor-street", bill.Creditor.StreetLine(),
		"--creditor-postalcode", bill.Creditor.Zip,
		"--creditor-city", bill.Creditor.City,
		"--creditor-country", bill.Creditor.Country,
		"--reference-number", bill.Reference,
		"--currency", bill.Currency,
	}
	if bill.HasAmount {
		args = append(args, "--amount", bill.Amount.StringFixed(2))
	}
	if bill.Debtor.Name != "" {
		args = append(args,
			"--debtor-name", bill.Debtor.Name,
			"--debtor-street", bill.Debtor.StreetLine(),
			"--debtor-postalcode", bill.Debtor.Zip,
			"--debtor-city", bill.Debtor.City,
			"--debtor-country", bill.Debtor.Country,
		)
	}
	if bill.Language != "" {
		args = append(args, "--language", bill.Language)
	}
	if g.FullPage {
		args = append(args, "--full-page")
	}
	return args
}

// DefaultRenderArgs are the rsvg-convert arguments; {svg} and {pdf} are
// replaced by the input and output paths.
var DefaultRenderArgs = []string{"-f", "pdf", "-o", "{pdf}", "{svg}"}

// CommandRenderer converts SVG to PDF with an external command
type CommandRenderer struct {
	Path string
	Args []string
}

// NewCommandRenderer creates a renderer running the converter at path
func NewCommandRenderer(path string) *CommandRenderer {
	return &CommandRenderer{Path: path, Args: DefaultRenderArgs}
}

// Render runs the converter
func (r *CommandRenderer) Render(ctx context.Context, svgPath, pdfPath string) error {
	repl := strings.NewReplacer("{svg}", svgPath, "{pdf}", pdfPath)
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = repl.Replace(a)
	}
	return run(ctx, r.Path, args)
}

func run(ctx context.Context, path string, args []string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %v: %s", path, err, msg)
		}
		return fmt.Errorf("%s: %v", path, err)
	}
	return nil
}
