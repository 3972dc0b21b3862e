// Command extract prints the normalized JSON for bureau XML documents
// without touching any storage.
//
// Usage:
//
//	extract [-pan-source accounts|applicant] [-compact] [file ...]
//
// With no files, the document is read from stdin.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/liamcoop/creditreports/extract"
	"github.com/liamcoop/creditreports/xmltree"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	panSource := fs.String("pan-source", "accounts", "where basicDetails.pan comes from: accounts, applicant")
	compact := fs.Bool("compact", false, "print one JSON document per line")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	src, err := extract.ParsePANSource(*panSource)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	x := extract.New(extract.WithPANSource(src))

	enc := json.NewEncoder(stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}

	if fs.NArg() == 0 {
		return process(x, enc, "<stdin>", stdin, stderr)
	}

	status := 0
	for _, path := range fs.Args() {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			status = 1
			continue
		}
		if code := process(x, enc, path, f, stderr); code != 0 {
			status = code
		}
		f.Close()
	}
	return status
}

func process(x *extract.Extractor, enc *json.Encoder, name string, r io.Reader, stderr io.Writer) int {
	data, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return 1
	}

	rpt, err := x.ExtractBytes(data)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s: %v\n", name, errorKind(err), err)
		return 1
	}

	if err := enc.Encode(rpt); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return 1
	}
	return 0
}

func errorKind(err error) string {
	var parseErr *xmltree.ParseError
	var formatErr *xmltree.FormatError
	var procErr *extract.ProcessingError

	switch {
	case errors.As(err, &parseErr):
		return "parse error"
	case errors.As(err, &formatErr):
		return "format error"
	case errors.As(err, &procErr):
		return "processing error"
	default:
		return "error"
	}
}
