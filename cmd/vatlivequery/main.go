// Command vatlivequery offline-validates a filter-DSL query without
// standing up a server: given an expression via -query or stdin, it
// parses and compiles it and reports success or a precise compile error.
// Grounded on the teacher's cmd/crctest secondary-binary pattern (a small
// standalone diagnostic tool living alongside the main server binary).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"vatlive/internal/filter"
)

func main() {
	fs := flag.NewFlagSet("vatlivequery", flag.ExitOnError)
	query := fs.String("query", "", "filter expression to validate (default: read one line from stdin)")
	_ = fs.Parse(os.Args[1:])

	q := *query
	if q == "" {
		line, err := readStdinLine(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, "vatlivequery:", err)
			os.Exit(1)
		}
		q = line
	}

	if strings.TrimSpace(q) == "" {
		fmt.Fprintln(os.Stderr, "vatlivequery: no query given (use -query or pipe one line to stdin)")
		os.Exit(2)
	}

	if _, err := filter.ParseAndCompile(q); err != nil {
		fmt.Fprintf(os.Stderr, "vatlivequery: invalid query: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func readStdinLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return "", nil
}
