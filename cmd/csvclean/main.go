// Command csvclean normalizes a CSV export of one table fragment: it
// trims whitespace from every field, drops blank lines, and
// de-duplicates rows by their first column (the fragment's IdCliente).
// It has nothing to do with the Coordinator's request path — it is a
// standalone offline utility, adapted from the teacher's sink/resolved
// table column-juggling shape, kept on the teacher's legacy stdlib
// log rather than the rest of the tree's logrus.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
)

func main() {
	in := flag.String("in", "", "path to the CSV file to clean; defaults to stdin")
	out := flag.String("out", "", "path to write cleaned CSV to; defaults to stdout")
	flag.Parse()

	if err := run(*in, *out); err != nil {
		log.Fatal(err)
	}
}

func run(inPath, outPath string) error {
	src := os.Stdin
	if inPath != "" {
		f, err := os.Open(inPath)
		if err != nil {
			return fmt.Errorf("could not open %s: %w", inPath, err)
		}
		defer f.Close()
		src = f
	}

	dst := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("could not create %s: %w", outPath, err)
		}
		defer f.Close()
		dst = f
	}

	return Clean(src, dst)
}

// Clean reads CSV rows from r and writes the normalized result to w.
func Clean(r *os.File, w *os.File) error {
	scanner := bufio.NewScanner(r)
	writer := bufio.NewWriter(w)
	defer writer.Flush()

	seen := make(map[string]struct{})
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		row, ok := cleanRow(scanner.Text())
		if !ok {
			continue
		}

		key := row[0]
		if _, dup := seen[key]; dup {
			log.Printf("csvclean: dropping duplicate row for key %q at line %d", key, lineNo)
			continue
		}
		seen[key] = struct{}{}

		if _, err := writer.WriteString(strings.Join(row, ",") + "\n"); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// cleanRow trims whitespace from every field of a raw CSV line and
// reports whether the row survives: a line that is blank, or whose
// first column (the key used for de-duplication) is empty after
// trimming, is dropped entirely.
func cleanRow(line string) ([]string, bool) {
	if strings.TrimSpace(line) == "" {
		return nil, false
	}

	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	if fields[0] == "" {
		return nil, false
	}
	return fields, true
}
