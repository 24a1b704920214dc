// Command sgbdd runs the Coordinator's REPL: it reads one statement per
// line from stdin, parses, validates, routes it through the two-phase
// commit handshake, and prints the result, matching the reference
// implementation's run_prompt/show_result shape.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/config"
	"github.com/K0n4ta13/tesebada/internal/lang/parser"
	"github.com/K0n4ta13/tesebada/internal/metrics"
	"github.com/K0n4ta13/tesebada/internal/router"
	"github.com/K0n4ta13/tesebada/internal/validate"
	"github.com/K0n4ta13/tesebada/internal/wiring"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("sgbdd exited")
	}
}

func run() error {
	var cfg config.Config
	cfg.Bind(pflag.CommandLine)
	pflag.Parse()
	if err := cfg.Preflight(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	ctx := context.Background()
	coordinator, cleanup, err := wiring.NewCoordinator(ctx, &cfg)
	if err != nil {
		return errors.Wrap(err, "failed to start coordinator")
	}
	defer cleanup()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	replLoop(ctx, coordinator)
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Warn("metrics listener exited")
	}
}

func replLoop(ctx context.Context, coordinator *router.Coordinator) {
	reader := bufio.NewReader(os.Stdin)
	stdout := os.Stdout

	for {
		fmt.Fprint(stdout, "> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		q, kind, execErr := executeLine(ctx, coordinator, line)
		if execErr != nil {
			report(stdout, execErr.Error())
			continue
		}
		showResult(stdout, kind, q)
	}
}

// executeLine parses, validates and routes one line of input. The
// returned ast.Result is meaningful only when err is nil.
func executeLine(ctx context.Context, coordinator *router.Coordinator, line string) (ast.Result, ast.Kind, error) {
	parseTimer := metrics.StartParseTimer("")
	q, err := parser.Parse(line)
	parseTimer.ObserveDuration()
	if err != nil {
		metrics.ParseErrors("")
		return ast.Result{}, 0, err
	}

	validateTimer := metrics.StartValidateTimer(q.Kind.String())
	err = validate.Query(coordinator.Catalog, q)
	validateTimer.ObserveDuration()
	if err != nil {
		metrics.ValidateErrors(q.Kind.String())
		return ast.Result{}, q.Kind, err
	}

	result, err := coordinator.Execute(ctx, q)
	if err != nil {
		return ast.Result{}, q.Kind, err
	}
	return result, q.Kind, nil
}

func report(w *os.File, message string) {
	if message == "" {
		return
	}
	fmt.Fprintf(w, "\n%s\n", message)
}

// showResult prints a Select as CSV rows, or a write's affected-row
// count, in the reference implementation's show_result format. A
// write's count line is printed even when the count is zero.
func showResult(w *os.File, kind ast.Kind, result ast.Result) {
	switch kind {
	case ast.KindSelect:
		for _, row := range result.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = v.String()
			}
			fmt.Fprintln(w, strings.Join(cells, ","))
		}
	case ast.KindInsert:
		fmt.Fprintf(w, "\nrows inserted: %d\n\n", result.N)
	case ast.KindUpdate:
		fmt.Fprintf(w, "\nrows updated: %d\n\n", result.N)
	case ast.KindDelete:
		fmt.Fprintf(w, "\nrows deleted: %d\n\n", result.N)
	}
}
