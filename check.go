package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"osucodec/dotosu"
	"osucodec/dotosu/roundtrip"
	"osucodec/internal/config"
	"osucodec/internal/store"
)

var (
	checkWorkers      int
	checkRecord       bool
	checkSaveFailures bool
	checkFailDir      string
	checkFormat       string
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	noteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// checkResult is the outcome of decoding, re-encoding and re-decoding one chart.
type checkResult struct {
	Name          string        `json:"name"`
	SHA256        string        `json:"sha256"`
	FormatVersion int           `json:"format_version,omitempty"`
	Stage         string        `json:"stage,omitempty"`
	Error         string        `json:"error,omitempty"`
	Diff          []string      `json:"diff,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
	Note          string        `json:"note,omitempty"`

	input []byte
}

func (r checkResult) OK() bool { return r.Error == "" && len(r.Diff) == 0 }

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check PATH...",
		Short: "Round-trip check .osu files, directories and .osz archives",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheckCmd,
	}
	cmd.Flags().IntVar(&checkWorkers, "workers", runtime.NumCPU(), "number of charts checked in parallel")
	cmd.Flags().BoolVar(&checkRecord, "record", false, "record results in the check history")
	cmd.Flags().BoolVar(&checkSaveFailures, "save-failures", false, "copy failing charts and their diffs to --fail-dir")
	cmd.Flags().StringVar(&checkFailDir, "fail-dir", config.DefaultFailDir(), "where failing charts are saved")
	cmd.Flags().StringVar(&checkFormat, "format", "auto", "output format: auto, color, plain or json")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	applyIntConfig(cmd, "workers", &checkWorkers, fileCfg.Check.Workers)
	applyBoolConfig(cmd, "record", &checkRecord, fileCfg.Check.Record)
	applyStringConfig(cmd, "fail-dir", &checkFailDir, fileCfg.Check.FailDir)
	if checkWorkers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}
	format, err := resolveFormat(checkFormat, os.Stdout)
	if err != nil {
		return err
	}

	srcs, err := OpenSources(args)
	if err != nil {
		return err
	}
	if len(srcs) == 0 {
		return fmt.Errorf("no charts found")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		st    *store.Store
		runID string
	)
	if checkRecord {
		st, err = store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				log.Printf("failed to close db: %v", cerr)
			}
		}()
		runID = st.NewRunID()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var results []checkResult
	for r := range checkAll(ctx, srcs, checkWorkers) {
		if st != nil {
			if err := recordResult(ctx, st, runID, &r); err != nil {
				return err
			}
		}
		if !r.OK() && checkSaveFailures {
			if err := Fail(checkFailDir, r.Stage, r.Name, r.input, failureReport(r)); err != nil {
				log.Printf("failed to save %s: %v", r.Name, err)
			}
		}
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	failed, err := writeResults(cmd.OutOrStdout(), format, results)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if runID != "" {
		log.Printf("recorded run %s", runID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d charts failed the round trip", failed, len(results))
	}
	return nil
}

// checkAll fans srcs out to workers and streams their results.
// The channel is closed once every source has been checked, or soon after
// ctx is cancelled; results not yet sent by then are dropped.
func checkAll(ctx context.Context, srcs []source, workers int) <-chan checkResult {
	jobs := make(chan source)
	results := make(chan checkResult)
	wg := sync.WaitGroup{}
	for i := 0; i < min(workers, len(srcs)); i++ {
		wg.Add(1)
		Run(func() {
			defer wg.Done()
			for src := range jobs {
				select {
				case results <- checkSource(src):
				case <-ctx.Done():
					return
				}
			}
		})
	}
	Run(func() {
		defer close(jobs)
		for _, src := range srcs {
			select {
			case jobs <- src:
			case <-ctx.Done():
				return
			}
		}
	})
	Run(func() {
		wg.Wait()
		close(results)
	})
	return results
}

func checkSource(src source) checkResult {
	start := time.Now()
	r := checkResult{Name: src.Name}
	err := Guard(func() error {
		data, err := src.Read()
		if err != nil {
			r.Stage = "read"
			return err
		}
		r.input = data
		sum := sha256.Sum256(data)
		r.SHA256 = hex.EncodeToString(sum[:])
		return checkBytes(&r, data)
	})
	if err != nil {
		if r.Stage == "" {
			r.Stage = "panic"
		}
		r.Error = err.Error()
	}
	r.Duration = time.Since(start)
	return r
}

func checkBytes(r *checkResult, data []byte) error {
	original, err := dotosu.Decode(bytes.NewReader(data))
	if err != nil {
		r.Stage = "decode"
		return err
	}
	r.FormatVersion = original.FormatVersion

	var buf bytes.Buffer
	if err := dotosu.Encode(&buf, original, nil); err != nil {
		r.Stage = "encode"
		return err
	}
	back, err := dotosu.Decode(&buf)
	if err != nil {
		r.Stage = "redecode"
		return err
	}
	if diff := roundtrip.Diff(original, back); len(diff) > 0 {
		r.Stage = "diff"
		r.Diff = diff
	}
	return nil
}

// recordResult stores r and notes when its content changed outcome since the last run.
func recordResult(ctx context.Context, st *store.Store, runID string, r *checkResult) error {
	if r.SHA256 != "" {
		prev, ok, err := st.LastBySHA(ctx, r.SHA256)
		if err != nil {
			return err
		}
		switch {
		case ok && prev.OK && !r.OK():
			r.Note = "regressed since " + prev.RunID
		case ok && !prev.OK && r.OK():
			r.Note = "fixed since " + prev.RunID
		}
	}
	_, err := st.Record(ctx, store.Check{
		RunID:         runID,
		Path:          r.Name,
		SHA256:        r.SHA256,
		FormatVersion: r.FormatVersion,
		OK:            r.OK(),
		DiffCount:     len(r.Diff),
		Error:         firstLine(r.Error),
		Duration:      r.Duration,
	})
	return err
}

func failureReport(r checkResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nstage: %s\nsha256: %s\n", r.Name, r.Stage, r.SHA256)
	if r.Error != "" {
		fmt.Fprintf(&sb, "\n%s\n", r.Error)
	}
	for _, d := range r.Diff {
		fmt.Fprintf(&sb, "%s\n", d)
	}
	return sb.String()
}

const (
	formatColor = "color"
	formatPlain = "plain"
	formatJSON  = "json"
)

func resolveFormat(format string, out *os.File) (string, error) {
	switch format {
	case "auto":
		if term.IsTerminal(int(out.Fd())) {
			return formatColor, nil
		}
		return formatPlain, nil
	case formatColor, formatPlain, formatJSON:
		return format, nil
	}
	return "", fmt.Errorf("unknown format %q", format)
}

func writeResults(w io.Writer, format string, results []checkResult) (int, error) {
	failed := 0
	var enc *json.Encoder
	if format == formatJSON {
		enc = json.NewEncoder(w)
	}
	for _, r := range results {
		if !r.OK() {
			failed++
		}
		var err error
		if enc != nil {
			err = enc.Encode(r)
		} else {
			_, err = io.WriteString(w, renderResult(r, format == formatColor))
		}
		if err != nil {
			return failed, err
		}
	}
	if enc == nil {
		summary := fmt.Sprintf("%d charts, %d passed, %d failed\n", len(results), len(results)-failed, failed)
		if _, err := io.WriteString(w, summary); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func renderResult(r checkResult, color bool) string {
	status, note := "PASS", ""
	if !r.OK() {
		status = "FAIL"
	}
	if r.Note != "" {
		note = " (" + r.Note + ")"
	}
	if color {
		if r.OK() {
			status = passStyle.Render(status)
		} else {
			status = failStyle.Render(status)
		}
		note = noteStyle.Render(note)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s%s\n", status, r.Name, note)
	if r.Error != "" {
		fmt.Fprintf(&sb, "    %s: %s\n", r.Stage, firstLine(r.Error))
	}
	for _, d := range r.Diff {
		fmt.Fprintf(&sb, "    %s\n", d)
	}
	return sb.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
