package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"osucodec/dotosu"
)

var (
	fetchDir       string
	fetchSets      bool
	fetchRateLimit int
	fetchWorkers   int
	fetchForce     bool
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch ID...",
		Short: "Download charts (or whole beatmapsets with --set) and verify they decode",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFetchCmd,
	}
	cmd.Flags().StringVar(&fetchDir, "dir", ".", "download directory")
	cmd.Flags().BoolVar(&fetchSets, "set", false, "ids are beatmapset ids; needs OSU_SESSION")
	cmd.Flags().IntVar(&fetchRateLimit, "rate-limit", defaultRateLimit, "requests per minute")
	cmd.Flags().IntVar(&fetchWorkers, "workers", maxConcurrentRequests, "concurrent downloads")
	cmd.Flags().BoolVar(&fetchForce, "force", false, "download again even when the file exists")
	return cmd
}

func runFetchCmd(cmd *cobra.Command, args []string) error {
	applyStringConfig(cmd, "dir", &fetchDir, fileCfg.Fetch.Dir)
	applyIntConfig(cmd, "rate-limit", &fetchRateLimit, fileCfg.Fetch.RateLimit)
	applyIntConfig(cmd, "workers", &fetchWorkers, fileCfg.Fetch.Workers)

	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}

	t := newThrottle(fetchRateLimit, fetchWorkers)
	defer t.Stop()
	d := newDownloader(t, os.Getenv("OSU_SESSION"))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	errs := fetchAll(ctx, d, ids, fetchDir, fetchSets, fetchForce, func(msg string) {
		fmt.Fprintln(cmd.OutOrStdout(), msg)
	})
	return errors.Join(errs...)
}

// fetchAll downloads every id into dir, reporting progress through say.
func fetchAll(ctx context.Context, d *downloader, ids []int, dir string, sets, force bool, say func(string)) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, id := range ids {
		id := id
		wg.Add(1)
		Run(func() {
			defer wg.Done()
			msg, err := fetchOne(ctx, d, id, dir, sets, force)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			say(msg)
		})
	}
	wg.Wait()
	return errs
}

func fetchOne(ctx context.Context, d *downloader, id int, dir string, sets, force bool) (string, error) {
	ext, get := ".osu", d.Chart
	if sets {
		ext, get = ".osz", d.Beatmapset
	}
	path := filepath.Join(dir, strconv.Itoa(id)+ext)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Sprintf("%d already downloaded (%s)", id, path), nil
		}
	}

	data, err := get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("download %d: %w", id, err)
	}
	title, err := verifyDownload(data, sets)
	if err != nil {
		return "", fmt.Errorf("download %d: %w", id, err)
	}
	if err := writeFileAll(path, data); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d downloaded (%s), %s", id, title, humanize.Bytes(uint64(len(data)))), nil
}

// verifyDownload decodes what was downloaded and describes it.
func verifyDownload(data []byte, set bool) (string, error) {
	if !set {
		b, err := dotosu.Decode(bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		return b.Metadata.Artist + " - " + b.Metadata.Title + " [" + b.Metadata.Version + "]", nil
	}
	files, err := OpenSet(data)
	if err != nil {
		return "", err
	}
	var title string
	for name, f := range files {
		b, err := dotosu.Decode(bytes.NewReader(f))
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		title = b.Metadata.Artist + " - " + b.Metadata.Title
	}
	return fmt.Sprintf("%s, %d charts", title, len(files)), nil
}
