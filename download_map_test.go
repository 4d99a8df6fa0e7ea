package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/levigross/grequests"
)

type fakeResponse struct {
	body   string
	status int
	err    error
}

func fakeDownloader(t *testing.T, responses ...fakeResponse) (*downloader, *[]time.Duration, *int) {
	t.Helper()
	th := newThrottle(60000, 1)
	t.Cleanup(th.Stop)
	d := newDownloader(th, "")
	var slept []time.Duration
	calls := 0
	d.sleep = func(wait time.Duration) { slept = append(slept, wait) }
	d.get = func(_ context.Context, _ string, _ *grequests.RequestOptions) ([]byte, int, error) {
		r := responses[min(calls, len(responses)-1)]
		calls++
		return []byte(r.body), r.status, r.err
	}
	return d, &slept, &calls
}

func TestDownloadRetriesWhenRateLimited(t *testing.T) {
	d, slept, calls := fakeDownloader(t,
		fakeResponse{body: "Slow down, play more.", status: 200},
		fakeResponse{status: 429},
		fakeResponse{body: minimalChart, status: 200},
	)
	data, err := d.Chart(context.Background(), 1)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != minimalChart || *calls != 3 {
		t.Errorf("data=%q calls=%d", data, *calls)
	}
	if len(*slept) != 2 || (*slept)[0] != time.Minute || (*slept)[1] < time.Minute {
		t.Errorf("backoff = %v", *slept)
	}
	if d.rateLimitedFrom.Load() != nil {
		t.Error("rate limit not cleared after a success")
	}
}

func TestDownloadGivesUp(t *testing.T) {
	d, _, calls := fakeDownloader(t, fakeResponse{status: 404})
	_, err := d.Chart(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("err = %v", err)
	}
	if *calls != maxAttempts {
		t.Errorf("calls = %d", *calls)
	}
}

func TestDownloadStopsOnCancel(t *testing.T) {
	d, _, calls := fakeDownloader(t, fakeResponse{err: errors.New("connection refused")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Chart(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if *calls != 0 {
		t.Errorf("requested %d times after cancel", *calls)
	}
}

func TestBeatmapsetNeedsSession(t *testing.T) {
	d, _, _ := fakeDownloader(t, fakeResponse{status: 200, body: "x"})
	if _, err := d.Beatmapset(context.Background(), 1); err == nil {
		t.Error("set download without a session accepted")
	}
}

func TestFetchAll(t *testing.T) {
	d, _, _ := fakeDownloader(t, fakeResponse{body: minimalChart, status: 200})
	dir := t.TempDir()
	var said []string
	errs := fetchAll(context.Background(), d, []int{7, 8}, dir, false, false, func(s string) { said = append(said, s) })
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(said) != 2 {
		t.Fatalf("messages: %v", said)
	}
	errs = fetchAll(context.Background(), d, []int{7}, dir, false, false, func(s string) { said = append(said, s) })
	if len(errs) != 0 || !strings.Contains(said[2], "already downloaded") {
		t.Errorf("second fetch: %v %v", errs, said)
	}

	bad, _, _ := fakeDownloader(t, fakeResponse{body: "<html>", status: 200})
	errs = fetchAll(context.Background(), bad, []int{9}, dir, false, false, func(string) {})
	if len(errs) != 1 {
		t.Errorf("undecodable download accepted: %v", errs)
	}
}

func TestThrottleWindow(t *testing.T) {
	th := newThrottle(2, 1)
	defer th.Stop()
	now := time.Now()
	if !th.allow(now) || !th.allow(now) {
		t.Fatal("first attempts refused")
	}
	if th.allow(now.Add(time.Second)) {
		t.Error("third attempt inside the window allowed")
	}
	if !th.allow(now.Add(cooldown + time.Second)) {
		t.Error("attempt after the window refused")
	}

	release := th.GetToken()
	select {
	case <-th.concurrentReqs:
		t.Error("second token handed out")
	default:
	}
	release()
}
