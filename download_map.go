package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/levigross/grequests"
)

const (
	chartURL       = "https://osu.ppy.sh/osu/%d"
	beatmapsetURL  = "https://osu.ppy.sh/beatmapsets/%d/download"
	userAgent      = "osucodec/1 (+https://github.com/osucodec)"
	requestTimeout = 10 * time.Minute
	maxAttempts    = 5
)

var errRateLimited = errors.New("rate limited")

// downloader fetches charts and beatmapsets from the osu! website.
type downloader struct {
	throttle *throttle
	// session is the osu_session cookie; beatmapset downloads need one.
	session string

	rateLimitedFrom atomic.Pointer[time.Time]

	get   func(ctx context.Context, url string, ro *grequests.RequestOptions) ([]byte, int, error)
	sleep func(time.Duration)
}

func newDownloader(t *throttle, session string) *downloader {
	return &downloader{
		throttle: t,
		session:  session,
		get:      httpGet,
		sleep:    time.Sleep,
	}
}

func httpGet(ctx context.Context, url string, ro *grequests.RequestOptions) ([]byte, int, error) {
	ro.Context = ctx
	resp, err := grequests.Get(url, ro)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Close()
	return resp.Bytes(), resp.StatusCode, nil
}

// rateLimited returns how long to back off. Repeated limits without a
// successful request in between back off for as long as the limit has lasted.
func (d *downloader) rateLimited() time.Duration {
	lastLimit := d.rateLimitedFrom.Load()
	now := time.Now()
	d.rateLimitedFrom.CompareAndSwap(nil, &now)
	if lastLimit != nil {
		return max(time.Minute, time.Since(*lastLimit))
	}
	return time.Minute
}

// Chart downloads a single .osu file by beatmap id.
func (d *downloader) Chart(ctx context.Context, id int) ([]byte, error) {
	return d.download(ctx, fmt.Sprintf(chartURL, id), nil)
}

// Beatmapset downloads a whole .osz archive by beatmapset id.
func (d *downloader) Beatmapset(ctx context.Context, id int) ([]byte, error) {
	if d.session == "" {
		return nil, fmt.Errorf("beatmapset %d: downloading sets needs an osu_session cookie", id)
	}
	headers := map[string]string{
		"Referer": fmt.Sprintf("https://osu.ppy.sh/beatmapsets/%d", id),
	}
	return d.download(ctx, fmt.Sprintf(beatmapsetURL, id), headers)
}

func (d *downloader) download(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	done := d.throttle.GetToken()
	defer done()

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.throttle.Throttle()
		body, err := d.fetch(ctx, url, headers)
		if err == nil {
			d.rateLimitedFrom.Store(nil)
			return body, nil
		}
		lastErr = err
		switch {
		case errors.Is(err, errRateLimited), strings.Contains(err.Error(), "connection refused"):
			wait := d.rateLimited()
			log.Printf("%s: %v, waiting %s", url, err, wait)
			d.sleep(wait)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			log.Printf("%s: %v", url, err)
			d.sleep(time.Second)
		}
	}
	return nil, fmt.Errorf("%s: giving up after %d attempts: %w", url, maxAttempts, lastErr)
}

func (d *downloader) fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	ro := &grequests.RequestOptions{
		UserAgent:      userAgent,
		RequestTimeout: requestTimeout,
		Headers:        headers,
	}
	if d.session != "" {
		ro.Cookies = []*http.Cookie{{Name: "osu_session", Value: d.session}}
	}
	body, status, err := d.get(ctx, url, ro)
	if err != nil {
		return nil, err
	}
	if status == http.StatusTooManyRequests || bytes.Contains(body, []byte("Slow down, play more.")) {
		return nil, errRateLimited
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("status %d", status)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response")
	}
	return body, nil
}
