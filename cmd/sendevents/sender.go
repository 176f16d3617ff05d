package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hstefan/energy-sensors/internal/infrastructure/logging"
)

// maxLineBytes is the longest telegram readLines accepts.
const maxLineBytes = 1 << 20

// ErrFailures is returned when at least one line could not be sent.
var ErrFailures = errors.New("sendevents: some events failed")

// Line is one non-blank input line. Number is 1-based.
type Line struct {
	Number int
	Text   string
}

// Report counts the outcome of a replay.
type Report struct {
	Sent   int
	Failed int
}

// Sender posts telegrams to the API.
type Sender struct {
	client      *http.Client
	token       string
	concurrency int
	logger      *logging.Logger
	out         io.Writer
}

// readLines returns the non-blank lines of path with trailing CR removed.
func readLines(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	var lines []Line
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for n := 1; sc.Scan(); n++ {
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, Line{Number: n, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}

// Store posts each line to storeURL as text/plain.
func (s *Sender) Store(ctx context.Context, storeURL string, lines []Line) Report {
	return s.each(ctx, lines, func(ctx context.Context, l Line) error {
		_, err := s.post(ctx, storeURL, "text/plain", []byte(l.Text), true)
		return err
	})
}

// Distributed posts each line to parseURL and the resulting document to
// storeURL as application/json.
func (s *Sender) Distributed(ctx context.Context, parseURL, storeURL string, lines []Line) Report {
	return s.each(ctx, lines, func(ctx context.Context, l Line) error {
		doc, err := s.post(ctx, parseURL, "text/plain", []byte(l.Text), false)
		if err != nil {
			return fmt.Errorf("parsing: %w", err)
		}
		if _, err := s.post(ctx, storeURL, "application/json", doc, true); err != nil {
			return fmt.Errorf("storing: %w", err)
		}
		return nil
	})
}

// each runs send for every line with bounded concurrency. A failed line
// is logged and counted; it does not stop the others.
func (s *Sender) each(ctx context.Context, lines []Line, send func(context.Context, Line) error) Report {
	var sent, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, l := range lines {
		if gctx.Err() != nil {
			failed.Add(1)
			continue
		}
		g.Go(func() error {
			if err := send(gctx, l); err != nil {
				failed.Add(1)
				s.logger.Warn("event failed", "line", l.Number, "error", err)
				return nil
			}
			sent.Add(1)
			s.logger.Debug("event sent", "line", l.Number)
			return nil
		})
	}
	//nolint:errcheck // workers never return errors
	g.Wait()

	return Report{Sent: int(sent.Load()), Failed: int(failed.Load())}
}

// post sends body and returns the response body. Non-2xx responses are
// errors carrying the API's error message when there is one.
func (s *Sender) post(ctx context.Context, url, contentType string, body []byte, authorise bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if authorise && s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		}
		return nil, fmt.Errorf("%s", resp.Status)
	}
	return data, nil
}

// finish prints the report and turns failures into an error.
func (s *Sender) finish(r Report) error {
	fmt.Fprintf(s.out, "sent %d events, %d failed\n", r.Sent, r.Failed)
	if r.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFailures, r.Failed, r.Sent+r.Failed)
	}
	return nil
}
