package transport

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// progressTransport reports how much of each request body the underlying
// transport has written. The multipart body is assembled in memory before
// the request starts, so counting reads here tracks the network send.
type progressTransport struct {
	base     http.RoundTripper
	callback ProgressCallback
}

func (t *progressTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body == nil || req.Body == http.NoBody || req.ContentLength <= 0 {
		return t.base.RoundTrip(req)
	}
	out := req.Clone(req.Context())
	out.Body = &progressReader{body: req.Body, total: req.ContentLength, callback: t.callback}
	return t.base.RoundTrip(out)
}

// progressReader wraps a request body and reports how much has been read.
type progressReader struct {
	body     io.ReadCloser
	total    int64
	read     int64
	callback ProgressCallback
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.body.Read(p)

	if n > 0 {
		pr.read += int64(n)
		if pr.callback != nil {
			percentage := 100.0
			if pr.total > 0 {
				percentage = float64(pr.read) / float64(pr.total) * 100
			}
			if percentage > 100 {
				percentage = 100
			}
			pr.callback(pr.read, pr.total, percentage)
		}
	}

	return n, err
}

func (pr *progressReader) Close() error {
	return pr.body.Close()
}

// ConsoleProgress draws a single-line progress bar on out.
type ConsoleProgress struct {
	mu          sync.Mutex
	out         io.Writer
	description string
	startTime   time.Time
	lastPrint   time.Time
	lastLineLen int
	finished    bool
}

// NewConsoleProgress creates a progress line for the given description.
func NewConsoleProgress(out io.Writer, description string) *ConsoleProgress {
	now := time.Now()
	return &ConsoleProgress{
		out:         out,
		description: description,
		startTime:   now,
		lastPrint:   now.Add(-time.Second),
	}
}

// Update is a ProgressCallback. Redraws at most every 200ms, and always on
// completion.
func (cp *ConsoleProgress) Update(sent, total int64, percentage float64) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if cp.finished {
		return
	}

	now := time.Now()
	done := sent >= total
	if !done && now.Sub(cp.lastPrint) < 200*time.Millisecond {
		return
	}
	cp.lastPrint = now
	cp.print(sent, total, percentage)

	if done {
		cp.finished = true
		fmt.Fprintln(cp.out)
	}
}

// Close ends the line if the upload stopped before completion.
func (cp *ConsoleProgress) Close() error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if !cp.finished && cp.lastLineLen > 0 {
		fmt.Fprintln(cp.out)
	}
	cp.finished = true
	return nil
}

func (cp *ConsoleProgress) print(sent, total int64, percentage float64) {
	var speed string
	elapsed := time.Since(cp.startTime)
	if elapsed.Seconds() > 0.1 {
		bytesPerSec := float64(sent) / elapsed.Seconds()
		speed = fmt.Sprintf(" %s/s", FormatBytes(int64(bytesPerSec)))
	}

	barWidth := 40
	filled := int(percentage * float64(barWidth) / 100)
	if filled > barWidth {
		filled = barWidth
	}
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled) + "]"

	line := fmt.Sprintf("%s %s %.1f%% (%s/%s)%s",
		cp.description,
		bar,
		percentage,
		FormatBytes(sent),
		FormatBytes(total),
		speed)

	if cp.lastLineLen > len(line) {
		fmt.Fprintf(cp.out, "\r%s\r", strings.Repeat(" ", cp.lastLineLen))
	}
	fmt.Fprintf(cp.out, "\r%s", line)
	cp.lastLineLen = len(line)
}

// FormatBytes formats a byte count in human readable form.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
