package speaker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func isRemote(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// progressWriter logs download progress at most every two seconds.
type progressWriter struct {
	total      int64
	downloaded int64
	lastLog    time.Time
	url        string
	log        zerolog.Logger
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	now := time.Now()
	if now.Sub(pw.lastLog) >= 2*time.Second || pw.downloaded >= pw.total {
		pw.lastLog = now
		pw.log.Info().
			Str("url", pw.url).
			Float64("percent", float64(pw.downloaded)/float64(pw.total)*100).
			Int64("downloaded_bytes", pw.downloaded).
			Int64("total_bytes", pw.total).
			Msg("Downloading model")
	}
	return n, nil
}

// cachePath maps a URL to a stable file in the cache directory. The
// artifact's own base name is kept so both the codec and the default
// label still come from it.
func (l Loader) cachePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid model URL: %w", err)
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." || filepath.Ext(base) == "" {
		return "", fmt.Errorf("model URL %q does not name an artifact file", rawURL)
	}
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(l.cacheDir(), hex.EncodeToString(sum[:6]), base), nil
}

// fetch downloads rawURL into the cache unless it is already there and
// returns the local path.
func (l Loader) fetch(ctx context.Context, rawURL string) (string, error) {
	dest, err := l.cachePath(rawURL)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dest); err == nil {
		l.Logger.Debug().Str("url", rawURL).Str("path", dest).Msg("Using cached model")
		return dest, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create models cache: %w", err)
	}

	tmpPath := dest + ".tmp"
	defer os.Remove(tmpPath)

	l.Logger.Info().Str("url", rawURL).Msg("Starting model download")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download model: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	var w io.Writer = out
	if resp.ContentLength > 0 {
		w = io.MultiWriter(out, &progressWriter{
			total:   resp.ContentLength,
			url:     rawURL,
			lastLog: time.Now(),
			log:     l.Logger,
		})
	} else {
		l.Logger.Warn().Str("url", rawURL).Msg("Content-Length not provided, progress tracking unavailable")
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to write model file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write model file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("failed to move model file: %w", err)
	}

	l.Logger.Info().Str("url", rawURL).Str("path", dest).Msg("Model downloaded successfully")
	return dest, nil
}
