package bridge

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var sampleMarkup = "<mxfile><diagram>" + strings.Repeat("<mxCell/>", 300) + "</diagram></mxfile>"

type fakeSession struct {
	mu         sync.Mutex
	insertErr  error
	graphXML   string
	graphErr   error
	graphCalls int
	alive      bool
	onExport   func(format string) error
	exports    []string
	screenshot []byte
	closed     bool
}

func (f *fakeSession) Insert(ctx context.Context, code string) error { return f.insertErr }

func (f *fakeSession) GraphXML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.graphCalls++
	return f.graphXML, f.graphErr
}

func (f *fakeSession) TriggerExport(ctx context.Context, format string) error {
	f.mu.Lock()
	f.exports = append(f.exports, format)
	fn := f.onExport
	f.mu.Unlock()
	if fn != nil {
		return fn(format)
	}
	return nil
}

func (f *fakeSession) Alive(ctx context.Context) bool { return f.alive }

func (f *fakeSession) Screenshot(ctx context.Context, url string, w, h int) ([]byte, error) {
	return f.screenshot, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func testBridge(t *testing.T, session *fakeSession) *Bridge {
	t.Helper()
	return New(
		func(ctx context.Context) (Session, error) { return session, nil },
		Config{
			DownloadDir:   t.TempDir(),
			Cooldown:      time.Nanosecond,
			ExportTimeout: 100 * time.Millisecond,
			PollInterval:  10 * time.Millisecond,
			RetryPause:    time.Millisecond,
		},
		nil,
	)
}

func TestOpenTransitionsToActive(t *testing.T) {
	session := &fakeSession{alive: true}
	b := testBridge(t, session)
	require.Equal(t, StateClosed, b.State())

	require.NoError(t, b.Open(context.Background(), "flowchart TD\nA[Start]"))
	assert.Equal(t, StateActive, b.State())
}

func TestOpenFailureReturnsToClosed(t *testing.T) {
	b := New(
		func(ctx context.Context) (Session, error) { return nil, errors.New("no browser") },
		Config{DownloadDir: t.TempDir()}, nil)
	require.Error(t, b.Open(context.Background(), "flowchart TD"))
	assert.Equal(t, StateClosed, b.State())
}

func TestOpenInsertFailureClosesSession(t *testing.T) {
	session := &fakeSession{insertErr: errors.New("menu control not found")}
	b := testBridge(t, session)
	require.Error(t, b.Open(context.Background(), "flowchart TD"))
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, session.closed)
}

func TestReopenTearsDownPreviousSession(t *testing.T) {
	first := &fakeSession{alive: true}
	second := &fakeSession{alive: true}
	sessions := []*fakeSession{first, second}
	i := 0
	b := New(func(ctx context.Context) (Session, error) {
		s := sessions[i]
		i++
		return s, nil
	}, Config{DownloadDir: t.TempDir()}, nil)

	require.NoError(t, b.Open(context.Background(), "flowchart TD"))
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))
	assert.True(t, first.closed)
	assert.False(t, second.closed)
	assert.Equal(t, StateActive, b.State())
}

func TestExportWithoutSession(t *testing.T) {
	b := testBridge(t, &fakeSession{})
	_, err := b.Export(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestExportDirectMarkupPath(t *testing.T) {
	session := &fakeSession{alive: true, graphXML: sampleMarkup}
	b := testBridge(t, session)
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))

	got, err := b.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleMarkup, got)
	assert.Equal(t, StateActive, b.State())
	assert.Empty(t, session.exports, "fast path must not touch the UI")
}

func TestExportCooldownServesCachedMarkup(t *testing.T) {
	session := &fakeSession{alive: true, graphXML: sampleMarkup}
	b := New(
		func(ctx context.Context) (Session, error) { return session, nil },
		Config{DownloadDir: t.TempDir(), Cooldown: time.Hour}, nil)
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))

	_, err := b.Export(context.Background())
	require.NoError(t, err)
	_, err = b.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, session.graphCalls, "second export within cooldown must be served from cache")
}

func TestExportDeadSessionBecomesLost(t *testing.T) {
	session := &fakeSession{alive: false, graphXML: sampleMarkup}
	b := testBridge(t, session)
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))

	_, err := b.Export(context.Background())
	assert.ErrorIs(t, err, ErrSessionLost)
	assert.Equal(t, StateLost, b.State())

	// From Lost, export fails without even probing.
	_, err = b.Export(context.Background())
	assert.ErrorIs(t, err, ErrSessionLost)
	assert.Equal(t, 0, session.graphCalls)
}

func TestExportFallsBackToUIFlow(t *testing.T) {
	dir := t.TempDir()
	session := &fakeSession{alive: true, graphErr: errors.New("editor api unavailable")}
	session.onExport = func(format string) error {
		return os.WriteFile(filepath.Join(dir, "diagram.xml"), []byte(sampleMarkup), 0o644)
	}
	b := New(
		func(ctx context.Context) (Session, error) { return session, nil },
		Config{
			DownloadDir:   dir,
			Cooldown:      time.Nanosecond,
			ExportTimeout: time.Second,
			PollInterval:  10 * time.Millisecond,
			RetryPause:    time.Millisecond,
		}, nil)
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))

	got, err := b.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleMarkup, got)
	assert.Equal(t, []string{"xml"}, session.exports)
	assert.Equal(t, StateActive, b.State())
}

func TestExportIgnoresPartialDownloads(t *testing.T) {
	dir := t.TempDir()
	session := &fakeSession{alive: true, graphErr: errors.New("unavailable")}
	session.onExport = func(format string) error {
		if err := os.WriteFile(filepath.Join(dir, "diagram.xml.crdownload"), []byte(sampleMarkup), 0o644); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, "diagram.xml"), []byte(sampleMarkup), 0o644)
	}
	b := New(
		func(ctx context.Context) (Session, error) { return session, nil },
		Config{DownloadDir: dir, Cooldown: time.Nanosecond, ExportTimeout: time.Second, PollInterval: 10 * time.Millisecond, RetryPause: time.Millisecond}, nil)
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))

	got, err := b.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleMarkup, got)
}

func TestExportTimeoutRetriesOnceThenReportsActive(t *testing.T) {
	session := &fakeSession{alive: true, graphErr: errors.New("unavailable")}
	b := testBridge(t, session)
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))

	_, err := b.Export(context.Background())
	assert.ErrorIs(t, err, ErrExportTimeout)
	assert.Equal(t, []string{"xml", "xml"}, session.exports, "export flow retries exactly once")
	assert.Equal(t, StateActive, b.State(), "timed-out session is presumed usable")
}

func TestExportRejectsTinyMarkup(t *testing.T) {
	session := &fakeSession{alive: true, graphXML: "<mxfile/>"}
	b := testBridge(t, session)
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))

	_, err := b.Export(context.Background())
	assert.ErrorIs(t, err, ErrExportTimeout)
}

func TestCapturePNGFallsBackToViewerScreenshot(t *testing.T) {
	session := &fakeSession{
		alive:      true,
		graphXML:   sampleMarkup,
		screenshot: []byte("viewer-shot"),
	}
	b := testBridge(t, session)
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))

	png, err := b.CapturePNG(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("viewer-shot"), png)
	assert.Contains(t, session.exports, "png", "image export flow is attempted first")
}

func TestCloseIsTerminal(t *testing.T) {
	session := &fakeSession{alive: true}
	b := testBridge(t, session)
	require.NoError(t, b.Open(context.Background(), "flowchart TD"))
	require.NoError(t, b.Close())

	assert.True(t, session.closed)
	assert.Equal(t, StateClosed, b.State())
	_, err := b.Export(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestViewerURLRoundTrip(t *testing.T) {
	url, err := ViewerURL(sampleMarkup)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, viewerBase))

	payload := strings.TrimPrefix(url, viewerBase)
	compressed, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	fr := flate.NewReader(bytes.NewReader(compressed))
	defer fr.Close()
	plain, err := io.ReadAll(fr)
	require.NoError(t, err)
	assert.Equal(t, sampleMarkup, string(plain))
}
