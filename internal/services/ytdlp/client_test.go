package ytdlp_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"shellac/internal/config"
	"shellac/internal/services/ytdlp"
)

type fakeExecutor struct {
	binary string
	args   []string
	stdout []string
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string, onStdout func(string)) error {
	f.binary = binary
	f.args = args
	for _, line := range f.stdout {
		if onStdout != nil {
			onStdout(line)
		}
	}
	return f.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func TestDownloadBuildsArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client, err := ytdlp.New(testConfig(), ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "Die Erpressung.mp3")
	meta := ytdlp.Metadata{Title: "Die Erpressung", Artist: "Philip Maloney"}
	if err := client.Download(context.Background(), "https://example.test/watch?v=abc", dest, meta); err != nil {
		t.Fatalf("download: %v", err)
	}

	if exec.binary != "yt-dlp" {
		t.Fatalf("unexpected binary: %s", exec.binary)
	}
	joined := strings.Join(exec.args, " ")
	if !strings.Contains(joined, "--no-playlist") {
		t.Fatalf("expected --no-playlist in args: %s", joined)
	}
	if !strings.Contains(joined, "--audio-format mp3") {
		t.Fatalf("expected audio format in args: %s", joined)
	}
	if !strings.Contains(joined, "Die Erpressung.%(ext)s") {
		t.Fatalf("expected derived output template in args: %s", joined)
	}
	if !strings.Contains(joined, "-metadata artist=Philip Maloney") {
		t.Fatalf("expected artist metadata in args: %s", joined)
	}
	if exec.args[len(exec.args)-1] != "https://example.test/watch?v=abc" {
		t.Fatalf("source ref should be the final argument: %s", joined)
	}
}

func TestDownloadPropagatesExecutorError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("network unreachable")}
	client, err := ytdlp.New(testConfig(), ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.Download(context.Background(), "ref", "/tmp/out.mp3", ytdlp.Metadata{})
	if err == nil || !strings.Contains(err.Error(), "network unreachable") {
		t.Fatalf("expected wrapped executor error, got %v", err)
	}
}

func TestPlaylistParsesJSONDump(t *testing.T) {
	exec := &fakeExecutor{stdout: []string{
		`{"entries": [`,
		`  {"id": "abc", "title": "Ep A: 1", "url": "https://example.test/watch?v=abc", "duration": 300.4},`,
		`  {"id": "def", "title": "Ep A: 2", "url": "https://example.test/watch?v=def", "duration": 412}`,
		`]}`,
	}}
	client, err := ytdlp.New(testConfig(), ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	entries, err := client.Playlist(context.Background(), "https://example.test/playlist?list=xyz")
	if err != nil {
		t.Fatalf("playlist: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "Ep A: 1" || entries[0].DurationSeconds != 300 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].URL != "https://example.test/watch?v=def" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	joined := strings.Join(exec.args, " ")
	if !strings.Contains(joined, "--dump-single-json") || !strings.Contains(joined, "--flat-playlist") {
		t.Fatalf("expected JSON dump args: %s", joined)
	}
}

func TestPlaylistRejectsMalformedDump(t *testing.T) {
	exec := &fakeExecutor{stdout: []string{"not json"}}
	client, err := ytdlp.New(testConfig(), ytdlp.WithExecutor(exec))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Playlist(context.Background(), "url"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
