package orchestrator_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shellac/internal/config"
	"shellac/internal/episode"
	"shellac/internal/fingerprint"
	"shellac/internal/ledger"
	"shellac/internal/logging"
	"shellac/internal/orchestrator"
	"shellac/internal/services"
	"shellac/internal/sources"
	"shellac/internal/testsupport"
)

type fakeEnumerator struct {
	name   string
	tracks []sources.Track
	err    error
}

func (f *fakeEnumerator) Name() string { return f.name }

func (f *fakeEnumerator) ListTracks(context.Context) ([]sources.Track, error) {
	return f.tracks, f.err
}

type fakeAssembler struct {
	cfg     *config.Config
	errFor  map[string]error
	called  []string
	t       *testing.T
	baseErr error
}

func (f *fakeAssembler) Assemble(_ context.Context, ep episode.Episode) (string, error) {
	f.called = append(f.called, ep.Title)
	if f.baseErr != nil {
		return "", f.baseErr
	}
	if err := f.errFor[ep.Title]; err != nil {
		return "", err
	}
	artifact := ep.TempPath(f.cfg.Paths.TempDir)
	testsupport.WriteAudioStub(f.t, artifact, 4096)
	return artifact, nil
}

type fakeMatcher struct {
	verdicts  map[string]fingerprint.Verdict
	findErr   error
	indexed   map[string]struct{}
	committed []string
	commitErr error
}

func (f *fakeMatcher) FindDuplicate(_ context.Context, artifactPath string) (fingerprint.Verdict, error) {
	if f.findErr != nil {
		return fingerprint.Verdict{}, f.findErr
	}
	if v, ok := f.verdicts[filepath.Base(artifactPath)]; ok {
		return v, nil
	}
	return fingerprint.Verdict{Kind: fingerprint.VerdictNoDuplicate, Samples: 6}, nil
}

func (f *fakeMatcher) IsIndexed(path string) (bool, error) {
	_, ok := f.indexed[path]
	return ok, nil
}

func (f *fakeMatcher) Commit(_ context.Context, finalPath string) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, finalPath)
	return nil
}

type harness struct {
	cfg     *config.Config
	store   *ledger.Store
	asm     *fakeAssembler
	matcher *fakeMatcher
	orch    *orchestrator.Orchestrator
}

func newHarness(t *testing.T) *harness {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	asm := &fakeAssembler{cfg: cfg, t: t, errFor: map[string]error{}}
	matcher := &fakeMatcher{verdicts: map[string]fingerprint.Verdict{}, indexed: map[string]struct{}{}}
	return &harness{
		cfg:     cfg,
		store:   store,
		asm:     asm,
		matcher: matcher,
		orch:    orchestrator.New(cfg, store, asm, matcher, logging.NewNop()),
	}
}

func track(title, ref string, minutes int) sources.Track {
	return sources.Track{
		Title:     title,
		SourceRef: ref,
		Duration:  time.Duration(minutes) * time.Minute,
	}
}

func TestRunArchivesNewEpisode(t *testing.T) {
	h := newHarness(t)
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Der Fuchs: 1. Teil", "ref-1", 14),
		track("Der Fuchs: 2. Teil", "ref-2", 13),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{enum})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Archived != 1 || summary.Total != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	finalPath := filepath.Join(h.cfg.Paths.ArchiveDir, "Der Fuchs.mp3")
	if _, err := os.Stat(finalPath); err != nil {
		t.Fatalf("expected promoted artifact: %v", err)
	}
	if len(h.matcher.committed) != 1 || h.matcher.committed[0] != finalPath {
		t.Fatalf("fingerprint must be committed for the final path, got %v", h.matcher.committed)
	}

	items, err := h.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Status != ledger.StatusArchived {
		t.Fatalf("unexpected ledger state: %#v", items)
	}
	if items[0].Parts != 2 {
		t.Fatalf("expected 2 parts recorded, got %d", items[0].Parts)
	}
}

func TestRunRegistersConfirmedDuplicate(t *testing.T) {
	h := newHarness(t)
	h.matcher.verdicts["Die Eule (Wiederholung).mp3"] = fingerprint.Verdict{
		Kind:           fingerprint.VerdictDuplicate,
		CanonicalTitle: "Die Eule",
		Samples:        6,
	}
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Die Eule (Wiederholung)", "ref-1", 27),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{enum})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Duplicate != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	canonical, ok, err := h.store.LookupDuplicate(context.Background(), "Die Eule (Wiederholung)")
	if err != nil || !ok || canonical != "Die Eule" {
		t.Fatalf("registry not updated: %q %v %v", canonical, ok, err)
	}
	// temp artifact discarded, nothing promoted, nothing committed
	if _, err := os.Stat(filepath.Join(h.cfg.Paths.TempDir, "Die Eule (Wiederholung).mp3")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("duplicate temp artifact should be removed")
	}
	if len(h.matcher.committed) != 0 {
		t.Fatalf("duplicates must not be committed to the index, got %v", h.matcher.committed)
	}
}

func TestRunSkipsKnownDuplicateWithoutDownloading(t *testing.T) {
	h := newHarness(t)
	if err := h.store.RegisterDuplicate(context.Background(), "Die Eule (Wiederholung)", "Die Eule"); err != nil {
		t.Fatalf("RegisterDuplicate: %v", err)
	}
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Die Eule (Wiederholung)", "ref-1", 27),
	}}

	summary, err := h.orch.Run(context.Background(), "run-2", []sources.Enumerator{enum})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.KnownDuplicate != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if len(h.asm.called) != 0 {
		t.Fatalf("known duplicate must not be downloaded, got %v", h.asm.called)
	}
}

func TestRunSkipsAlreadyArchivedEpisode(t *testing.T) {
	h := newHarness(t)
	finalPath := filepath.Join(h.cfg.Paths.ArchiveDir, "Der Fuchs.mp3")
	testsupport.WriteAudioStub(t, finalPath, 4096)
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Der Fuchs", "ref-1", 20),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{enum})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.AlreadyArchived != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if len(h.asm.called) != 0 {
		t.Fatalf("archived episode must not be downloaded, got %v", h.asm.called)
	}
}

func TestRunTreatsIndexedPathAsArchived(t *testing.T) {
	h := newHarness(t)
	finalPath := filepath.Join(h.cfg.Paths.ArchiveDir, "Der Fuchs.mp3")
	h.matcher.indexed[finalPath] = struct{}{}
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Der Fuchs", "ref-1", 20),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{enum})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.AlreadyArchived != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestRunIsolatesEpisodeFailures(t *testing.T) {
	h := newHarness(t)
	h.asm.errFor["Der Sturm"] = services.Wrap(services.ErrTransient, "assembler", "download", "Der Sturm", errors.New("network"))
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Der Sturm", "ref-1", 20),
		track("Die Ruhe", "ref-2", 20),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{enum})
	if err != nil {
		t.Fatalf("Run must survive an episode failure: %v", err)
	}
	if summary.Failed != 1 || summary.Archived != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	failures, err := h.store.List(context.Background(), ledger.StatusFailed)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(failures) != 1 || failures[0].Title != "Der Sturm" {
		t.Fatalf("unexpected failure rows: %#v", failures)
	}
	if failures[0].ErrorMessage == "" {
		t.Fatal("failure must carry an error message")
	}
}

func TestRunAbortsOnConfigurationError(t *testing.T) {
	h := newHarness(t)
	h.asm.baseErr = services.Wrap(services.ErrConfiguration, "assembler", "download", "", errors.New("binary missing"))
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Der Sturm", "ref-1", 20),
		track("Die Ruhe", "ref-2", 20),
	}}

	_, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{enum})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error to abort the run, got %v", err)
	}
	if len(h.asm.called) != 1 {
		t.Fatalf("run should stop after the fatal episode, got %v", h.asm.called)
	}
}

func TestRunArchivesInconclusiveVerdict(t *testing.T) {
	h := newHarness(t)
	h.matcher.verdicts["Das Echo.mp3"] = fingerprint.Verdict{
		Kind:    fingerprint.VerdictInconclusive,
		Samples: 2,
	}
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Das Echo", "ref-1", 20),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{enum})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Archived != 1 {
		t.Fatalf("inconclusive verdicts must archive, got %#v", summary)
	}
}

func TestRunFailsEpisodeWhenCommitFails(t *testing.T) {
	h := newHarness(t)
	h.matcher.commitErr = errors.New("store confirmation missing")
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Der Fuchs", "ref-1", 20),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{enum})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("commit failure must fail the episode, got %#v", summary)
	}
	// the artifact stays promoted so a later backfill can commit it
	finalPath := filepath.Join(h.cfg.Paths.ArchiveDir, "Der Fuchs.mp3")
	if _, err := os.Stat(finalPath); err != nil {
		t.Fatalf("promoted artifact should remain: %v", err)
	}
	items, err := h.store.List(context.Background(), ledger.StatusFailed)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected one failed item: %v %v", items, err)
	}
	if items[0].ArtifactPath != finalPath {
		t.Fatalf("failed item should record promoted path, got %q", items[0].ArtifactPath)
	}
}

func TestRunProcessesTitleOnceAcrossSources(t *testing.T) {
	h := newHarness(t)
	first := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Der Fuchs", "ref-1", 20),
	}}
	second := &fakeEnumerator{name: "playlist", tracks: []sources.Track{
		track("Der Fuchs", "ref-9", 20),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{first, second})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("title must be processed once per run, got %#v", summary)
	}
	if len(h.asm.called) != 1 {
		t.Fatalf("expected a single download, got %v", h.asm.called)
	}
}

func TestRunSurvivesBrokenSource(t *testing.T) {
	h := newHarness(t)
	broken := &fakeEnumerator{name: "catalogue", err: errors.New("http 500")}
	healthy := &fakeEnumerator{name: "playlist", tracks: []sources.Track{
		track("Die Ruhe", "ref-2", 20),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{broken, healthy})
	if err != nil {
		t.Fatalf("Run must survive a broken source: %v", err)
	}
	if summary.Archived != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestRunArchivesEpisodeMatchingItself(t *testing.T) {
	h := newHarness(t)
	h.matcher.verdicts["Der Fuchs.mp3"] = fingerprint.Verdict{
		Kind:           fingerprint.VerdictDuplicate,
		CanonicalTitle: "Der Fuchs",
		Samples:        6,
	}
	enum := &fakeEnumerator{name: "catalogue", tracks: []sources.Track{
		track("Der Fuchs", "ref-1", 20),
	}}

	summary, err := h.orch.Run(context.Background(), "run-1", []sources.Enumerator{enum})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Archived != 1 || summary.Duplicate != 0 {
		t.Fatalf("a vote naming the episode itself must archive, got %#v", summary)
	}

	finalPath := filepath.Join(h.cfg.Paths.ArchiveDir, "Der Fuchs.mp3")
	if _, err := os.Stat(finalPath); err != nil {
		t.Fatalf("expected promoted artifact: %v", err)
	}
	if len(h.matcher.committed) != 1 || h.matcher.committed[0] != finalPath {
		t.Fatalf("self-matched episode must be committed, got %v", h.matcher.committed)
	}
	// no self alias in the registry, or the title would never download again
	if _, ok, err := h.store.LookupDuplicate(context.Background(), "Der Fuchs"); err != nil || ok {
		t.Fatalf("self alias must not be registered: %v %v", ok, err)
	}
}

func TestBackfillCommitsUnindexedFiles(t *testing.T) {
	h := newHarness(t)
	indexedPath := filepath.Join(h.cfg.Paths.ArchiveDir, "Alt.mp3")
	newPath := filepath.Join(h.cfg.Paths.ArchiveDir, "Neu.mp3")
	testsupport.WriteAudioStub(t, indexedPath, 4096)
	testsupport.WriteAudioStub(t, newPath, 4096)
	testsupport.WriteAudioStub(t, filepath.Join(h.cfg.Paths.ArchiveDir, "notes.txt"), 64)
	h.matcher.indexed[indexedPath] = struct{}{}

	count, err := h.orch.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 backfilled file, got %d", count)
	}
	if len(h.matcher.committed) != 1 || h.matcher.committed[0] != newPath {
		t.Fatalf("unexpected commits: %v", h.matcher.committed)
	}
}

func TestBackfillRegistersDuplicateBetweenArchivedFiles(t *testing.T) {
	h := newHarness(t)
	canonicalPath := filepath.Join(h.cfg.Paths.ArchiveDir, "Die Eule.mp3")
	aliasPath := filepath.Join(h.cfg.Paths.ArchiveDir, "Die Eule (Wiederholung).mp3")
	testsupport.WriteAudioStub(t, canonicalPath, 4096)
	testsupport.WriteAudioStub(t, aliasPath, 4096)
	h.matcher.verdicts["Die Eule (Wiederholung).mp3"] = fingerprint.Verdict{
		Kind:           fingerprint.VerdictDuplicate,
		CanonicalTitle: "Die Eule",
		Samples:        6,
	}

	count, err := h.orch.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("only the unique file should be committed, got %d", count)
	}
	if len(h.matcher.committed) != 1 || h.matcher.committed[0] != canonicalPath {
		t.Fatalf("unexpected commits: %v", h.matcher.committed)
	}
	canonical, ok, err := h.store.LookupDuplicate(context.Background(), "Die Eule (Wiederholung)")
	if err != nil || !ok || canonical != "Die Eule" {
		t.Fatalf("alias not registered: %q %v %v", canonical, ok, err)
	}
}

func TestBackfillCommitsFileMatchingItself(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.cfg.Paths.ArchiveDir, "Der Fuchs.mp3")
	testsupport.WriteAudioStub(t, path, 4096)
	h.matcher.verdicts["Der Fuchs.mp3"] = fingerprint.Verdict{
		Kind:           fingerprint.VerdictDuplicate,
		CanonicalTitle: "Der Fuchs",
		Samples:        6,
	}

	count, err := h.orch.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("a file matching itself must be committed, got %d", count)
	}
	if _, ok, err := h.store.LookupDuplicate(context.Background(), "Der Fuchs"); err != nil || ok {
		t.Fatalf("self alias must not be registered: %v %v", ok, err)
	}
}
