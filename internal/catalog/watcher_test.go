package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/grampsxml/internal/storage"
)

// watcherTestEnv sets up an archive dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewFileCataloged(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, docAnalyzer{}, dir, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	if err := store.Write("new.gramps", []byte(syncArchive)); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.gramps")
		return cs != ""
	}, "new archive not cataloged by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.gramps" {
				return true
			}
		}
		return false
	}, "expected created:new.gramps callback")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, docAnalyzer{}, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "marker.xml"), []byte(syncArchive), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("marker.xml")
		return cs != ""
	}, "marker archive not cataloged")

	sums, _ := db.AllChecksums()
	if _, ok := sums["notes.txt"]; ok {
		t.Error("non-archive file cataloged")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, docAnalyzer{}, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(dir, "subdir")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.gramps"), []byte(syncArchive), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("subdir/deep.gramps")
		return cs != ""
	}, "archive in new subdir not cataloged by watcher")
}

func TestWatcher_DeleteRemovesFromCatalog(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "del.gramps"), []byte(syncArchive), 0o644)
	_ = Sync(db, store, docAnalyzer{}, quietLogger())

	if cs, _ := db.GetChecksum("del.gramps"); cs == "" {
		t.Fatal("precondition: archive should be cataloged")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, docAnalyzer{}, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "del.gramps"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.gramps")
		return cs == ""
	}, "deleted archive still in catalog")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "old.gramps"), []byte(syncArchive), 0o644)
	_ = Sync(db, store, docAnalyzer{}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, docAnalyzer{}, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(dir, "old.gramps"), filepath.Join(dir, "renamed.gramps"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.gramps")
		newCS, _ := db.GetChecksum("renamed.gramps")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path cataloged")
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	if err := Index(db, docAnalyzer{}, "known.gramps", []byte(syncArchive)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, docAnalyzer{}, dir, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	// Same bytes as the catalog already holds, then a marker file.
	if err := store.Write("known.gramps", []byte(syncArchive)); err != nil {
		t.Fatal(err)
	}
	if err := store.Write("marker.gramps", []byte(syncArchive)); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:marker.gramps" {
				return true
			}
		}
		return false
	}, "expected created:marker.gramps callback")

	mu.Lock()
	defer mu.Unlock()
	for _, e := range events {
		if e == "updated:known.gramps" || e == "created:known.gramps" {
			t.Errorf("unchanged archive announced: %v", events)
		}
	}
}
