package runlock_test

import (
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"videomixer/internal/encodejob"
	"videomixer/internal/runlock"
)

var _ encodejob.Locker = (*flock.Flock)(nil)

func TestLockIsExclusiveAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videomixer.lock")
	first, err := runlock.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second, err := runlock.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ok, err := first.TryLock()
	if err != nil || !ok {
		t.Fatalf("first TryLock = %v, %v", ok, err)
	}
	ok, err = second.TryLock()
	if err != nil || ok {
		t.Fatalf("second TryLock = %v, %v; want busy", ok, err)
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	ok, err = second.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock after release = %v, %v", ok, err)
	}
	_ = second.Unlock()
}

func TestWithLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "videomixer.lock")
	holder, err := runlock.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ok, _ := holder.TryLock(); !ok {
		t.Fatal("holder should acquire the lock")
	}
	other, _ := runlock.New(path)
	called := false
	ran, err := runlock.WithLock(other, func() error { called = true; return nil })
	if err != nil || ran || called {
		t.Fatalf("WithLock while held = %v, %v (called %v)", ran, err, called)
	}
	_ = holder.Unlock()

	ran, err = runlock.WithLock(other, func() error { called = true; return nil })
	if err != nil || !ran || !called {
		t.Fatalf("WithLock when free = %v, %v (called %v)", ran, err, called)
	}
	if other.Locked() {
		t.Fatal("WithLock should release the lock")
	}
}
