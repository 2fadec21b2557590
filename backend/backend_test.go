package backend

import (
	"slices"
	"testing"
)

type fakeBackend struct{ name string }

func (b *fakeBackend) Name() string                      { return b.name }
func (b *fakeBackend) NewLibrary(Config) (Library, error) { return nil, ErrBackendNotAvailable }

// withRegistry swaps the registry for the duration of a test.
func withRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := backends
	backends = make(map[string]BackendFactory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	})
}

func TestRegisterGet(t *testing.T) {
	withRegistry(t)

	Register("fake", func() Backend { return &fakeBackend{name: "fake"} })
	if !IsRegistered("fake") {
		t.Fatal("IsRegistered(fake) = false after Register")
	}
	b := Get("fake")
	if b == nil || b.Name() != "fake" {
		t.Fatalf("Get(fake) = %v", b)
	}
	if Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}

	Unregister("fake")
	if IsRegistered("fake") {
		t.Error("IsRegistered(fake) = true after Unregister")
	}
}

func TestDefaultPriority(t *testing.T) {
	withRegistry(t)

	Register("zzz", func() Backend { return &fakeBackend{name: "zzz"} })
	Register(BackendNative, func() Backend { return &fakeBackend{name: BackendNative} })

	if got := Default().Name(); got != BackendNative {
		t.Errorf("Default() = %q, want %q", got, BackendNative)
	}

	Register(BackendLibass, func() Backend { return &fakeBackend{name: BackendLibass} })
	if got := Default().Name(); got != BackendLibass {
		t.Errorf("Default() = %q, want %q", got, BackendLibass)
	}
}

func TestDefaultSkipsCompiledOut(t *testing.T) {
	withRegistry(t)

	// The libass stub registers a nil factory when built without the tag.
	Register(BackendLibass, func() Backend { return nil })
	Register(BackendNative, func() Backend { return &fakeBackend{name: BackendNative} })

	if got := Default().Name(); got != BackendNative {
		t.Errorf("Default() = %q, want %q", got, BackendNative)
	}
	if got := Available(); !slices.Equal(got, []string{BackendNative}) {
		t.Errorf("Available() = %v, want [%s]", got, BackendNative)
	}
	if Get(BackendLibass) != nil {
		t.Error("Get(libass) should be nil for a compiled-out backend")
	}
}

func TestDefaultFallback(t *testing.T) {
	withRegistry(t)

	if Default() != nil {
		t.Fatal("Default() on empty registry should be nil")
	}

	Register("beta", func() Backend { return &fakeBackend{name: "beta"} })
	Register("alpha", func() Backend { return &fakeBackend{name: "alpha"} })
	if got := Default().Name(); got != "alpha" {
		t.Errorf("Default() = %q, want alpha", got)
	}
}
