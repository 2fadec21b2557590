package ggass

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/gogpu/ggass/backend"
)

var errStub = errors.New("stub: failure")

// stubState counts live resources and records calls of one stub backend.
type stubState struct {
	libs, renderers, tracks atomic.Int32

	failRenderer bool
	failFonts    bool

	mu     sync.Mutex
	images []backend.Image
	// changed is returned by RenderFrame alongside the images.
	changed int
	// gate, when set, blocks RenderFrame until closed.
	gate chan struct{}

	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (s *stubState) enter() {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	time.Sleep(50 * time.Microsecond)
}

func (s *stubState) leave() { s.inFlight.Add(-1) }

type stubBackend struct {
	name  string
	state *stubState
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) NewLibrary(backend.Config) (backend.Library, error) {
	b.state.libs.Add(1)
	return &stubLibrary{state: b.state}, nil
}

type stubLibrary struct{ state *stubState }

func (l *stubLibrary) NewRenderer() (backend.Renderer, error) {
	if l.state.failRenderer {
		return nil, errStub
	}
	l.state.renderers.Add(1)
	return &stubRenderer{state: l.state}, nil
}

func (l *stubLibrary) ReadTrack(data []byte) (backend.Track, error) {
	l.state.enter()
	defer l.state.leave()
	if bytes.HasPrefix(data, []byte("bad")) {
		return nil, errStub
	}
	l.state.tracks.Add(1)
	return &stubTrack{state: l.state}, nil
}

func (l *stubLibrary) AddFont(string, []byte) error { return nil }

func (l *stubLibrary) Close() error {
	l.state.libs.Add(-1)
	return nil
}

type stubRenderer struct {
	state *stubState
	w, h  int
}

func (r *stubRenderer) SetFrameSize(w, h int) { r.w, r.h = w, h }

func (r *stubRenderer) SetFonts(backend.FontConfig) error {
	if r.state.failFonts {
		return errStub
	}
	return nil
}

func (r *stubRenderer) RenderFrame(backend.Track, int64) (*backend.Image, int) {
	r.state.enter()
	defer r.state.leave()

	r.state.mu.Lock()
	gate := r.state.gate
	images := make([]backend.Image, len(r.state.images))
	copy(images, r.state.images)
	changed := r.state.changed
	r.state.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if len(images) == 0 {
		return nil, changed
	}
	for i := range images[:len(images)-1] {
		images[i].Next = &images[i+1]
	}
	return &images[0], changed
}

func (r *stubRenderer) Close() error {
	r.state.renderers.Add(-1)
	return nil
}

type stubTrack struct{ state *stubState }

func (t *stubTrack) Close() error {
	t.state.tracks.Add(-1)
	return nil
}

// registerStub registers a stub backend named after the test.
func registerStub(t *testing.T) (*stubState, string) {
	t.Helper()
	state := &stubState{}
	name := "stub-" + t.Name()
	backend.Register(name, func() backend.Backend {
		return &stubBackend{name: name, state: state}
	})
	t.Cleanup(func() { backend.Unregister(name) })
	return state, name
}

func newStubEngine(t *testing.T, opts ...EngineOption) (*Engine, *stubState) {
	t.Helper()
	state, name := registerStub(t)
	e, err := Create(append([]EngineOption{WithBackend(name)}, opts...)...)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(e.Destroy)
	return e, state
}

func checkEmpty(t *testing.T, f *Frame) {
	t.Helper()
	if f.Sprites != nil || f.Bitmaps != nil || len(f.Sprites) != 0 || len(f.Bitmaps) != 0 {
		t.Errorf("frame not empty: %d sprites, %d bytes", len(f.Sprites), len(f.Bitmaps))
	}
}

func TestCreateDestroy(t *testing.T) {
	state, name := registerStub(t)

	e, err := Create(WithBackend(name))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.Backend() != name {
		t.Errorf("Backend() = %q, want %q", e.Backend(), name)
	}
	if err := e.SetTrack([]byte("track")); err != nil {
		t.Fatal(err)
	}
	if state.libs.Load() != 1 || state.renderers.Load() != 1 || state.tracks.Load() != 1 {
		t.Fatalf("live = %d/%d/%d, want 1/1/1", state.libs.Load(), state.renderers.Load(), state.tracks.Load())
	}

	e.Destroy()
	if state.libs.Load() != 0 || state.renderers.Load() != 0 || state.tracks.Load() != 0 {
		t.Errorf("leaked after Destroy: %d/%d/%d", state.libs.Load(), state.renderers.Load(), state.tracks.Load())
	}

	// Second destroy and nil destroy are no-ops.
	e.Destroy()
	var nilEngine *Engine
	nilEngine.Destroy()

	if err := e.SetFrameSize(10, 10); !errors.Is(err, ErrNilEngine) {
		t.Errorf("SetFrameSize after Destroy error = %v, want ErrNilEngine", err)
	}
}

func TestCreateRollback(t *testing.T) {
	t.Run("renderer", func(t *testing.T) {
		state, name := registerStub(t)
		state.failRenderer = true

		e, err := Create(WithBackend(name))
		if e != nil || !errors.Is(err, ErrRendererInit) || !errors.Is(err, errStub) {
			t.Fatalf("Create() = %v, %v; want nil, ErrRendererInit", e, err)
		}
		if state.libs.Load() != 0 {
			t.Errorf("library leaked after renderer failure")
		}
	})

	t.Run("fonts", func(t *testing.T) {
		state, name := registerStub(t)
		state.failFonts = true

		e, err := Create(WithBackend(name), WithFonts(FontConfig{DefaultFamily: "Arial"}))
		if e != nil || !errors.Is(err, ErrFont) {
			t.Fatalf("Create() = %v, %v; want nil, ErrFont", e, err)
		}
		if state.libs.Load() != 0 || state.renderers.Load() != 0 {
			t.Errorf("leaked after font failure: %d/%d", state.libs.Load(), state.renderers.Load())
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		if _, err := Create(WithBackend("does-not-exist")); !errors.Is(err, ErrBackendUnavailable) {
			t.Errorf("Create() error = %v, want ErrBackendUnavailable", err)
		}
	})
}

func TestSetFrameSize(t *testing.T) {
	e, _ := newStubEngine(t)

	if err := e.SetFrameSize(640, 360); err != nil {
		t.Fatal(err)
	}

	tests := []struct{ w, h int }{{0, 1}, {1, 0}, {-1, 10}, {10, -5}, {0, 0}}
	for _, tt := range tests {
		err := e.SetFrameSize(tt.w, tt.h)
		if Code(err) != CodeInvalidArgument || !errors.Is(err, ErrInvalidFrameSize) {
			t.Errorf("SetFrameSize(%d, %d) = %v, want code 2", tt.w, tt.h, err)
		}
		if w, h := e.FrameSize(); w != 640 || h != 360 {
			t.Errorf("FrameSize() = %dx%d after rejected update", w, h)
		}
	}

	var nilEngine *Engine
	if err := nilEngine.SetFrameSize(1, 1); Code(err) != CodeNilHandle {
		t.Errorf("nil SetFrameSize code = %d, want 1", Code(err))
	}
}

func TestSetTrack(t *testing.T) {
	e, state := newStubEngine(t)

	if err := e.SetTrack([]byte("first")); err != nil {
		t.Fatal(err)
	}

	// Empty input keeps the current track.
	for _, data := range [][]byte{nil, {}} {
		if err := e.SetTrack(data); Code(err) != CodeInvalidArgument {
			t.Errorf("SetTrack(empty) code = %d, want 2", Code(err))
		}
	}
	if !e.HasTrack() {
		t.Error("empty SetTrack dropped the loaded track")
	}

	// Replacing never leaks.
	for i := range 10 {
		if err := e.SetTrack([]byte(fmt.Sprintf("track %d", i))); err != nil {
			t.Fatal(err)
		}
	}
	if n := state.tracks.Load(); n != 1 {
		t.Errorf("live tracks after reloads = %d, want 1", n)
	}

	// Parse failure leaves no track.
	err := e.SetTrack([]byte("bad track"))
	if Code(err) != CodeParseFailure || !errors.Is(err, ErrTrackParse) || !errors.Is(err, errStub) {
		t.Errorf("SetTrack(bad) = %v, want ErrTrackParse wrapping the cause", err)
	}
	if e.HasTrack() {
		t.Error("engine should have no track after a parse failure")
	}
	if n := state.tracks.Load(); n != 0 {
		t.Errorf("live tracks after failure = %d, want 0", n)
	}

	var nilEngine *Engine
	if err := nilEngine.SetTrack([]byte("x")); Code(err) != CodeNilHandle {
		t.Errorf("nil SetTrack code = %d, want 1", Code(err))
	}
}

func TestRenderAtArgumentErrors(t *testing.T) {
	e, _ := newStubEngine(t)
	if err := e.SetTrack([]byte("track")); err != nil {
		t.Fatal(err)
	}

	dirty := func() *Frame {
		return &Frame{Sprites: make([]Sprite, 1), Bitmaps: make([]byte, 4)}
	}

	var nilEngine *Engine
	f := dirty()
	if err := nilEngine.RenderAt(0, f); Code(err) != CodeNilHandle {
		t.Errorf("nil engine code = %d, want 1", Code(err))
	}
	checkEmpty(t, f)

	if err := e.RenderAt(0, nil); Code(err) != CodeInvalidArgument {
		t.Errorf("nil frame code = %d, want 2", Code(err))
	}

	for _, ts := range []int64{-1, -1000} {
		f := dirty()
		if err := e.RenderAt(ts, f); Code(err) != CodeNegativeTime {
			t.Errorf("RenderAt(%d) code = %d, want 3", ts, Code(err))
		}
		checkEmpty(t, f)
	}
}

func TestRenderAtNoTrack(t *testing.T) {
	e, _ := newStubEngine(t)
	for _, ts := range []int64{0, 1, 1 << 40} {
		f := &Frame{Sprites: make([]Sprite, 3)}
		err := e.RenderAt(ts, f)
		if Code(err) != CodeNoTrack || !errors.Is(err, ErrNoTrack) {
			t.Errorf("RenderAt(%d) = %v, want ErrNoTrack", ts, err)
		}
		checkEmpty(t, f)
	}
}

func TestRenderAtEmpty(t *testing.T) {
	e, state := newStubEngine(t)
	if err := e.SetTrack([]byte("track")); err != nil {
		t.Fatal(err)
	}

	var f Frame
	if err := e.RenderAt(100, &f); err != nil {
		t.Fatalf("RenderAt() error = %v", err)
	}
	checkEmpty(t, &f)

	// Only unusable images: still an empty success.
	state.images = []backend.Image{
		{W: 0, H: 2, Stride: 2, Bitmap: make([]byte, 4)},
		{W: 2, H: 2, Stride: 2},
	}
	if err := e.RenderAt(100, &f); err != nil {
		t.Fatalf("RenderAt() error = %v", err)
	}
	checkEmpty(t, &f)
}

func TestRenderAtPacking(t *testing.T) {
	e, state := newStubEngine(t)
	if err := e.SetTrack([]byte("track")); err != nil {
		t.Fatal(err)
	}

	state.images = []backend.Image{
		{W: 2, H: 2, Stride: 3, Bitmap: []byte{1, 2, 0, 3, 4, 0}, Color: 0xFFFFFF00, DstX: 5, DstY: 6},
		{W: 0, H: 4, Stride: 4, Bitmap: make([]byte, 16)}, // skipped
		{W: 1, H: 3, Stride: 1, Bitmap: []byte{7, 8, 9}, Color: 0x00000080, DstX: -1, DstY: 2},
		{W: 3, H: 1, Stride: 0, Bitmap: []byte{1}}, // skipped
		{W: 1, H: 1, Stride: 1, Bitmap: nil},       // skipped
	}

	var f Frame
	if err := e.RenderAt(1000, &f); err != nil {
		t.Fatalf("RenderAt() error = %v", err)
	}
	defer FreeFrame(&f)

	want := []Sprite{
		{X: 5, Y: 6, W: 2, H: 2, Stride: 3, Color: 0xFFFFFF00, Offset: 0},
		{X: -1, Y: 2, W: 1, H: 3, Stride: 1, Color: 0x00000080, Offset: 6},
	}
	if len(f.Sprites) != len(want) {
		t.Fatalf("len(Sprites) = %d, want %d", len(f.Sprites), len(want))
	}
	sum := 0
	for i, s := range f.Sprites {
		if s != want[i] {
			t.Errorf("sprite %d = %+v, want %+v", i, s, want[i])
		}
		n := int(s.Stride) * int(s.H)
		sum += n
		if int(s.Offset)+n > len(f.Bitmaps) {
			t.Errorf("sprite %d overruns the blob", i)
		}
	}
	if sum != len(f.Bitmaps) {
		t.Errorf("len(Bitmaps) = %d, want %d", len(f.Bitmaps), sum)
	}
	if !bytes.Equal(f.Bitmaps, []byte{1, 2, 0, 3, 4, 0, 7, 8, 9}) {
		t.Errorf("Bitmaps = %v", f.Bitmaps)
	}
	if !bytes.Equal(f.Bitmap(1), []byte{7, 8, 9}) {
		t.Errorf("Bitmap(1) = %v", f.Bitmap(1))
	}
}

// countingAllocator fails on demand and tracks outstanding buffers.
type countingAllocator struct {
	failSprites, failBitmaps bool
	sprites, bitmaps         int
}

func (a *countingAllocator) AllocSprites(n int) ([]Sprite, error) {
	if a.failSprites {
		return nil, errStub
	}
	a.sprites++
	return make([]Sprite, n), nil
}

func (a *countingAllocator) AllocBitmaps(n int) ([]byte, error) {
	if a.failBitmaps {
		return nil, errStub
	}
	a.bitmaps++
	return make([]byte, n), nil
}

func (a *countingAllocator) FreeSprites([]Sprite) { a.sprites-- }
func (a *countingAllocator) FreeBitmaps([]byte)   { a.bitmaps-- }

func TestRenderAtAllocationFailure(t *testing.T) {
	images := []backend.Image{{W: 4, H: 4, Stride: 4, Bitmap: make([]byte, 16)}}

	t.Run("limit", func(t *testing.T) {
		e, state := newStubEngine(t, WithMaxFrameBytes(8))
		state.images = images
		if err := e.SetTrack([]byte("track")); err != nil {
			t.Fatal(err)
		}
		var f Frame
		if err := e.RenderAt(0, &f); Code(err) != CodeAllocation {
			t.Errorf("RenderAt() code = %d, want 5 (%v)", Code(err), err)
		}
		checkEmpty(t, &f)
	})

	t.Run("combined limit", func(t *testing.T) {
		// Each buffer fits on its own; together they do not.
		e, state := newStubEngine(t, WithMaxFrameBytes(SpriteSize+8))
		state.images = []backend.Image{{W: 4, H: 4, Stride: 4, Bitmap: make([]byte, 16)}}
		if err := e.SetTrack([]byte("track")); err != nil {
			t.Fatal(err)
		}
		var f Frame
		if err := e.RenderAt(0, &f); Code(err) != CodeAllocation {
			t.Errorf("RenderAt() code = %d, want 5 (%v)", Code(err), err)
		}
		checkEmpty(t, &f)

		state.images = []backend.Image{{W: 2, H: 2, Stride: 2, Bitmap: make([]byte, 4)}}
		if err := e.RenderAt(0, &f); err != nil {
			t.Errorf("RenderAt() within limit error = %v", err)
		}
		FreeFrame(&f)
	})

	t.Run("second buffer", func(t *testing.T) {
		alloc := &countingAllocator{failBitmaps: true}
		e, state := newStubEngine(t, WithAllocator(alloc))
		state.images = images
		if err := e.SetTrack([]byte("track")); err != nil {
			t.Fatal(err)
		}
		var f Frame
		if err := e.RenderAt(0, &f); !errors.Is(err, ErrAllocation) {
			t.Errorf("RenderAt() error = %v, want ErrAllocation", err)
		}
		checkEmpty(t, &f)
		if alloc.sprites != 0 {
			t.Errorf("sprite buffer leaked: %d outstanding", alloc.sprites)
		}
	})

	t.Run("first buffer", func(t *testing.T) {
		alloc := &countingAllocator{failSprites: true}
		e, state := newStubEngine(t, WithAllocator(alloc))
		state.images = images
		if err := e.SetTrack([]byte("track")); err != nil {
			t.Fatal(err)
		}
		var f Frame
		if err := e.RenderAt(0, &f); Code(err) != CodeAllocation {
			t.Errorf("RenderAt() code = %d, want 5", Code(err))
		}
		if alloc.bitmaps != 0 {
			t.Error("bitmaps allocated after sprite failure")
		}
	})
}

func TestFreeFrame(t *testing.T) {
	alloc := &countingAllocator{}
	e, state := newStubEngine(t, WithAllocator(alloc))
	state.images = []backend.Image{{W: 1, H: 1, Stride: 1, Bitmap: []byte{255}}}
	if err := e.SetTrack([]byte("track")); err != nil {
		t.Fatal(err)
	}

	var f Frame
	if err := e.RenderAt(0, &f); err != nil {
		t.Fatal(err)
	}
	if f.Empty() {
		t.Fatal("expected one sprite")
	}

	FreeFrame(&f)
	checkEmpty(t, &f)
	if alloc.sprites != 0 || alloc.bitmaps != 0 {
		t.Errorf("outstanding buffers after FreeFrame: %d/%d", alloc.sprites, alloc.bitmaps)
	}

	// Idempotent and nil-safe.
	FreeFrame(&f)
	FreeFrame(nil)
	if alloc.sprites != 0 || alloc.bitmaps != 0 {
		t.Errorf("double free: %d/%d", alloc.sprites, alloc.bitmaps)
	}
}

func TestSpriteLayout(t *testing.T) {
	if SpriteSize != 28 {
		t.Errorf("SpriteSize = %d, want 28", SpriteSize)
	}
	var s Sprite
	offsets := []uintptr{
		unsafe.Offsetof(s.X), unsafe.Offsetof(s.Y), unsafe.Offsetof(s.W), unsafe.Offsetof(s.H),
		unsafe.Offsetof(s.Stride), unsafe.Offsetof(s.Color), unsafe.Offsetof(s.Offset),
	}
	for i, off := range offsets {
		if off != uintptr(4*i) {
			t.Errorf("field %d at offset %d, want %d", i, off, 4*i)
		}
	}
}

func TestSameHandleSerialized(t *testing.T) {
	e, state := newStubEngine(t)
	state.images = []backend.Image{{W: 1, H: 1, Stride: 1, Bitmap: []byte{1}}}
	if err := e.SetTrack([]byte("track")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				if (i+j)%3 == 0 {
					_ = e.SetTrack([]byte("track"))
					continue
				}
				var f Frame
				_ = e.RenderAt(int64(j), &f)
				FreeFrame(&f)
			}
		}()
	}
	wg.Wait()

	if state.overlap.Load() {
		t.Error("backend calls on one engine overlapped")
	}
}

func TestDistinctHandlesIndependent(t *testing.T) {
	a, stateA := newStubEngine(t)
	b, _ := newStubEngine(t)
	for _, e := range []*Engine{a, b} {
		if err := e.SetTrack([]byte("track")); err != nil {
			t.Fatal(err)
		}
	}

	gate := make(chan struct{})
	stateA.mu.Lock()
	stateA.gate = gate
	stateA.mu.Unlock()

	doneA := make(chan error, 1)
	go func() {
		var f Frame
		doneA <- a.RenderAt(0, &f)
	}()

	doneB := make(chan error, 1)
	go func() {
		var f Frame
		doneB <- b.RenderAt(0, &f)
	}()

	select {
	case err := <-doneB:
		if err != nil {
			t.Errorf("engine b RenderAt() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("engine b blocked behind engine a")
	}

	close(gate)
	if err := <-doneA; err != nil {
		t.Errorf("engine a RenderAt() error = %v", err)
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, CodeOK},
		{ErrNilEngine, 1},
		{ErrInvalidFrameSize, 2},
		{ErrInvalidTrack, 2},
		{ErrNilFrame, 2},
		{fmt.Errorf("%w: %w", ErrTrackParse, errStub), 3},
		{ErrNegativeTime, 3},
		{ErrNoTrack, 4},
		{ErrAllocation, 5},
		{errStub, CodeUnknown},
	}
	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

const nativeScript = `[Script Info]
ScriptType: v4.00+
PlayResX: 640
PlayResY: 360

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Go,40,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,20,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:03.00,Default,,0,0,0,,Hello world
`

func TestNativeEndToEnd(t *testing.T) {
	e, err := Create(WithBackend(backend.BackendNative))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer e.Destroy()

	if err := e.SetFrameSize(640, 360); err != nil {
		t.Fatal(err)
	}
	if err := e.SetTrack([]byte(nativeScript)); err != nil {
		t.Fatalf("SetTrack() error = %v", err)
	}

	var f Frame
	if err := e.RenderAt(500, &f); err != nil {
		t.Fatalf("RenderAt(500) error = %v", err)
	}
	if !f.Empty() {
		t.Errorf("RenderAt(500) = %d sprites, want none", len(f.Sprites))
	}

	if err := e.RenderAt(2000, &f); err != nil {
		t.Fatalf("RenderAt(2000) error = %v", err)
	}
	defer FreeFrame(&f)
	if f.Empty() {
		t.Fatal("RenderAt(2000) rendered nothing")
	}

	off := uint32(0)
	for i, s := range f.Sprites {
		if s.W <= 0 || s.H <= 0 || s.Stride < s.W {
			t.Errorf("sprite %d has bad geometry %+v", i, s)
		}
		if s.Offset != off {
			t.Errorf("sprite %d offset = %d, want %d", i, s.Offset, off)
		}
		off += uint32(s.Stride * s.H)
		if s.X < 0 || s.Y < 0 || s.X+s.W > 640 || s.Y+s.H > 360 {
			t.Errorf("sprite %d outside the frame: %+v", i, s)
		}
	}
	if int(off) != len(f.Bitmaps) {
		t.Errorf("len(Bitmaps) = %d, want %d", len(f.Bitmaps), off)
	}
	last := f.Sprites[len(f.Sprites)-1]
	if last.Color != 0xFFFFFF00 {
		t.Errorf("fill color = %#08x, want 0xffffff00", last.Color)
	}
}

func TestRenderAtChanged(t *testing.T) {
	e, state := newStubEngine(t)
	if err := e.SetTrack([]byte("track")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		images  []backend.Image
		changed int
	}{
		{"content", []backend.Image{{W: 1, H: 1, Stride: 1, Bitmap: []byte{1}}}, 2},
		{"moved", []backend.Image{{W: 1, H: 1, Stride: 1, Bitmap: []byte{1}, DstX: 3}}, 1},
		{"same", []backend.Image{{W: 1, H: 1, Stride: 1, Bitmap: []byte{1}, DstX: 3}}, 0},
		{"cleared", nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state.mu.Lock()
			state.images, state.changed = tt.images, tt.changed
			state.mu.Unlock()

			var f Frame
			if err := e.RenderAt(0, &f); err != nil {
				t.Fatal(err)
			}
			defer FreeFrame(&f)
			if got := f.Changed(); got != tt.changed {
				t.Errorf("Changed() = %d, want %d", got, tt.changed)
			}
		})
	}

	var f Frame
	f.changed = 2
	FreeFrame(&f)
	if f.Changed() != 0 {
		t.Error("FreeFrame kept the change flag")
	}
	if (*Frame)(nil).Changed() != 0 {
		t.Error("nil frame reports a change")
	}
}
