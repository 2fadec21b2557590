package main

import (
	"log/slog"
	"os"
	"runtime/cgo"
	"sync"

	"github.com/gogpu/ggass"
	"github.com/gogpu/ggass/config"
)

const configEnv = "WRMS_CONFIG"

var (
	loadOnce  sync.Once
	loadedCfg config.Config
	loadErr   error
)

// sharedConfig loads WRMS_CONFIG once per process.
func sharedConfig() (config.Config, error) {
	loadOnce.Do(func() {
		path := os.Getenv(configEnv)
		loadedCfg, loadErr = config.LoadFile(path)
		if loadErr != nil || path == "" {
			return
		}
		level, err := loadedCfg.Log.SlogLevel()
		if err != nil {
			loadErr = err
			return
		}
		ggass.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	})
	return loadedCfg, loadErr
}

// create returns a handle to a new engine, or 0.
func create(cfg config.Config, alloc ggass.Allocator) uintptr {
	opts := append(cfg.EngineOptions(), ggass.WithAllocator(alloc))
	e, err := ggass.Create(opts...)
	if err != nil {
		ggass.Logger().Warn("wrms: create failed", "err", err)
		return 0
	}
	return uintptr(cgo.NewHandle(e))
}

func engineOf(h uintptr) *ggass.Engine {
	if h == 0 {
		return nil
	}
	e, _ := cgo.Handle(h).Value().(*ggass.Engine)
	return e
}

func destroy(h uintptr) {
	if h == 0 {
		return
	}
	engineOf(h).Destroy()
	cgo.Handle(h).Delete()
}

func setFrameSize(h uintptr, width, height int) int {
	return ggass.Code(engineOf(h).SetFrameSize(width, height))
}

func setTrack(h uintptr, data []byte) int {
	return ggass.Code(engineOf(h).SetTrack(data))
}

func renderAt(h uintptr, tMs int64, out *ggass.Frame) int {
	return ggass.Code(engineOf(h).RenderAt(tMs, out))
}

func setFonts(h uintptr, cfg ggass.FontConfig) int {
	return ggass.Code(engineOf(h).SetFonts(cfg))
}

func addFont(h uintptr, name string, data []byte) int {
	return ggass.Code(engineOf(h).AddFont(name, data))
}
