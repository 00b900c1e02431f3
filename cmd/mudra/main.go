package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".mudra")

	configPath := flag.String("config", filepath.Join(dataDir, "config.yaml"), "path to the YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log, *configPath, *addr, dataDir, *withTray); err != nil {
		log.Error("mudra: exiting", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, configPath, addr, dataDir string, withTray bool) error {
	file, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if file.DataDir == "" {
		file.DataDir = dataDir
	}
	if addr != "" {
		file.Server.Addr = addr
	}
	if file.Server.StaticDir == "" {
		file.Server.StaticDir = findWebDir(file.DataDir)
	}
	if err := os.MkdirAll(file.DataDir, 0o755); err != nil {
		return err
	}

	st, err := store.New(filepath.Join(file.DataDir, "mudra.db"))
	if err != nil {
		return err
	}
	defer st.Close()

	installed, err := scene.InstallDefaultRig(file.DataDir)
	if err != nil {
		return err
	}
	if installed {
		log.Info("mudra: installed default rig", "dir", file.DataDir)
	}
	if err := st.HandModels().Ensure(&store.HandModel{
		ID: store.DefaultModelID, Name: "Default", Path: scene.DefaultRigPath, BoneAxis: "y",
	}); err != nil {
		return err
	}

	a, err := app.New(app.Config{File: file, Store: st, Logger: log})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{StaticDir: file.Server.StaticDir, Store: st, App: a, Logger: log})
	defer srv.Close()
	httpSrv := &http.Server{Addr: file.Server.Addr, Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 2)
	go func() { errc <- a.Run(ctx) }()
	go func() {
		log.Info("mudra: listening", "addr", file.Server.Addr, "static", file.Server.StaticDir,
			"controller_code", a.ControllerCode())
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if withTray {
		t := tray.New(a, a.ControllerCode())
		t.OnQuit(stop)
		t.OnError(func(err error) { log.Warn("mudra: tray toggle refused", "error", err) })
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// systray needs the main goroutine and returns after Quit.
		t.Run()
		stop()
	}

	select {
	case <-ctx.Done():
	case err = <-errc:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		log.Warn("mudra: http shutdown", "error", serr)
	}
	return err
}

// findWebDir returns the first existing web directory among "web",
// "../web" and dataDir/web, or "" when none exists.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
