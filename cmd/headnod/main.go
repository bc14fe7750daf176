package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/headnod/internal/app"
	"github.com/ayusman/headnod/internal/capture"
	"github.com/ayusman/headnod/internal/config"
	"github.com/ayusman/headnod/internal/detector"
	"github.com/ayusman/headnod/internal/log"
	"github.com/ayusman/headnod/internal/plugin"
	"github.com/ayusman/headnod/internal/questions"
	"github.com/ayusman/headnod/internal/server"
	"github.com/ayusman/headnod/internal/store"
	"github.com/ayusman/headnod/internal/tray"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "headnod: %v\n", err)
		os.Exit(2)
	}

	log.Init(log.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	logger := log.WithComponent("main")
	logger.Info("headnod - answer yes or no with your head")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.WithError(err).Fatal("failed to create data directory")
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize store")
	}
	defer st.Close()

	tree, err := app.LoadTree(st, cfg.QuestionsFile)
	if err != nil {
		logger.WithError(err).Fatal("failed to load questions")
	}

	orientation, err := capture.ParseOrientation(cfg.Orientation)
	if err != nil {
		logger.WithError(err).Fatal("invalid orientation")
	}

	face, eyes, mouth, err := loadDetectors(cfg)
	if err != nil {
		logger.WithError(err).Fatal("face detector unavailable")
	}
	defer closeDetectors(face, eyes, mouth)

	var player questions.Player
	if p, err := questions.NewExecPlayer(); err == nil {
		logger.WithField("player", p.Binary()).Info("audio prompts enabled")
		player = p
	} else {
		logger.WithError(err).Warn("audio prompts disabled")
	}

	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		logger.WithError(err).Warn("plugin discovery failed")
	}
	logger.WithField("plugins", len(plugins.List())).Info("answer hooks loaded")
	dispatcher := plugin.NewDispatcher(plugins, plugin.NewExecutor(plugin.DefaultTimeoutMs))

	frames := server.NewHub[[]byte]()
	events := server.NewHub[server.Message]()

	camera := capture.NewCamera(capture.Options{
		DeviceID: cfg.CameraID,
		Width:    cfg.CaptureWidth,
		Height:   cfg.CaptureHeight,
		FPS:      capture.IdleFPS,
	})

	a, err := app.New(app.Config{
		Camera:            camera,
		Orientation:       orientation,
		Mirror:            cfg.Mirror,
		Face:              face,
		Eyes:              eyes,
		Mouth:             mouth,
		Tree:              tree,
		Player:            player,
		AudioDir:          cfg.AudioDir,
		Store:             st,
		Plugins:           dispatcher,
		MotionThreshold:   cfg.MotionThreshold,
		NoFaceResetFrames: cfg.NoFaceResetFrames,
		Frames:            frames,
		Events:            events,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create app")
	}
	if err := a.Start(); err != nil {
		logger.WithError(err).Fatal("failed to start detection")
	}

	webDir := findWebDir(cfg.DataDir)
	if webDir != "" {
		logger.WithField("dir", webDir).Info("serving static files")
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Store:      st,
		Frames:     frames,
		Events:     events,
		Controller: a,
	})
	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("starting server")
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			logger.WithError(err).Error("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tray {
		runTray(ctx, a, viewerURL(cfg.ListenAddr))
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	a.Stop()
	events.Close()
	frames.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server shutdown")
	}
	dispatcher.Wait()
}

// loadDetectors loads the face cascade, which is required, and the eye
// and mouth cascades, which are skipped when missing.
func loadDetectors(cfg config.Config) (face, eyes, mouth detector.Detector, err error) {
	face, err = detector.NewCascadeDetector(cfg.FaceCascade)
	if err != nil {
		return nil, nil, nil, err
	}

	optional := func(name, path string) detector.Detector {
		if path == "" {
			return nil
		}
		d, err := detector.NewCascadeDetector(path)
		if err != nil {
			log.Warn(log.Fields{"cascade": name, "error": err}, "optional detector disabled")
			return nil
		}
		return d
	}
	return face, optional("eyes", cfg.EyesCascade), optional("mouth", cfg.MouthCascade), nil
}

func closeDetectors(ds ...detector.Detector) {
	for _, d := range ds {
		if d != nil {
			d.Close()
		}
	}
}

// runTray blocks in the tray until Quit is chosen or ctx ends.
func runTray(ctx context.Context, a *app.App, url string) {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnRestart(func() {
		if _, err := a.Restart(); err != nil {
			log.Warn(log.Fields{"error": err}, "restart refused")
		}
	})
	t.OnViewer(func() {
		if err := openBrowser(url); err != nil {
			log.Warn(log.Fields{"error": err, "url": url}, "failed to open viewer")
		}
	})

	msgs, unsubscribe := a.Events().Subscribe(16)
	defer unsubscribe()
	go func() {
		for msg := range msgs {
			if am, ok := msg.Data.(app.AnswerMessage); ok {
				t.SetLastAnswer(&am.Answer)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
