// Package config loads headnod settings from .env files and HEADNOD_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "HEADNOD_"

// Config holds the host settings. Algorithm constants live with the
// packages that use them.
type Config struct {
	CameraID      int    `validate:"gte=0"`
	CaptureWidth  int    `validate:"gt=0"`
	CaptureHeight int    `validate:"gt=0"`
	Orientation   string `validate:"oneof=none cw90 ccw90 180 transverse"`
	Mirror        bool

	DataDir       string `validate:"required"`
	QuestionsFile string
	AudioDir      string

	FaceCascade  string `validate:"required"`
	EyesCascade  string
	MouthCascade string

	PluginDir  string
	ListenAddr string `validate:"required"`

	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string

	MotionThreshold   float64 `validate:"gt=0"`
	NoFaceResetFrames int     `validate:"gte=0"`
	Tray              bool
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	dataDir := ".headnod"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".headnod")
	}

	return Config{
		CameraID:        0,
		CaptureWidth:    640,
		CaptureHeight:   480,
		Orientation:     "none",
		Mirror:          false,
		DataDir:         dataDir,
		FaceCascade:     "cascades/haarcascade_frontalface_alt.xml",
		EyesCascade:     "cascades/haarcascade_eye_tree_eyeglasses.xml",
		MouthCascade:    "cascades/haarcascade_mcs_mouth.xml",
		PluginDir:       filepath.Join(dataDir, "plugins"),
		ListenAddr:      ":8080",
		LogLevel:        "info",
		MotionThreshold: 1.0,
		Tray:            true,
	}
}

// DBPath returns the SQLite database location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "headnod.db")
}

// Validate checks the struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads the given .env files (".env" when none are named), applies
// HEADNOD_* variables on top of Default and validates the result.
// Missing .env files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	num("CAMERA_ID", &c.CameraID)
	num("CAPTURE_WIDTH", &c.CaptureWidth)
	num("CAPTURE_HEIGHT", &c.CaptureHeight)
	str("ORIENTATION", &c.Orientation)
	boolean("MIRROR", &c.Mirror)

	dataDir := c.DataDir
	str("DATA_DIR", &c.DataDir)
	if c.DataDir != dataDir && c.PluginDir == filepath.Join(dataDir, "plugins") {
		c.PluginDir = filepath.Join(c.DataDir, "plugins")
	}
	str("QUESTIONS_FILE", &c.QuestionsFile)
	str("AUDIO_DIR", &c.AudioDir)

	str("FACE_CASCADE", &c.FaceCascade)
	str("EYES_CASCADE", &c.EyesCascade)
	str("MOUTH_CASCADE", &c.MouthCascade)

	str("PLUGIN_DIR", &c.PluginDir)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)

	float("MOTION_THRESHOLD", &c.MotionThreshold)
	num("NO_FACE_RESET_FRAMES", &c.NoFaceResetFrames)
	boolean("TRAY", &c.Tray)

	return errors.Join(errs...)
}
