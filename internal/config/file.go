package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the process configuration loaded from YAML.
type File struct {
	DataDir   string       `yaml:"data_dir"`
	FrameRate int          `yaml:"frame_rate"` // fusion loop frames per second
	Model     string       `yaml:"model"`      // hand model id installed at start
	Server    ServerConfig `yaml:"server"`
	Camera    CameraConfig `yaml:"camera"`
	Retarget  Retarget     `yaml:"retarget"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// CameraConfig contains capture device settings.
type CameraConfig struct {
	Device int `yaml:"device"`
	FPS    int `yaml:"fps"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() File {
	return File{
		FrameRate: 60,
		Model:     "default",
		Server:    ServerConfig{Addr: ":8080"},
		Camera:    CameraConfig{Device: 0, FPS: 30},
		Retarget:  DefaultRetarget(),
	}
}

// FrameInterval returns the duration of one fusion frame.
func (f File) FrameInterval() time.Duration {
	if f.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(f.FrameRate)
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (File, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the file-level settings and the embedded tunables.
func (f File) Validate() error {
	if f.FrameRate < 0 || f.FrameRate > 240 {
		return fmt.Errorf("frame_rate = %d not in [0, 240]: %w", f.FrameRate, ErrOutOfRange)
	}
	if f.Camera.FPS < 0 {
		return fmt.Errorf("camera.fps = %d: %w", f.Camera.FPS, ErrOutOfRange)
	}
	return f.Retarget.Validate()
}
