package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/hand"
)

// IdleShutdown is how long the model process lives without frames.
const IdleShutdown = 30 * time.Second

const scriptName = "mediapipe_service.py"

// MediaPipeDetector runs the MediaPipe hand landmarker in a Python child
// process. Frames go out as length-prefixed JPEG on stdin, results come
// back as one JSON line per frame on stdout.
type MediaPipeDetector struct {
	config Config
	script string
	python string

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	idleTimer *time.Timer
	failed    error
}

// NewMediaPipeDetector locates the service script. The process starts on
// Start or on the first frame.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := findFile(filepath.Join("scripts", scriptName))
	if script == "" {
		return nil, fmt.Errorf("%s not found: %w", scriptName, ErrUnavailable)
	}
	python := findFile(filepath.Join("venv", "bin", "python"))
	if python == "" {
		python = "python3"
	}
	return &MediaPipeDetector{config: config, script: script, python: python}, nil
}

// Start launches the service and waits for it to answer a ping, an empty
// frame. It clears an earlier failure.
func (d *MediaPipeDetector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.failed = nil
	if err := d.start(); err != nil {
		return d.fail(err)
	}
	if err := ping(d.stdin, d.stdout); err != nil {
		return d.fail(err)
	}
	d.resetIdleTimer()
	return nil
}

// Detect runs one frame through the service. Once the service has died the
// failure is returned for every frame until Start succeeds again.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failed != nil {
		return nil, d.failed
	}
	if err := d.start(); err != nil {
		return nil, d.fail(err)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(d.stdin, buf.GetBytes()); err != nil {
		return nil, d.fail(err)
	}
	hands, err := readResult(d.stdout)
	if err != nil {
		return nil, d.fail(err)
	}

	d.resetIdleTimer()
	return hands, nil
}

// Close stops the child process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) start() error {
	if d.cmd != nil {
		return nil
	}

	cmd := exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %v: %w", err, ErrUnavailable)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	return nil
}

// fail stops the process and latches err as ErrUnavailable.
func (d *MediaPipeDetector) fail(err error) error {
	d.shutdown()
	if !errors.Is(err, ErrUnavailable) {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	d.failed = err
	return err
}

func (d *MediaPipeDetector) shutdown() error {
	if d.cmd == nil {
		return nil
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	d.stdin.Close()
	err := d.cmd.Wait()
	d.cmd, d.stdin, d.stdout = nil, nil, nil
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(IdleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

// writeFrame sends one image as a 4-byte big-endian length and the bytes.
func writeFrame(w io.Writer, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ping sends an empty frame and expects an empty result back.
func ping(w io.Writer, r *bufio.Reader) error {
	if err := writeFrame(w, nil); err != nil {
		return err
	}
	if _, err := readResult(r); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

type result struct {
	Hands []struct {
		Points     []hand.Point3D `json:"points"`
		Handedness string         `json:"handedness"`
		Score      float64        `json:"score"`
	} `json:"hands"`
}

// readResult reads one JSON result line.
func readResult(r *bufio.Reader) ([]HandLandmarks, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var res result
	if err := json.Unmarshal(line, &res); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	out := make([]HandLandmarks, 0, len(res.Hands))
	for _, h := range res.Hands {
		pts := h.Points
		if len(pts) > hand.NumLandmarks {
			pts = pts[:hand.NumLandmarks]
		}
		out = append(out, HandLandmarks{
			Points:     hand.Landmarks(pts).Clone(),
			Handedness: h.Handedness,
			Score:      h.Score,
		})
	}
	return out, nil
}

// findFile looks for rel under the working directory, its parent, the
// executable's directory and ~/.mudra.
func findFile(rel string) string {
	var dirs []string
	dirs = append(dirs, ".", "..")
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".mudra"))
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, rel)
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
