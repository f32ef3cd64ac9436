// Package render executes ffmpeg jobs: a subprocess runner with per-job
// working directories and a bounded worker pool driving it.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"clipforge/internal/clip"
	"clipforge/internal/ffmpeg"
	"clipforge/internal/pkg/errors"
	"clipforge/internal/pkg/logger"
	"clipforge/internal/ports"
)

// stderrTailBytes bounds how much process output travels into job records.
const stderrTailBytes = 2048

// Runner renders one job and returns the storage key of the output.
type Runner interface {
	Run(ctx context.Context, jobID string, spec *clip.Spec) (outputKey string, err error)
}

// Prober pre-flights element sources before a render is attempted and
// reports what it learned about them.
type Prober interface {
	CheckSpec(spec *clip.Spec) (map[string]ffmpeg.SourceInfo, error)
}

// FFmpegRunner renders jobs by spawning the ffmpeg binary. Each job gets
// an isolated directory under Root holding input.json, command.log,
// stdout.log, stderr.log and the rendered output. Directories are kept
// after the job finishes; retention is an operational concern.
type FFmpegRunner struct {
	builder *ffmpeg.Builder
	store   ports.StorageProvider
	log     *logger.Logger

	// Root is the parent directory for per-job working directories.
	Root string
	// Binary is the ffmpeg executable, "ffmpeg" by default.
	Binary string
	// Probe, when set, validates element sources before rendering.
	Probe Prober
}

// NewFFmpegRunner creates a runner writing job directories under root.
func NewFFmpegRunner(builder *ffmpeg.Builder, store ports.StorageProvider, root string, log *logger.Logger) *FFmpegRunner {
	return &FFmpegRunner{
		builder: builder,
		store:   store,
		log:     log.WithComponent("render"),
		Root:    root,
		Binary:  "ffmpeg",
	}
}

// Run renders a job. The context bounds the whole render including the
// upload; a deadline hit maps to RENDER_TIMEOUT.
func (r *FFmpegRunner) Run(ctx context.Context, jobID string, spec *clip.Spec) (string, error) {
	log := r.log.WithJobID(jobID)

	dir := filepath.Join(r.Root, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "render.run", "failed to create job directory")
	}
	if err := writeInputFile(dir, spec); err != nil {
		return "", err
	}

	codec := ffmpeg.GetCodecSettings(spec.Output.Format)
	outputPath := filepath.Join(dir, "output"+codec.FileExtension)

	var sources map[string]ffmpeg.SourceInfo
	if r.Probe != nil {
		probed, err := r.Probe.CheckSpec(spec)
		if err != nil {
			return "", err
		}
		sources = probed
	}

	cmd, err := r.builder.BuildWithSources(spec, sources, outputPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "command.log"), []byte(cmd.String()+"\n"), 0o644); err != nil {
		return "", errors.Wrap(err, "render.run", "failed to write command log")
	}

	log.Info("starting render",
		"output", outputPath,
		"duration", cmd.Duration,
		"inputs", len(cmd.Inputs))

	if err := r.exec(ctx, dir, cmd, jobID); err != nil {
		return "", err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return "", errors.New(errors.CodeRenderFailed, "ffmpeg exited cleanly but produced no output").
			WithField("job_id", jobID)
	}

	key := fmt.Sprintf("jobs/%s/output%s", jobID, codec.FileExtension)
	if err := r.upload(ctx, key, outputPath, info.Size()); err != nil {
		return "", err
	}

	log.Info("render finished", "output_key", key, "size_bytes", info.Size())
	return key, nil
}

func (r *FFmpegRunner) exec(ctx context.Context, dir string, cmd *ffmpeg.Command, jobID string) error {
	stdout, err := os.Create(filepath.Join(dir, "stdout.log"))
	if err != nil {
		return errors.Wrap(err, "render.exec", "failed to create stdout log")
	}
	defer stdout.Close()

	stderr, err := os.Create(filepath.Join(dir, "stderr.log"))
	if err != nil {
		return errors.Wrap(err, "render.exec", "failed to create stderr log")
	}
	defer stderr.Close()

	tail := newTailBuffer(stderrTailBytes)

	proc := exec.CommandContext(ctx, r.Binary, cmd.Args()...)
	proc.Dir = dir
	proc.Stdout = stdout
	proc.Stderr = newTeeWriter(stderr, tail)

	runErr := proc.Run()
	if runErr == nil {
		return nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return errors.RenderTimeout(jobID)
	}
	msg := fmt.Sprintf("ffmpeg failed: %v", runErr)
	if t := tail.String(); t != "" {
		msg += "\n" + t
	}
	return errors.New(errors.CodeRenderFailed, msg).WithField("job_id", jobID)
}

func (r *FFmpegRunner) upload(ctx context.Context, key, path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "render.upload", "failed to open rendered output")
	}
	defer f.Close()

	_, err = r.store.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: contentTypeFor(key),
		Reader:      f,
		Size:        size,
	})
	if err != nil {
		return errors.Wrap(err, "render.upload", "failed to upload rendered output")
	}
	return nil
}

func writeInputFile(dir string, spec *clip.Spec) error {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "render.run", "failed to encode job input")
	}
	if err := os.WriteFile(filepath.Join(dir, "input.json"), data, 0o644); err != nil {
		return errors.Wrap(err, "render.run", "failed to write job input")
	}
	return nil
}

func contentTypeFor(key string) string {
	switch {
	case strings.HasSuffix(key, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(key, ".webm"):
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
