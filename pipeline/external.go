package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Job is an external process that has been started. Wait blocks until the
// process exits and returns an ExternalProcessError when it did not succeed.
type Job interface {
	Wait() error
}

// Subsampler starts a process that keeps fraction of the reads in bam and writes
// them to out. An error means the process could not be launched.
type Subsampler interface {
	Subsample(ctx context.Context, bam string, fraction float64, out string) (Job, error)
}

// CoverageTool starts a process that writes per-region dual-strand coverage of
// bam over the targets file to out. An error means the process could not be
// launched.
type CoverageTool interface {
	Regions(ctx context.Context, targets, bam, out string) (Job, error)
}

// ExternalProcessError reports an external tool that failed or produced no
// output. It affects one sweep point only.
type ExternalProcessError struct {
	Tool   string
	Output string
	Msg    string
	Err    error
}

func (e *ExternalProcessError) Error() string {
	s := fmt.Sprintf("%s failed for %s: %s", e.Tool, e.Output, e.Msg)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ExternalProcessError) Unwrap() error {
	return e.Err
}

// LaunchError reports an external tool that could not be started. The remaining
// sweep points of the sample are not launched when it occurs.
type LaunchError struct {
	Tool string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("could not launch %s: %s", e.Tool, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

type procJob struct {
	cmd    *exec.Cmd
	tool   string
	out    string
	stderr *bytes.Buffer
}

func (j *procJob) Wait() error {
	err := j.cmd.Wait()
	if err != nil {
		msg := "exited with error"
		if s := strings.TrimSpace(j.stderr.String()); s != "" {
			msg = s
		}
		return &ExternalProcessError{Tool: j.tool, Output: j.out, Msg: msg, Err: err}
	}
	return nil
}

// start launches name with args and returns without waiting for it to exit.
func start(ctx context.Context, out, name string, args ...string) (Job, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Tool: name, Err: err}
	}
	return &procJob{cmd: cmd, tool: name, out: out, stderr: stderr}, nil
}

// Samtools subsamples with `samtools view -s SEED.FRACTION -b`.
type Samtools struct {
	Path string // samtools executable, "samtools" when empty
	Seed int
}

// Args returns the samtools arguments for one subsampling run. A fraction of 1
// keeps every read and is run without -s, since samtools reads "1" as a seed.
func (s Samtools) Args(bam string, fraction float64, out string) []string {
	if fraction >= 1 {
		return []string{"view", "-b", bam, "-o", out}
	}
	sub := strconv.Itoa(s.Seed) + strings.TrimPrefix(strconv.FormatFloat(fraction, 'f', -1, 64), "0")
	return []string{"view", "-s", sub, "-b", bam, "-o", out}
}

// Subsample satisfies Subsampler.
func (s Samtools) Subsample(ctx context.Context, bam string, fraction float64, out string) (Job, error) {
	path := s.Path
	if path == "" {
		path = "samtools"
	}
	return start(ctx, out, path, s.Args(bam, fraction, out)...)
}

// Sequtils computes region coverage with `java -jar sequtils.jar regions`.
type Sequtils struct {
	Java string // java executable, "java" when empty
	Jar  string // path to sequtils.jar, "sequtils.jar" when empty
}

// Args returns the java arguments for one coverage run.
func (s Sequtils) Args(targets, bam, out string) []string {
	jar := s.Jar
	if jar == "" {
		jar = "sequtils.jar"
	}
	return []string{"-jar", jar, "regions", "-t", targets, "-b", bam, "-o", out}
}

// Regions satisfies CoverageTool.
func (s Sequtils) Regions(ctx context.Context, targets, bam, out string) (Job, error) {
	java := s.Java
	if java == "" {
		java = "java"
	}
	return start(ctx, out, java, s.Args(targets, bam, out)...)
}

// Readiness controls how an output file is judged complete after its process
// exits: it must exist, be non-empty, and keep the same size for Stable
// consecutive polls.
type Readiness struct {
	Poll    time.Duration
	Stable  int
	Timeout time.Duration
}

// DefaultReadiness polls every 200ms and gives up after 5 minutes.
func DefaultReadiness() Readiness {
	return Readiness{Poll: 200 * time.Millisecond, Stable: 2, Timeout: 5 * time.Minute}
}

// withDefaults fills unset fields; a zero Readiness never waits forever.
func (r Readiness) withDefaults() Readiness {
	def := DefaultReadiness()
	if r.Poll <= 0 {
		r.Poll = def.Poll
	}
	if r.Stable < 1 {
		r.Stable = 1
	}
	if r.Timeout <= 0 {
		r.Timeout = def.Timeout
	}
	return r
}

// WaitForOutput blocks until file is ready according to r, ctx is done, or the
// timeout passes. Unset fields of r take their defaults.
func WaitForOutput(ctx context.Context, tool, file string, r Readiness) error {
	r = r.withDefaults()
	timer := time.NewTimer(r.Timeout)
	defer timer.Stop()
	deadline := timer.C
	ticker := time.NewTicker(r.Poll)
	defer ticker.Stop()

	var lastSize int64 = -1
	var stable int
	for {
		info, err := os.Stat(file)
		switch {
		case err != nil || info.Size() == 0:
			stable = 0
			lastSize = -1
		case info.Size() == lastSize:
			stable++
		default:
			lastSize = info.Size()
			stable = 0
		}
		if stable >= r.Stable {
			return nil
		}

		select {
		case <-ctx.Done():
			return &ExternalProcessError{Tool: tool, Output: file, Msg: "cancelled while waiting for output", Err: ctx.Err()}
		case <-deadline:
			msg := "produced no output"
			if lastSize > 0 {
				msg = "output did not stop growing"
			}
			return &ExternalProcessError{Tool: tool, Output: file, Msg: msg}
		case <-ticker.C:
		}
	}
}
