package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/agrospai/fastrag/cmd/fastrag/commands"
	"github.com/agrospai/fastrag/internal/app"
	"github.com/agrospai/fastrag/internal/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockApp struct {
	runFunc   func(ctx context.Context, opts app.RunOptions) error
	cleanFunc func(ctx context.Context, opts app.CleanOptions) (int64, error)
}

func (m *mockApp) Run(ctx context.Context, opts app.RunOptions) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) (int64, error) {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return 0, nil
}

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedOpts app.RunOptions
		called := false

		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) error {
				capturedOpts = opts
				called = true
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{
			"run", "-c", "pipelines/fastrag.yaml", "-v", "--watch",
			"--output", "tui", "--trace", "trace.json", "--metrics-file", "run.prom",
		})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, app.RunOptions{
			ConfigPath:  "pipelines/fastrag.yaml",
			Verbose:     true,
			OutputMode:  "tui",
			Watch:       true,
			TraceFile:   "trace.json",
			MetricsFile: "run.prom",
		}, capturedOpts)
	})

	t.Run("ci forces linear output", func(t *testing.T) {
		var capturedOpts app.RunOptions
		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) error {
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "--ci", "--output", "tui"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "linear", capturedOpts.OutputMode)
		assert.Empty(t, capturedOpts.ConfigPath)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ app.RunOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run"})
		// Silence output to avoid polluting test logs
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ app.RunOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"run", "docs"})

		require.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Clean(t *testing.T) {
	t.Run("asks before deleting", func(t *testing.T) {
		var captured app.CleanOptions
		mock := &mockApp{
			cleanFunc: func(_ context.Context, opts app.CleanOptions) (int64, error) {
				captured = opts
				return 12_000_000, nil
			},
		}

		var asked string
		cli := commands.New(mock).WithConfirm(func(title string) (bool, error) {
			asked = title
			return true, nil
		})
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"clean", "--config", "fastrag.yaml"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.NotEmpty(t, asked)
		assert.Equal(t, "fastrag.yaml", captured.ConfigPath)
		assert.Equal(t, "Deleted 12 MB\n", buf.String())
	})

	t.Run("aborts when declined", func(t *testing.T) {
		mock := &mockApp{
			cleanFunc: func(_ context.Context, _ app.CleanOptions) (int64, error) {
				panic("should not be called")
			},
		}

		cli := commands.New(mock).WithConfirm(func(string) (bool, error) { return false, nil })
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"clean"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "Aborted\n", buf.String())
	})

	t.Run("yes skips the prompt", func(t *testing.T) {
		mock := &mockApp{
			cleanFunc: func(_ context.Context, _ app.CleanOptions) (int64, error) {
				return 0, nil
			},
		}

		cli := commands.New(mock).WithConfirm(func(string) (bool, error) {
			panic("should not be called")
		})
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"clean", "-y"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, "Deleted 0 B\n", buf.String())
	})

	t.Run("propagates prompt errors", func(t *testing.T) {
		cli := commands.New(&mockApp{}).WithConfirm(func(string) (bool, error) {
			return false, errors.New("no tty")
		})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"clean"})

		require.ErrorContains(t, cli.Execute(context.Background()), "no tty")
	})
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "fastrag version "+build.Version)
	assert.Contains(t, buf.String(), build.Commit)
}
