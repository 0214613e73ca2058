package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineScript answers every line with "recv <line>" and "bestmove <n>"
const engineScript = `n=0
while IFS= read -r line; do
  n=$((n+1))
  echo "recv $line"
  echo "bestmove $n"
done
echo "bye" >&2`

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("supervisor tests require a Unix shell")
	}
}

func readLine(t *testing.T, read func(context.Context) (string, error)) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	line, err := read(ctx)
	require.NoError(t, err)
	return line
}

func TestSupervisor_SendAndRead(t *testing.T) {
	requireUnix(t)

	s, err := Start("sh", []string{"-c", engineScript}, Options{})
	require.NoError(t, err)
	assert.Equal(t, -1, s.ExitCode())

	require.NoError(t, s.SendLine("isready"))
	assert.Equal(t, "recv isready", readLine(t, s.ReadOutputLine))
	assert.Equal(t, "bestmove 1", readLine(t, s.ReadOutputLine))

	require.NoError(t, s.SendLine("go depth 5"))
	assert.Equal(t, "recv go depth 5", readLine(t, s.ReadOutputLine))
	assert.Equal(t, "bestmove 2", readLine(t, s.ReadOutputLine))

	require.NoError(t, s.CloseInput())
	assert.Equal(t, "bye", readLine(t, s.ReadErrorLine))

	require.NoError(t, s.Wait())
	assert.Equal(t, 0, s.ExitCode())

	_, err = s.ReadOutputLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	_, err = s.ReadErrorLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSupervisor_SpawnFailed(t *testing.T) {
	_, err := Start("/nonexistent/engine", nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawnFailed))
	assert.Contains(t, err.Error(), "/nonexistent/engine")
}

func TestSupervisor_SpawnFailedLookup(t *testing.T) {
	_, err := Start("ucifeed-no-such-engine", nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawnFailed))
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestSupervisor_SendAfterExit(t *testing.T) {
	requireUnix(t)

	s, err := Start("true", nil, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Wait())

	err = s.SendLine("uci")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProcessGone))
}

func TestSupervisor_SendAfterCloseInput(t *testing.T) {
	requireUnix(t)

	s, err := Start("cat", nil, Options{})
	require.NoError(t, err)

	require.NoError(t, s.CloseInput())
	require.NoError(t, s.CloseInput(), "closing twice is a no-op")

	err = s.SendLine("uci")
	assert.True(t, errors.Is(err, ErrProcessGone))
	require.NoError(t, s.Wait())
}

func TestSupervisor_NonZeroExit(t *testing.T) {
	requireUnix(t)

	s, err := Start("sh", []string{"-c", "echo partial; exit 3"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "partial", readLine(t, s.ReadOutputLine))

	var exitErr *exec.ExitError
	assert.True(t, errors.As(s.Wait(), &exitErr))
	assert.Equal(t, 3, s.ExitCode())

	select {
	case <-s.Exited():
	default:
		t.Error("Exited channel should be closed after Wait")
	}
}

func TestSupervisor_UnterminatedFinalLine(t *testing.T) {
	requireUnix(t)

	s, err := Start("printf", []string{"bestmove a7a8q"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "bestmove a7a8q", readLine(t, s.ReadOutputLine))
	require.NoError(t, s.Wait())
}

func TestSupervisor_PTYMode(t *testing.T) {
	requireUnix(t)
	if os.Getenv("CI") == "true" {
		t.Skip("PTY tests require a Unix environment with /dev/ptmx")
	}

	s, err := Start("sh", []string{"-c", engineScript}, Options{UsePTY: true})
	require.NoError(t, err)

	require.NoError(t, s.SendLine("isready"))
	// Echo is off, so the first line is the engine's own output
	assert.Equal(t, "recv isready", readLine(t, s.ReadOutputLine))
	assert.Equal(t, "bestmove 1", readLine(t, s.ReadOutputLine))

	// EOF character ends the read loop; stderr is merged into output
	require.NoError(t, s.CloseInput())
	assert.Equal(t, "bye", readLine(t, s.ReadOutputLine))
	require.NoError(t, s.Wait())

	_, err = s.ReadErrorLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewFactory(t *testing.T) {
	requireUnix(t)

	factory := NewFactory(Options{})

	sup, err := factory("true", nil)
	require.NoError(t, err)
	require.NoError(t, sup.Wait())

	sup, err = factory("/nonexistent/engine", nil)
	require.Error(t, err)
	assert.Nil(t, sup, "factory must not return a typed nil")
}
