package infrastructure

import (
	"bufio"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_MergesStdoutAndStderr(t *testing.T) {
	bin := writeScript(t, `echo "out one"
echo "err one" >&2
echo "out two"`)

	p, err := StartProcess(context.Background(), bin, nil)
	require.NoError(t, err)

	lines := collectLines(p)
	code, err := p.Wait()
	require.NoError(t, err)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"out one", "err one", "out two"}, lines)
}

func TestProcess_ExitCode(t *testing.T) {
	bin := writeScript(t, `echo "ERROR: unable to download"; exit 3`)

	p, err := StartProcess(context.Background(), bin, nil)
	require.NoError(t, err)

	lines := collectLines(p)
	code, err := p.Wait()
	require.NoError(t, err)

	assert.Equal(t, 3, code)
	assert.Equal(t, []string{"ERROR: unable to download"}, lines)
}

func TestProcess_PassesArgs(t *testing.T) {
	bin := writeScript(t, `for a in "$@"; do echo "[$a]"; done`)

	p, err := StartProcess(context.Background(), bin, []string{"-o", "a b/%(title)s.%(ext)s", "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{"[-o]", "[a b/%(title)s.%(ext)s]", "[x]"}, collectLines(p))
}

func TestProcess_Env(t *testing.T) {
	bin := writeScript(t, `echo "$YTWRAP_TEST_VALUE"`)

	p, err := StartProcess(context.Background(), bin, nil, WithEnv("YTWRAP_TEST_VALUE=hello"))
	require.NoError(t, err)

	assert.Equal(t, []string{"hello"}, collectLines(p))
}

func TestProcess_LinesArriveBeforeExit(t *testing.T) {
	bin := writeScript(t, `echo first; sleep 2; echo second`)

	p, err := StartProcess(context.Background(), bin, nil)
	require.NoError(t, err)

	select {
	case line := <-p.Lines():
		assert.Equal(t, "first", line)
	case <-time.After(1500 * time.Millisecond):
		t.Fatal("first line was not streamed before the child exited")
	}
	select {
	case <-p.Exited():
		t.Fatal("child exited too early")
	default:
	}

	p.Abandon()
	_, err = p.Wait()
	assert.NoError(t, err)
}

func TestProcess_AbandonStillReaps(t *testing.T) {
	bin := writeScript(t, `i=0; while [ $i -lt 2000 ]; do echo "line $i"; i=$((i+1)); done`)

	p, err := StartProcess(context.Background(), bin, nil)
	require.NoError(t, err)

	<-p.Lines()
	p.Abandon()
	p.Abandon()

	select {
	case <-p.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("abandoned child was not reaped")
	}
	code, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestProcess_WaitContextCancelled(t *testing.T) {
	bin := writeScript(t, `sleep 1`)

	p, err := StartProcess(context.Background(), bin, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, err := p.WaitContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, -1, code)

	<-p.Exited()
}

func TestProcess_MissingBinary(t *testing.T) {
	_, err := StartProcess(context.Background(), "/nonexistent/yt-dlp", nil)
	assert.Error(t, err)
}

func TestProcess_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := StartProcess(ctx, "true", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanLinesCR(t *testing.T) {
	input := "[download]  10.0%\r[download]  55.5%\r\n[download] 100%\nlast"

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanLinesCR)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"[download]  10.0%", "[download]  55.5%", "[download] 100%", "last"}, lines)
}

func TestRunOutput(t *testing.T) {
	bin := writeScript(t, `echo 2024.08.06`)

	out, err := RunOutput(context.Background(), bin, "--version")
	require.NoError(t, err)
	assert.Equal(t, "2024.08.06\n", string(out))
}

func TestRunOutput_StderrInError(t *testing.T) {
	bin := writeScript(t, `echo "warning" >&2; echo "ERROR: Unsupported URL" >&2; exit 1`)

	_, err := RunOutput(context.Background(), bin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERROR: Unsupported URL")
}

func TestRunOutput_Timeout(t *testing.T) {
	bin := writeScript(t, `exec sleep 5`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := RunOutput(ctx, bin)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunOutput_TimeoutWithForkedChild(t *testing.T) {
	// sleep is a grandchild holding stdout open after the shell is killed.
	bin := writeScript(t, `sleep 5; echo 2024.01.01`)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := RunOutput(ctx, bin, "--version")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}
