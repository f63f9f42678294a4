package main

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

const childEnv = "CAKEMIC_TEST_CHILD"

func TestMain(m *testing.M) {
	if os.Getenv(childEnv) == "1" {
		os.Args = append([]string{"cakemic"}, os.Args[1:]...)
		main()
		return
	}
	os.Exit(m.Run())
}

// runCLI re-executes the test binary as cakemic with isolated XDG dirs.
func runCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()

	cmd := exec.Command(os.Args[0], args...)
	cmd.Env = append(os.Environ(),
		childEnv+"=1",
		"XDG_CONFIG_HOME="+t.TempDir(),
		"XDG_STATE_HOME="+t.TempDir(),
		"XDG_RUNTIME_DIR="+t.TempDir(),
	)
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return string(out), 0
	case errors.As(err, &exitErr):
		return string(out), exitErr.ExitCode()
	}
	require.NoError(t, err)
	return "", -1
}

func TestCLIExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{name: "help", args: []string{"--help"}, code: 0, want: "Usage:"},
		{name: "version flag", args: []string{"--version"}, code: 0, want: "cakemic "},
		{name: "unknown command", args: []string{"not-a-command"}, code: 2, want: "unknown command"},
		{name: "candle zero", args: []string{"extinguish", "0"}, code: 2, want: "starting at 1"},
		{name: "status without party", args: []string{"status"}, code: 0, want: "idle"},
		{name: "blow without party", args: []string{"blow"}, code: 1, want: "no active cakemic party"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, code := runCLI(t, tc.args...)
			require.Equal(t, tc.code, code, out)
			require.Contains(t, out, tc.want)
		})
	}
}
