package main

import (
	"os"
	"testing"
)

func TestDefaultEnv(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()
	if env.Now == nil {
		t.Error("Now is nil")
	}
	if env.Stdout != os.Stdout || env.Stderr != os.Stderr {
		t.Error("DefaultEnv should write to the process stdout and stderr")
	}
	if env.Embedded != nil {
		t.Error("Embedded should be nil by default")
	}
}
