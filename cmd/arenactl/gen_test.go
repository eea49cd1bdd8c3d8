package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/arenakit/trace"
)

func TestGenCommand_File(t *testing.T) {
	resetFlags()
	genOutput = filepath.Join(t.TempDir(), "g.rep")
	genSeed = 9
	genAllocs = 300
	genReallocRatio = 0.2

	output, err := captureOutput(t, runGen)
	if err != nil {
		t.Fatalf("runGen() error: %v", err)
	}
	assertContains(t, output, []string{"Wrote", "g.rep", "300 alloc", "suggested heap"})

	tr, err := trace.ParseFile(genOutput)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if tr.NumIDs != 300 {
		t.Errorf("NumIDs = %d, want 300", tr.NumIDs)
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("generated trace invalid: %v", err)
	}
}

func TestGenCommand_Stdout(t *testing.T) {
	resetFlags()
	genAllocs = 50

	output, err := captureOutput(t, runGen)
	if err != nil {
		t.Fatalf("runGen() error: %v", err)
	}
	tr, err := trace.Parse(strings.NewReader(output))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if tr.NumIDs != 50 {
		t.Errorf("NumIDs = %d, want 50", tr.NumIDs)
	}
	assertNotContains(t, output, []string{"Wrote"})
}

func TestGenCommand_BadRatios(t *testing.T) {
	resetFlags()
	genFreeRatio = 0.8
	genReallocRatio = 0.5

	_, err := captureOutput(t, runGen)
	if err == nil || !strings.Contains(err.Error(), "must be below 1") {
		t.Fatalf("runGen() error = %v", err)
	}
}
