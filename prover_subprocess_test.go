package shadowpay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeNode writes an executable shell script that stands in for the
// Node.js prover wrapper.
func fakeNode(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-node")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func circuitArtifacts(t *testing.T) (zkey, wasm, script string) {
	t.Helper()
	dir := t.TempDir()
	for name, out := range map[string]*string{
		"circuit.zkey": &zkey, "circuit.wasm": &wasm, "prove.js": &script,
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("placeholder"), 0o644); err != nil {
			t.Fatal(err)
		}
		*out = path
	}
	return zkey, wasm, script
}

func TestNewSubprocessProverNodeMissing(t *testing.T) {
	zkey, wasm, script := circuitArtifacts(t)

	_, err := NewSubprocessProver(SubprocessProverConfig{
		ZKeyPath:   zkey,
		WasmPath:   wasm,
		NodeScript: script,
		NodeCmd:    "definitely-not-a-node-binary",
	})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("NewSubprocessProver = %v, want ErrNodeNotFound", err)
	}
}

func TestNewSubprocessProverMissingArtifacts(t *testing.T) {
	node := fakeNode(t, "exit 0")

	_, err := NewSubprocessProver(SubprocessProverConfig{
		ZKeyPath:   filepath.Join(t.TempDir(), "missing.zkey"),
		WasmPath:   filepath.Join(t.TempDir(), "missing.wasm"),
		NodeScript: filepath.Join(t.TempDir(), "missing.js"),
		NodeCmd:    node,
	})
	if err == nil || !strings.Contains(err.Error(), "required file not found") {
		t.Fatalf("NewSubprocessProver = %v, want missing-file error", err)
	}
}

func TestSubprocessProve(t *testing.T) {
	zkey, wasm, script := circuitArtifacts(t)
	node := fakeNode(t, `echo '{"proof": {"pi_a": ["1"]}, "publicSignals": ["5000000"]}'`)

	prover, err := NewSubprocessProver(SubprocessProverConfig{
		ZKeyPath:   zkey,
		WasmPath:   wasm,
		NodeScript: script,
		NodeCmd:    node,
	})
	if err != nil {
		t.Fatalf("NewSubprocessProver: %v", err)
	}

	proof, err := prover.Prove(context.Background(), CircuitInput{Amount: "5000000"}, CircuitTypeSpending)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if len(proof.PublicSignals) != 1 || proof.PublicSignals[0] != "5000000" {
		t.Errorf("publicSignals = %v, want [5000000]", proof.PublicSignals)
	}
}

func TestSubprocessProveScriptError(t *testing.T) {
	zkey, wasm, script := circuitArtifacts(t)
	node := fakeNode(t, `echo '{"error": "witness does not satisfy constraints"}' >&2; exit 1`)

	prover, err := NewSubprocessProver(SubprocessProverConfig{
		ZKeyPath:   zkey,
		WasmPath:   wasm,
		NodeScript: script,
		NodeCmd:    node,
	})
	if err != nil {
		t.Fatalf("NewSubprocessProver: %v", err)
	}

	_, err = prover.Prove(context.Background(), CircuitInput{}, CircuitTypeSpending)
	if !errors.Is(err, ErrProver) {
		t.Fatalf("Prove = %v, want ErrProver", err)
	}
	if !strings.Contains(err.Error(), "witness does not satisfy constraints") {
		t.Errorf("error does not surface the script message: %v", err)
	}
}

func TestSubprocessProveGarbageOutput(t *testing.T) {
	zkey, wasm, script := circuitArtifacts(t)
	node := fakeNode(t, `echo 'not json'`)

	prover, err := NewSubprocessProver(SubprocessProverConfig{
		ZKeyPath:   zkey,
		WasmPath:   wasm,
		NodeScript: script,
		NodeCmd:    node,
	})
	if err != nil {
		t.Fatalf("NewSubprocessProver: %v", err)
	}

	_, err = prover.Prove(context.Background(), CircuitInput{}, CircuitTypeSpending)
	if !errors.Is(err, ErrProver) {
		t.Fatalf("Prove = %v, want ErrProver", err)
	}
}
