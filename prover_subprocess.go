package shadowpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// SubprocessProverConfig holds the configuration for the local Node.js
// prover backend.
type SubprocessProverConfig struct {
	ZKeyPath   string        // Proving key (.zkey file)
	WasmPath   string        // Circuit WASM file
	NodeScript string        // snarkjs wrapper script (default: js/prove.js)
	NodeCmd    string        // Node.js command (default: node)
	Timeout    time.Duration // Proof generation timeout (default: 90s)
}

// SubprocessProver generates Groth16 proofs by invoking a Node.js script
// that wraps snarkjs. It implements ProofGenerator, so a payment bot can
// use it in place of the HTTP sidecar.
type SubprocessProver struct {
	config SubprocessProverConfig
}

// NewSubprocessProver creates a subprocess prover, verifying the Node.js
// runtime and the circuit artifacts are present.
func NewSubprocessProver(config SubprocessProverConfig) (*SubprocessProver, error) {
	if config.NodeScript == "" {
		config.NodeScript = "js/prove.js"
	}
	if config.NodeCmd == "" {
		config.NodeCmd = "node"
	}
	if config.Timeout == 0 {
		config.Timeout = 90 * time.Second
	}

	if _, err := exec.LookPath(config.NodeCmd); err != nil {
		return nil, fmt.Errorf("%w: %q not in PATH, install Node.js or adjust NodeCmd", ErrNodeNotFound, config.NodeCmd)
	}
	for _, p := range []string{config.ZKeyPath, config.WasmPath, config.NodeScript} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("required file not found: %s", p)
		}
	}

	return &SubprocessProver{config: config}, nil
}

// Prove generates a proof for the given circuit input. The circuitType is
// fixed by the loaded circuit artifacts and is ignored here.
func (p *SubprocessProver) Prove(ctx context.Context, input CircuitInput, _ string) (*ProofData, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling input: %v", ErrProver, err)
	}

	dir, err := os.MkdirTemp("", "shadowpay-prove-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProver, err)
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "input.json")
	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProver, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.config.NodeCmd, p.config.NodeScript, p.config.ZKeyPath, p.config.WasmPath, inputPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrProver, p.config.Timeout)
		}
		return nil, fmt.Errorf("%w: %s", ErrProver, proverErrorMessage(stderr.String(), err))
	}

	var result ProofData
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("%w: invalid prover output: %s", ErrProver, truncate(stdout.String(), 200))
	}
	return &result, nil
}

// proverErrorMessage extracts the error from the wrapper script's stderr.
// The snarkjs wrapper prints a JSON object; fall back to the raw text.
func proverErrorMessage(stderr string, runErr error) string {
	if stderr == "" {
		return runErr.Error()
	}
	var decoded struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(stderr), &decoded); err == nil && decoded.Error != "" {
		return decoded.Error
	}
	return stderr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
