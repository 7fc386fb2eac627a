package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Binding names handed to processor scripts.
const (
	BindingRequest          = "request"
	BindingExpectedResponse = "expectedResponse"
	BindingActualResponse   = "actualResponse"
	BindingConfig           = "config"
)

// Bindings are the named values a script sees. XML documents are passed as
// serialized strings, JSON documents as decoded values.
type Bindings map[string]any

// ScriptEngine evaluates a processor script. The returned bindings hold the
// values the script changed; absent names keep their previous value.
type ScriptEngine interface {
	Run(ctx context.Context, script string, bindings Bindings) (Bindings, error)
}

// SubprocessEngine runs each script as a child process. The bindings are
// written to stdin as a JSON object and the script may print a JSON object
// with updated bindings to stdout.
type SubprocessEngine struct {
	logger *zap.Logger
	// Interpreter runs the script, e.g. "python3". Empty executes the script directly.
	Interpreter string
}

func NewSubprocessEngine(logger *zap.Logger, interpreter string) *SubprocessEngine {
	return &SubprocessEngine{logger: logger, Interpreter: interpreter}
}

var _ ScriptEngine = (*SubprocessEngine)(nil)

func (e *SubprocessEngine) Run(ctx context.Context, script string, bindings Bindings) (Bindings, error) {
	input, err := json.Marshal(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bindings for %s: %w", script, err)
	}

	var cmd *exec.Cmd
	if e.Interpreter != "" {
		cmd = exec.CommandContext(ctx, e.Interpreter, script)
	} else {
		cmd = exec.CommandContext(ctx, script)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("running processor script", zap.String("script", script), zap.String("interpreter", e.Interpreter))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("script %s failed: %w: %s", script, err, bytes.TrimSpace(stderr.Bytes()))
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return Bindings{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(out))
	dec.UseNumber()
	var updated Bindings
	if err := dec.Decode(&updated); err != nil {
		return nil, fmt.Errorf("script %s printed invalid bindings: %w", script, err)
	}
	return updated, nil
}
