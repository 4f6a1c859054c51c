package script

import (
	"context"
	"errors"
	"time"

	"github.com/aleph-zero/guardstack/engine"
	"github.com/aleph-zero/guardstack/engine/ast"
	"github.com/aleph-zero/guardstack/engine/parser"
	"github.com/aleph-zero/guardstack/service/registry"
	"github.com/aleph-zero/guardstack/telemetry"
	log "github.com/go-chi/httplog/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Service interface {
	Execute(ctx context.Context, script string) (*Result, error)
}

type ServiceProvider struct {
	registry registry.Service
}

func NewService(registry registry.Service) Service {
	return &ServiceProvider{registry: registry}
}

// Execute parses script and runs its commands in order. A script that does
// not parse is rejected as a whole; a failing command is recorded in its
// Output and execution continues with the next one.
func (sp *ServiceProvider) Execute(ctx context.Context, script string) (*Result, error) {
	start := time.Now()
	scriptId := NewScriptId()
	ctx = WithScriptId(ctx, scriptId)

	parsed, err := parse(ctx, script)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "script.Execute", trace.WithAttributes(
		attribute.String("scriptId", scriptId),
		attribute.String("script.text", script),
		attribute.Int("script.commands", len(parsed.Commands))))
	defer span.End()

	result := &Result{
		ScriptId: scriptId,
		Outputs:  make([]Output, 0, len(parsed.Commands)),
	}

	for _, command := range parsed.Commands {
		exec := &executor{ctx: ctx, registry: sp.registry, output: Output{Command: command.String()}}
		if err := command.Accept(exec); err != nil {
			exec.output.Error = err.Error()
			exec.output.Diagnosis |= engine.DiagnosisOf(err)
			result.Failed++
			log.LogEntry(ctx).Warn("Command failed", "command", exec.output.Command,
				"scriptId", scriptId, "error", err)
		}
		result.Outputs = append(result.Outputs, exec.output)
	}

	telemetry.SetAttributes(span, attribute.Int("script.failed", result.Failed))
	if result.Failed > 0 {
		span.SetStatus(codes.Error, "script had failing commands")
	}

	result.Duration = time.Since(start)
	return result, nil
}

type Result struct {
	ScriptId string        `json:"scriptId"`
	Duration time.Duration `json:"duration"`
	Failed   int           `json:"failed"`
	Outputs  []Output      `json:"outputs"`
}

// Output is the outcome of one command. Values holds popped elements or
// stack names; Snapshot is set by SHOW of a single stack.
type Output struct {
	Command   string           `json:"command"`
	Values    []string         `json:"values,omitempty"`
	Diagnosis engine.Diagnosis `json:"diagnosis"`
	Snapshot  *engine.Snapshot `json:"snapshot,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func parse(ctx context.Context, script string) (*ast.Script, error) {
	tokens, err := parser.LexicalScan(script)
	if err != nil {
		log.LogEntry(ctx).Error("Error scanning script", "script", script, "scriptId", ScriptIdFromContext(ctx), "error", err)
		return nil, err
	}

	parsed, err := parser.New(tokens).Parse()
	if err != nil {
		log.LogEntry(ctx).Error("Error parsing script", "script", script, "scriptId", ScriptIdFromContext(ctx), "error", err)
		return nil, err
	}

	if len(parsed.Commands) == 0 {
		return nil, ErrEmptyScript
	}
	return parsed, nil
}

var ErrEmptyScript = errors.New("script has no commands")
