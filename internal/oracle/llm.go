package oracle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/dgallion1/matclass/internal/llm"
	"github.com/dgallion1/matclass/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const decisionMaxTokens = 200

// LLMOracle asks a chat-completion model to choose a candidate.
type LLMOracle struct {
	completer llm.Completer
	model     string
	log       *slog.Logger
	tracer    trace.Tracer
}

func NewLLMOracle(completer llm.Completer, model string, log *slog.Logger) *LLMOracle {
	if log == nil {
		log = slog.Default()
	}
	return &LLMOracle{
		completer: completer,
		model:     model,
		log:       log.With("component", "oracle", "model", model),
		tracer:    otel.Tracer("matclass/oracle"),
	}
}

// Model returns the model this oracle queries.
func (o *LLMOracle) Model() string {
	return o.model
}

func (o *LLMOracle) Decide(ctx context.Context, item string, candidates []hierarchy.Option) Decision {
	ctx, span := o.tracer.Start(ctx, "oracle.decide",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", o.model),
			attribute.Int("oracle.candidates", len(candidates)),
		),
	)
	defer span.End()

	d := o.decide(ctx, item, candidates)

	span.SetAttributes(attribute.String("oracle.decision", d.Kind.String()))
	if d.Kind == Invalid {
		span.SetStatus(codes.Error, d.Reason)
	}
	metrics.ObserveDecision(d.Kind.String())
	return d
}

func (o *LLMOracle) decide(ctx context.Context, item string, candidates []hierarchy.Option) Decision {
	if len(candidates) == 0 {
		return Failed("no candidates offered")
	}

	out, err := o.completer.Complete(ctx, llm.Request{
		Model:     o.model,
		System:    SystemPrompt,
		Prompt:    BuildPrompt(item, candidates),
		JSON:      true,
		MaxTokens: decisionMaxTokens,
	})
	if err != nil {
		o.log.Error("oracle call failed", "error", err)
		return Failed(fmt.Sprintf("oracle call failed: %v", err))
	}

	d := ParseAnswer(out.Text)
	switch d.Kind {
	case Invalid:
		o.log.Warn("oracle answer rejected", "reason", d.Reason, "raw", compactJSON(out.Text))
	default:
		o.log.Debug("oracle answered",
			"decision", d.Kind.String(),
			"code", d.Code,
			"input_tokens", out.Usage.InputTokens,
			"output_tokens", out.Usage.OutputTokens,
		)
	}
	return d
}
