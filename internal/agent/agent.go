// ABOUTME: Agent: normalized input -> intent match -> execution plan, or a chat fallback
// ABOUTME: Pipeline bridge first, template engine second; LLM fills missing parameters when configured

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mauromedda/nlsh/internal/intent"
	"github.com/mauromedda/nlsh/internal/llm"
	nlog "github.com/mauromedda/nlsh/internal/log"
	"github.com/mauromedda/nlsh/internal/metrics"
	"github.com/mauromedda/nlsh/internal/pipeline"
	"github.com/mauromedda/nlsh/internal/plan"
	"github.com/mauromedda/nlsh/internal/shell"
	"github.com/mauromedda/nlsh/internal/template"
)

// ErrEmptyInput is reported for blank input.
var ErrEmptyInput = errors.New("empty input")

// DefaultSuggestions is how many "did you mean" names an unmatched input gets.
const DefaultSuggestions = 3

const chatSystemPrompt = `You are a shell assistant on a Linux machine.
The user's request could not be turned into a single safe command automatically.
Answer briefly in the user's language. If a shell command would help, show it in a fenced code block and explain what it does.`

// noLLMReply is the chat answer when no model is configured.
const noLLMReply = "I could not turn that into a command. Try rephrasing, or configure an LLM for conversational answers."

// Kind classifies a planning result.
type Kind string

const (
	KindCommand Kind = "command"
	KindChat    Kind = "chat"
)

// Result is the outcome of planning one input.
type Result struct {
	Input       string // normalized input
	Kind        Kind
	Match       *intent.IntentMatch // nil when nothing matched
	Plan        *plan.ExecutionPlan // set for KindCommand
	Missing     []string            // template variables left unbound
	Suggestions []intent.Suggestion // for unmatched input
	Err         error               // why planning fell back to chat
}

// Response is a Result plus what Handle did with it.
type Response struct {
	Result
	Output   *shell.Output // set when a command ran
	Reply    string        // set for chat results
	Executed bool
}

// Runner executes plans. *shell.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, p *plan.ExecutionPlan) (shell.Output, error)
}

// Config wires an Agent. Matcher and Engine are required; the rest may be nil.
type Config struct {
	Matcher     *intent.Matcher
	Engine      *template.Engine
	Bridge      *pipeline.Bridge
	LLM         llm.Client
	Runner      Runner
	Metrics     *metrics.Metrics
	Execute     bool // run commands in Handle; otherwise plan only
	Suggestions int
}

// Agent turns natural-language requests into shell commands.
type Agent struct {
	matcher     *intent.Matcher
	engine      *template.Engine
	bridge      *pipeline.Bridge
	enhancer    *intent.Enhancer
	llm         llm.Client
	runner      Runner
	metrics     *metrics.Metrics
	execute     bool
	suggestions int
}

// New creates an Agent.
func New(cfg Config) *Agent {
	a := &Agent{
		matcher:     cfg.Matcher,
		engine:      cfg.Engine,
		bridge:      cfg.Bridge,
		llm:         cfg.LLM,
		runner:      cfg.Runner,
		metrics:     cfg.Metrics,
		execute:     cfg.Execute,
		suggestions: cfg.Suggestions,
	}
	if a.suggestions <= 0 {
		a.suggestions = DefaultSuggestions
	}
	if cfg.LLM != nil {
		a.enhancer = intent.NewEnhancer(cfg.LLM)
	}
	return a
}

// Plan normalizes input and produces a command plan, or a chat result when
// no intent matches or no command can be generated. It never executes.
func (a *Agent) Plan(ctx context.Context, input string) Result {
	res := a.plan(ctx, input)
	origin := ""
	if res.Plan != nil {
		origin = string(res.Plan.Origin())
	}
	a.metrics.RecordPlan(string(res.Kind), origin)
	return res
}

func (a *Agent) plan(ctx context.Context, input string) Result {
	text := Normalize(input)
	res := Result{Input: text, Kind: KindChat}
	if text == "" {
		res.Err = ErrEmptyInput
		return res
	}

	m, ok := a.matcher.BestMatch(text)
	if !ok {
		res.Suggestions = intent.Suggest(text, a.matcher.Intents(), a.suggestions)
		nlog.Debug("no intent for %q; %d suggestions", text, len(res.Suggestions))
		return res
	}

	if missing := a.engine.Missing(m.Intent.Name, m.Bindings()); len(missing) > 0 && a.enhancer != nil {
		enhanced, err := a.enhancer.Enhance(ctx, text, m, missing)
		a.metrics.RecordLLM("enhance", err)
		if err != nil {
			nlog.Warn("parameter enhancement for %s failed: %v", m.Intent.Name, err)
		}
		m = enhanced
	}
	res.Match = &m

	bindings := m.Bindings()
	if a.bridge != nil {
		if p, ok := a.bridge.Convert(m, bindings); ok {
			res.Kind, res.Plan = KindCommand, p
			return res
		}
	}

	p, err := a.engine.GenerateFromIntent(m)
	if err != nil {
		res.Missing = a.engine.Missing(m.Intent.Name, bindings)
		res.Err = err
		nlog.Debug("template for %s unavailable: %v", m.Intent.Name, err)
		return res
	}
	res.Kind, res.Plan = KindCommand, p
	return res
}

// Handle plans input and dispatches the result.
func (a *Agent) Handle(ctx context.Context, input string) (Response, error) {
	return a.Dispatch(ctx, a.Plan(ctx, input))
}

// Dispatch runs a command result (when execution is enabled) or answers a
// chat result conversationally. A non-zero exit status is not an error.
func (a *Agent) Dispatch(ctx context.Context, res Result) (Response, error) {
	resp := Response{Result: res}
	if errors.Is(resp.Err, ErrEmptyInput) {
		return resp, ErrEmptyInput
	}

	if resp.Kind == KindCommand {
		if !a.execute || a.runner == nil {
			return resp, nil
		}
		out, err := a.runner.Run(ctx, resp.Plan)
		a.metrics.RecordCommand(commandStatus(out, err), out.Duration)
		if err != nil {
			return resp, fmt.Errorf("running %s: %w", resp.Plan.Source(), err)
		}
		resp.Output, resp.Executed = &out, true
		return resp, nil
	}

	reply, err := a.Chat(ctx, resp.Input)
	if err != nil {
		return resp, err
	}
	resp.Reply = reply
	return resp, nil
}

// Chat answers input with the LLM, or with a fixed reply when none is set.
func (a *Agent) Chat(ctx context.Context, input string) (string, error) {
	if a.llm == nil {
		return noLLMReply, nil
	}
	reply, err := a.llm.Complete(ctx, chatSystemPrompt, input)
	a.metrics.RecordLLM("chat", err)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// PlanBatch plans inputs concurrently. Results keep input order.
func (a *Agent) PlanBatch(ctx context.Context, inputs []string) ([]Result, error) {
	results := make([]Result, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = a.Plan(gCtx, in)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch planning: %w", err)
	}
	return results, nil
}

func commandStatus(out shell.Output, err error) string {
	switch {
	case errors.Is(err, shell.ErrCommandBlocked):
		return "blocked"
	case err != nil:
		return "error"
	case out.ExitCode != 0:
		return "exit_nonzero"
	default:
		return "ok"
	}
}
