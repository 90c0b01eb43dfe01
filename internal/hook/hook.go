// Package hook adapts the command validator to an agent runtime's
// pre-tool-use hook: it decides whether a tool call is a shell execution,
// validates its command and answers with a block or allow decision.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/AgentShepherd/shellgate/internal/logger"
	"github.com/AgentShepherd/shellgate/internal/rules"
)

var log = logger.New("hook")

// MaxPayloadSize bounds a hook payload read from a stream.
const MaxPayloadSize = 1 << 20

// DecisionBlock is the only non-empty decision value.
const DecisionBlock = "block"

// DefaultShellTools are the tool names treated as shell execution.
var DefaultShellTools = []string{"Bash", "Shell", "exec", "run_command"}

// Input is the pre-tool-use payload sent by the host runtime.
type Input struct {
	SessionID     string         `json:"session_id,omitempty"`
	CWD           string         `json:"cwd,omitempty"`
	HookEventName string         `json:"hook_event_name,omitempty"`
	ToolName      string         `json:"tool_name"`
	ToolInput     map[string]any `json:"tool_input"`
}

// Decision is the hook response. The zero value lets the tool call proceed.
type Decision struct {
	Decision string `json:"decision,omitempty"`
	Reason   string `json:"reason,omitempty"`

	// Rule names the failing rule. It is not sent to the host.
	Rule string `json:"-"`
}

// Blocked reports whether d aborts the tool call.
func (d Decision) Blocked() bool { return d.Decision == DecisionBlock }

// Allow is the no-op decision.
func Allow() Decision { return Decision{} }

// Block returns a blocking decision carrying reason.
func Block(reason string) Decision {
	return Decision{Decision: DecisionBlock, Reason: reason}
}

func blockRule(rule, reason string) Decision {
	d := Block(reason)
	d.Rule = rule
	return d
}

// Adapter maps tool calls onto a Validator.
type Adapter struct {
	validator  *rules.Validator
	shellTools map[string]struct{}
}

// NewAdapter returns an adapter that validates calls to any of shellTools
// (matched case-insensitively). An empty list selects DefaultShellTools.
func NewAdapter(v *rules.Validator, shellTools []string) *Adapter {
	if len(shellTools) == 0 {
		shellTools = DefaultShellTools
	}
	tools := make(map[string]struct{}, len(shellTools))
	for _, t := range shellTools {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tools[t] = struct{}{}
		}
	}
	return &Adapter{validator: v, shellTools: tools}
}

// Validator returns the validator decisions are delegated to.
func (a *Adapter) Validator() *rules.Validator { return a.validator }

// IsShellTool reports whether toolName denotes shell execution.
func (a *Adapter) IsShellTool(toolName string) bool {
	_, ok := a.shellTools[strings.ToLower(strings.TrimSpace(toolName))]
	return ok
}

// PreToolUse decides a single tool call. Non-shell tools are always allowed;
// a shell call without a string command is blocked.
func (a *Adapter) PreToolUse(toolName string, toolInput map[string]any) Decision {
	if !a.IsShellTool(toolName) {
		log.Trace("Ignoring non-shell tool %s", toolName)
		return Allow()
	}

	raw, ok := toolInput["command"]
	if !ok {
		log.Warn("Blocked %s call: missing command", toolName)
		return blockRule(rules.RuleInput, "shell tool call has no command")
	}
	command, ok := raw.(string)
	if !ok {
		log.Warn("Blocked %s call: command is %T", toolName, raw)
		return blockRule(rules.RuleInput, "shell tool command must be a string")
	}

	result := a.validator.Validate(command)
	log.Decision(result.Allowed, result.Rule, command, result.Reason)
	if !result.Allowed {
		return blockRule(result.Rule, result.Reason)
	}
	return Allow()
}

// Decide is PreToolUse for a decoded payload.
func (a *Adapter) Decide(in Input) Decision {
	return a.PreToolUse(in.ToolName, in.ToolInput)
}

// Handle reads one JSON payload from r and writes the decision to w. A
// payload that cannot be decoded is answered with a block; the decode error
// is returned alongside so callers can report it.
func (a *Adapter) Handle(r io.Reader, w io.Writer) (Decision, error) {
	var in Input
	dec := json.NewDecoder(io.LimitReader(r, MaxPayloadSize))
	decodeErr := dec.Decode(&in)

	decision := blockRule(rules.RuleInput, "hook payload could not be parsed")
	if decodeErr == nil {
		decision = a.Decide(in)
	} else {
		log.Warn("Blocked malformed hook payload: %v", decodeErr)
		decodeErr = fmt.Errorf("decode hook payload: %w", decodeErr)
	}

	if err := json.NewEncoder(w).Encode(decision); err != nil {
		return decision, fmt.Errorf("write hook decision: %w", err)
	}
	return decision, decodeErr
}
