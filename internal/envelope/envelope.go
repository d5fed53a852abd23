// Package envelope parses the JSON event delivered by the agent runtime on
// stdin into an immutable Envelope.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// Tool names
const (
	ToolBash         = "Bash"
	ToolRead         = "Read"
	ToolWrite        = "Write"
	ToolEdit         = "Edit"
	ToolMultiEdit    = "MultiEdit"
	ToolNotebookEdit = "NotebookEdit"
)

// Hook event names
const (
	EventPreToolUse       = "PreToolUse"
	EventPostToolUse      = "PostToolUse"
	EventUserPromptSubmit = "UserPromptSubmit"
)

// Parameter keys
const (
	ParamCommand      = "command"
	ParamFilePath     = "file_path"
	ParamNotebookPath = "notebook_path"
	ParamPath         = "path"
)

// ErrEmptyInput is returned when stdin carries no JSON at all.
var ErrEmptyInput = errors.New("empty input")

// Kind classifies the action an envelope describes.
type Kind int

const (
	KindOther Kind = iota
	KindExecute
	KindFileRead
	KindFileWrite
	KindFileEdit
	KindPrompt
)

func (k Kind) String() string {
	switch k {
	case KindExecute:
		return "execute"
	case KindFileRead:
		return "file-read"
	case KindFileWrite:
		return "file-write"
	case KindFileEdit:
		return "file-edit"
	case KindPrompt:
		return "prompt"
	default:
		return "other"
	}
}

// IsFile reports whether the kind is a file read, write or edit.
func (k Kind) IsFile() bool {
	return k == KindFileRead || k == KindFileWrite || k == KindFileEdit
}

// wire is the JSON shape accepted on stdin. Both the short field names and
// the Claude Code hook names (tool_name, tool_input) are recognized.
type wire struct {
	Tool      string          `json:"tool"`
	ToolName  string          `json:"tool_name"`
	Input     json.RawMessage `json:"input"`
	ToolInput json.RawMessage `json:"tool_input"`
	Prompt    *string         `json:"prompt"`
	Files     []string        `json:"files"`
	SessionID string          `json:"session_id"`
	HookEvent string          `json:"hook_event_name"`
	Cwd       string          `json:"cwd"`
}

// Envelope is one parsed inbound event. Fields are unexported so evaluators
// cannot mutate it; accessors return copies.
type Envelope struct {
	tool       string
	parameters map[string]any
	prompt     string
	hasPrompt  bool
	files      []string
	sessionID  string
	hookEvent  string
	cwd        string
	raw        string
}

// New builds an envelope directly. Used by tests and the dry-run helpers.
func New(tool string, parameters map[string]any) Envelope {
	return Envelope{tool: tool, parameters: maps.Clone(parameters)}
}

// NewPrompt builds a prompt-submission envelope.
func NewPrompt(sessionID, prompt string, files []string) Envelope {
	return Envelope{
		prompt:    prompt,
		hasPrompt: true,
		files:     slices.Clone(files),
		sessionID: sessionID,
		hookEvent: EventUserPromptSubmit,
	}
}

// Parse reads r fully once and decodes a single JSON object.
func Parse(r io.Reader) (Envelope, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to read input: %w", err)
	}
	return Decode(data)
}

// Decode decodes an already-read JSON payload.
func Decode(data []byte) (Envelope, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Envelope{}, ErrEmptyInput
	}

	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode input: %w", err)
	}

	env := Envelope{
		tool:      w.Tool,
		files:     w.Files,
		sessionID: w.SessionID,
		hookEvent: w.HookEvent,
		cwd:       w.Cwd,
		raw:       string(data),
	}
	if env.tool == "" {
		env.tool = w.ToolName
	}
	if w.Prompt != nil {
		env.prompt = *w.Prompt
		env.hasPrompt = true
	}

	params := w.Input
	if len(params) == 0 || string(params) == "null" {
		params = w.ToolInput
	}
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &env.parameters); err != nil {
			return Envelope{}, fmt.Errorf("failed to decode tool input: %w", err)
		}
	}

	return env, nil
}

// Tool returns the action category identifier.
func (e Envelope) Tool() string { return e.tool }

// Prompt returns the submitted prompt text, if any.
func (e Envelope) Prompt() string { return e.prompt }

// Files returns a copy of the in-context file list.
func (e Envelope) Files() []string { return slices.Clone(e.files) }

// SessionID returns the opaque session identifier.
func (e Envelope) SessionID() string { return e.sessionID }

// HookEvent returns the hook event name, when the runtime sent one.
func (e Envelope) HookEvent() string { return e.hookEvent }

// Cwd returns the runtime's working directory, when sent.
func (e Envelope) Cwd() string { return e.cwd }

// Raw returns the original JSON payload.
func (e Envelope) Raw() string { return e.raw }

// Parameters returns a shallow copy of the tool parameters.
func (e Envelope) Parameters() map[string]any { return maps.Clone(e.parameters) }

// Param returns a single tool parameter.
func (e Envelope) Param(key string) (any, bool) {
	v, ok := e.parameters[key]
	return v, ok
}

// StringParam returns a parameter as a string. The second result is false
// when the key is absent; the third is false when it is present but not a string.
func (e Envelope) StringParam(key string) (value string, present bool, isString bool) {
	v, ok := e.parameters[key]
	if !ok || v == nil {
		return "", false, true
	}
	s, ok := v.(string)
	return s, true, ok
}

// IsPrompt reports whether this is a prompt-submission event.
func (e Envelope) IsPrompt() bool {
	if e.hookEvent == EventUserPromptSubmit {
		return true
	}
	return e.tool == "" && (e.hasPrompt || e.files != nil)
}

// Kind classifies the envelope for evaluator selection.
func (e Envelope) Kind() Kind {
	if e.IsPrompt() {
		return KindPrompt
	}
	switch e.tool {
	case ToolBash:
		return KindExecute
	case ToolRead:
		return KindFileRead
	case ToolWrite:
		return KindFileWrite
	case ToolEdit, ToolMultiEdit, ToolNotebookEdit:
		return KindFileEdit
	default:
		return KindOther
	}
}
