// Package emit writes a decision to the hook protocol's stdout/stderr/exit
// code contract.
package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgerlanc/hookgate/internal/constants"
	"github.com/dgerlanc/hookgate/internal/decision"
	"github.com/dgerlanc/hookgate/internal/logger"
)

// DecisionBlock is the value of the decision field in a block payload.
const DecisionBlock = "block"

// fallbackBlock is written if the block payload cannot be marshaled.
const fallbackBlock = `{"decision":"block","reason":"blocked by policy"}`

// Output is the JSON body written to stdout for a block decision.
type Output struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// FormatBlock returns the JSON block payload.
func FormatBlock(reason string) string {
	data, err := json.Marshal(Output{Decision: DecisionBlock, Reason: reason})
	if err != nil {
		logger.Debug("failed to marshal block output", "error", err)
		return fallbackBlock
	}
	return string(data)
}

// Emit writes d (and, for allowed prompts, the advisory text) and returns
// the process exit code. It never panics and always yields exactly one status.
func Emit(stdout, stderr io.Writer, d decision.Decision, advisory string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("emitter panic", "panic", r)
			if d.IsBlock() {
				code = constants.ExitBlock
			} else {
				code = constants.ExitAllow
			}
		}
	}()

	if !d.IsBlock() {
		if advisory != "" {
			if _, err := io.WriteString(stdout, advisory); err != nil {
				logger.Warn("failed to write advisory output", "error", err)
			}
		}
		return constants.ExitAllow
	}

	reason := d.Reason
	if reason == "" {
		reason = decision.DefaultBlockReason
	}
	if _, err := fmt.Fprintln(stdout, FormatBlock(reason)); err != nil {
		logger.Warn("failed to write block output", "error", err)
	}
	if _, err := fmt.Fprintf(stderr, "%s: blocked: %s\n", constants.AppName, strings.TrimSpace(reason)); err != nil {
		logger.Warn("failed to write block diagnostic", "error", err)
	}
	return constants.ExitBlock
}
