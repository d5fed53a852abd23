// hookgate - security gate and skill activator for agent runtime hooks
//
// For tool events it blocks dangerous shell commands (rm -rf, curl | sh,
// mkfs, ...) and reads or writes of sensitive files (.env, SSH keys, cloud
// credentials). For prompt events it prints the skills whose triggers match
// the prompt and the files in context.
//
// Usage in ~/.claude/settings.json:
//
//	"hooks": {
//	  "PreToolUse": [{
//	    "matcher": "Bash|Read|Write|Edit|MultiEdit|NotebookEdit",
//	    "hooks": [{"type": "command", "command": "hookgate"}]
//	  }],
//	  "UserPromptSubmit": [{
//	    "hooks": [{"type": "command", "command": "hookgate --store-session"}]
//	  }]
//	}
//
// Test:
//
//	echo '{"tool_name": "Bash", "tool_input": {"command": "sudo rm -rf /"}}' | hookgate; echo $?
package main

import (
	"os"

	"github.com/dgerlanc/hookgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
