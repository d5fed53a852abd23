// Package constants defines shared constants used across the hookgate codebase.
package constants

import "os"

// File permissions
const (
	DirMode  os.FileMode = 0755
	FileMode os.FileMode = 0644
)

// Environment variables
const (
	EnvConfigDir = "HOOKGATE_CONFIG"
	EnvProfile   = "HOOKGATE_PROFILE"
	EnvRules     = "HOOKGATE_RULES"
	EnvStateDir  = "HOOKGATE_STATE_DIR"
	EnvAuditLog  = "HOOKGATE_AUDIT_LOG"

	// EnvProjectDir is set by Claude Code to the project root
	EnvProjectDir = "CLAUDE_PROJECT_DIR"
)

// Application paths
const (
	AppName         = "hookgate"
	XDGConfigSubdir = ".config"
	XDGStateSubdir  = ".local/state"
	ConfigFileName  = "config.toml"
	RulesFileName   = "skill-rules.json"
	ProjectRulesDir = ".claude/skills"
	SessionsDir     = "sessions"
	AuditFileName   = "audit.log"
)

// Exit codes understood by the agent runtime.
const (
	ExitAllow = 0
	ExitBlock = 2
)
