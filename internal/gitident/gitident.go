// Package gitident auto-detects the user_id to tag onto memories, per
// config key memory.auto_tag_git_user: KUZU_MEMORY_USER, then
// `git config --get user.name`, cached for the life of the process. An
// explicit override (memory.user_id_override) is applied by the caller
// before this lookup.
package gitident

import (
	"os/exec"
	"strings"
	"sync"
)

var (
	cachedUser string
	once       sync.Once
)

// DetectUser returns the best available user_id: KUZU_MEMORY_USER env var,
// then git config user.name, then "" (unknown — callers leave user_id nil).
// The git config lookup is cached after first call.
func DetectUser(envLookup func(string) string) string {
	once.Do(func() {
		cachedUser = detectUserUncached(envLookup)
	})
	return cachedUser
}

func detectUserUncached(envLookup func(string) string) string {
	if envLookup != nil {
		if name := envLookup("KUZU_MEMORY_USER"); name != "" {
			return name
		}
	}
	if name := gitUserName(); name != "" {
		return name
	}
	return ""
}

// gitUserName runs `git config --get user.name` and returns the trimmed
// result, or "" on any error (no git, no config, not a repo).
func gitUserName() string {
	out, err := exec.Command("git", "config", "--get", "user.name").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
