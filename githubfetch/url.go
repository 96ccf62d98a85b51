/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubfetch

import (
	"fmt"
	"regexp"
	"strings"
)

// repoPattern matches the owner/repo portion of a github.com URL.
var repoPattern = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s?#]+)`)

// ParseRepoURL extracts the owner and repository name from either a
// github.com URL (with or without scheme, optionally ending in .git) or a
// bare "owner/repo" string.
func ParseRepoURL(s string) (owner, repo string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", fmt.Errorf("empty repository reference")
	}

	if m := repoPattern.FindStringSubmatch(s); m != nil {
		return m[1], strings.TrimSuffix(m[2], ".git"), nil
	}

	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
	}
	return "", "", fmt.Errorf("invalid repository reference %q: expected a github.com URL or owner/repo", s)
}
