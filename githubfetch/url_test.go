/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubfetch

import "testing"

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{{
		name:      "https URL",
		input:     "https://github.com/golang/go",
		wantOwner: "golang",
		wantRepo:  "go",
	}, {
		name:      "URL with .git suffix",
		input:     "https://github.com/golang/go.git",
		wantOwner: "golang",
		wantRepo:  "go",
	}, {
		name:      "URL with trailing path",
		input:     "https://github.com/golang/go/tree/master/src",
		wantOwner: "golang",
		wantRepo:  "go",
	}, {
		name:      "bare host",
		input:     "github.com/chainguard-dev/clog",
		wantOwner: "chainguard-dev",
		wantRepo:  "clog",
	}, {
		name:      "owner/repo shorthand",
		input:     "golang/go",
		wantOwner: "golang",
		wantRepo:  "go",
	}, {
		name:      "shorthand with whitespace",
		input:     "  golang/go\n",
		wantOwner: "golang",
		wantRepo:  "go",
	}, {
		name:    "empty",
		input:   "",
		wantErr: true,
	}, {
		name:    "bare word",
		input:   "golang",
		wantErr: true,
	}, {
		name:    "too many segments",
		input:   "a/b/c",
		wantErr: true,
	}}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseRepoURL(%q) error = nil, want error", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRepoURL(%q) error = %v", tc.input, err)
			}
			if owner != tc.wantOwner || repo != tc.wantRepo {
				t.Errorf("ParseRepoURL(%q) = (%q, %q), want (%q, %q)",
					tc.input, owner, repo, tc.wantOwner, tc.wantRepo)
			}
		})
	}
}
