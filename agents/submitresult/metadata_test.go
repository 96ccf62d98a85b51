/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package submitresult

import (
	"testing"
)

type answerResult struct {
	_ struct{} `submitresult:"name=submit_answer,payload=answer,description=Submit the final answer about the repository.,success=Answer recorded.,payloadDescription=Answer payload"`

	Text    string   `json:"text" jsonschema:"description=Answer text,required"`
	Sources []string `json:"sources" jsonschema:"description=Supporting evidence"`
}

type untaggedResult struct {
	Text string `json:"text"`
}

func TestOptionsForResponseMetadata(t *testing.T) {
	opts := OptionsForResponse[*answerResult]()
	if opts.ToolName != "submit_answer" {
		t.Errorf("ToolName = %q, want submit_answer", opts.ToolName)
	}
	if opts.PayloadFieldName != "answer" {
		t.Errorf("PayloadFieldName = %q, want answer", opts.PayloadFieldName)
	}
	if opts.Description != "Submit the final answer about the repository." {
		t.Errorf("Description = %q", opts.Description)
	}
	if opts.SuccessMessage != "Answer recorded." {
		t.Errorf("SuccessMessage = %q", opts.SuccessMessage)
	}
	if opts.PayloadDescription != "Answer payload" {
		t.Errorf("PayloadDescription = %q", opts.PayloadDescription)
	}
}

func TestOptionsForResponseUntagged(t *testing.T) {
	opts := OptionsForResponse[*untaggedResult]()
	if opts.ToolName != "" {
		t.Errorf("ToolName = %q, want empty for untagged type", opts.ToolName)
	}
	opts.setDefaults()
	if opts.ToolName != "submit_result" {
		t.Errorf("ToolName after defaults = %q, want submit_result", opts.ToolName)
	}
	if opts.PayloadFieldName != "result" {
		t.Errorf("PayloadFieldName after defaults = %q, want result", opts.PayloadFieldName)
	}
}
