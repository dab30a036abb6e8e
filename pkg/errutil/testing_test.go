// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/permitd/permitd/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("NO_ACTIVE_POLICY").Errorf("nothing active")
	// Should not fail
	errutil.AssertErrorCode(t, err, "NO_ACTIVE_POLICY")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("policy_name", "default").Errorf("create failed")
	// Should not fail
	errutil.AssertErrorContext(t, err, "policy_name", "default")
}
