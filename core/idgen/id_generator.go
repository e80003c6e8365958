// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// entropyBytes is the number of random bytes appended to the timestamp.
const entropyBytes = 3

// Make makes a short ID from the wall-clock time of day and a few bytes of entropy.
//
// IDs are meant for correlating log lines, not for uniqueness guarantees.
func Make() string {
	return MakeAt(time.Now())
}

// MakeAt is Make with an explicit timestamp.
func MakeAt(t time.Time) string {
	var entropy [entropyBytes]byte

	_, _ = rand.Read(entropy[:])

	return t.Format("150405") + base64.RawURLEncoding.EncodeToString(entropy[:])
}
