// Copyright (c) 2025, XPDEV LABS.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package crossplane

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// imageConfigNamePrefix marks ImageConfig resources owned by the
	// local sync so teardown can tell them apart from user-managed ones.
	imageConfigNamePrefix = "xpdev-rewrite-"

	// maxNameLength is the DNS-1123 label limit resource names must fit.
	maxNameLength = 63

	nameFallback            = "xrd"
	imageConfigBodyFallback = "image"
)

// SanitizeName reduces arbitrary input to a DNS-1123 label component:
// lowercased, every non-alphanumeric rune mapped to a hyphen, hyphen
// runs collapsed, ends trimmed. Inputs with no usable characters fall
// back to "xrd".
func SanitizeName(input string) string {
	return sanitize(input, nameFallback)
}

// ImageConfigName derives a deterministic resource name for the
// ImageConfig that rewrites pulls of source. The name embeds a short
// hash of the source so distinct prefixes never collide after the body
// is truncated to the label limit.
func ImageConfigName(source string) string {
	hash := shortHash(source)

	body := sanitize(source, imageConfigBodyFallback)
	maxBody := maxNameLength - len(imageConfigNamePrefix) - len(hash) - 1
	if len(body) > maxBody {
		body = body[:maxBody]
	}

	return imageConfigNamePrefix + body + "-" + hash
}

func sanitize(input, fallback string) string {
	out := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, strings.ToLower(input))

	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-")

	if out == "" {
		return fallback
	}
	return out
}

// shortHash returns the first eight hex digits of the SHA-256 of input.
// Stable across runs so repeated syncs address the same resources.
func shortHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:4])
}
