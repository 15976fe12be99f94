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

// Package pkgmeta patches package metadata documents.
//
// The one edit this package performs is re-pinning dependsOn version
// constraints to the digests of locally pushed render images. The edit
// is line-based: the document goes back into a package layer byte for
// byte, so every untouched line must survive unchanged, including
// quoting, indentation, and comments a structured YAML round-trip
// would reflow. The block scanner understands just enough of
// the layout the project build tool emits: a dependsOn: key opens the
// block, dedent to column zero closes it, and list items carry package
// and version keys.
package pkgmeta

import (
	"strings"

	"github.com/xpdev-labs/xpdev/pkg/oci"
)

// Patch rewrites the version constraint of every dependsOn entry whose
// package matches a rewrite key, pinning it to that rewrite's digest.
// It returns the resulting document and whether anything changed. With
// an empty rewrite set the input is returned untouched.
func Patch(doc string, rewrites map[string]oci.RenderRewrite) (string, bool) {
	if len(rewrites) == 0 {
		return doc, false
	}

	var (
		out        []string
		changed    bool
		inBlock    bool
		currentPkg string
	)

	for line := range strings.Lines(doc) {
		line = strings.TrimSuffix(line, "\n")
		trimmed := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(trimmed)]

		switch {
		case strings.TrimSpace(line) == "dependsOn:":
			inBlock = true
			currentPkg = ""

		case inBlock && trimmed != "" && indent == "":
			// Dedent to column zero ends the block.
			inBlock = false
			currentPkg = ""

		case inBlock && strings.HasPrefix(trimmed, "- "):
			// New list item. The package key may appear inline.
			currentPkg = ""
			rest := strings.TrimLeft(trimmed[2:], " \t")
			if value, ok := strings.CutPrefix(rest, "package:"); ok {
				currentPkg = unquoteScalar(value)
			}

		case inBlock && strings.HasPrefix(trimmed, "package:"):
			currentPkg = unquoteScalar(strings.TrimPrefix(trimmed, "package:"))

		case inBlock && strings.HasPrefix(trimmed, "version:"):
			if rw, ok := rewrites[currentPkg]; ok && currentPkg != "" {
				out = append(out, indent+"version: "+rw.Digest)
				changed = true
				continue
			}
		}

		out = append(out, line)
	}

	result := strings.Join(out, "\n")
	if strings.HasSuffix(doc, "\n") {
		result += "\n"
	}

	return result, changed
}

// unquoteScalar trims a YAML scalar value and strips surrounding
// double and single quotes.
func unquoteScalar(value string) string {
	v := strings.TrimSpace(value)
	v = strings.Trim(v, `"`)
	v = strings.Trim(v, `'`)
	return v
}
