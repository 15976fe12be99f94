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

package docker

import (
	"context"
	"runtime"
	"strings"

	"github.com/xpdev-labs/xpdev/pkg/errors"
	"github.com/xpdev-labs/xpdev/pkg/runner"
)

const (
	binary = "docker"

	loadedImagePrefix = "Loaded image: "
	digestMarker      = "digest: sha256:"
)

// Docker wraps the docker CLI operations the sync flow needs.
type Docker struct {
	run runner.Runner
}

// New creates a docker client on top of the given process runner.
func New(run runner.Runner) *Docker {
	return &Docker{run: run}
}

// Load imports the images of a docker-save archive into the local
// store and returns the references reported as loaded, in order.
func (d *Docker) Load(ctx context.Context, archivePath string) ([]string, error) {
	out, err := d.run.Output(ctx, runner.Command{
		Name: binary,
		Args: []string{"load", "-i", archivePath},
	})
	if err != nil {
		return nil, err
	}
	return parseLoadedImages(out), nil
}

// Tag aliases source under target.
func (d *Docker) Tag(ctx context.Context, source, target string) error {
	return d.run.Run(ctx, runner.Command{
		Name: binary,
		Args: []string{"tag", source, target},
	})
}

// Push pushes image, streaming progress to the terminal.
func (d *Docker) Push(ctx context.Context, image string) error {
	return d.run.Run(ctx, runner.Command{
		Name: binary,
		Args: []string{"push", image},
	})
}

// PushCapturingDigest pushes image and returns the digest the registry
// reports for the pushed manifest. Progress still reaches the terminal
// while the stream is scanned.
func (d *Docker) PushCapturingDigest(ctx context.Context, image string) (string, error) {
	out, err := d.run.CombinedOutput(ctx, runner.Command{
		Name: binary,
		Args: []string{"push", image},
	})
	if err != nil {
		return "", err
	}

	digest, ok := parsePushDigest(out)
	if !ok {
		return "", errors.NewWithContext(errors.ErrCodeParse,
			"docker push output carried no digest",
			map[string]any{"image": image})
	}
	return digest, nil
}

// BuildFrom rebuilds source into tag through a single-instruction
// Dockerfile fed on stdin. The rebuild normalizes images whose OCI
// config the package build leaves incomplete.
func (d *Docker) BuildFrom(ctx context.Context, source, tag string) error {
	return d.run.Run(ctx, runner.Command{
		Name:  binary,
		Args:  []string{"build", "-t", tag, "-"},
		Stdin: "FROM " + source + "\n",
	})
}

// BuildDir builds the Dockerfile in dir into tag.
func (d *Docker) BuildDir(ctx context.Context, tag, dir string) error {
	return d.run.Run(ctx, runner.Command{
		Name: binary,
		Args: []string{"build", "-t", tag, dir},
	})
}

// Arch returns the platform architecture tag of the running binary.
// GOARCH values already use the names docker reports for the platforms
// the package build targets.
func Arch() string {
	return runtime.GOARCH
}

func parseLoadedImages(output string) []string {
	var images []string
	for line := range strings.Lines(output) {
		line = strings.TrimSuffix(line, "\n")
		if ref, ok := strings.CutPrefix(line, loadedImagePrefix); ok {
			images = append(images, strings.TrimSpace(ref))
		}
	}
	return images
}

// parsePushDigest scans push output for the first digest line and
// returns the digest token following the marker.
func parsePushDigest(output string) (string, bool) {
	for line := range strings.Lines(output) {
		idx := strings.Index(line, digestMarker)
		if idx < 0 {
			continue
		}

		rest := line[idx+len("digest: "):]
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return "", false
		}
		return fields[0], true
	}
	return "", false
}
