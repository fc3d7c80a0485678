// features.go - build-tag-gated feature reporting, adapted from the
// teacher's features.go: the same init()-registration idiom, reporting
// which optional backends this binary was built with instead of which
// audio/video chips it was built with.

package picagpu

import (
	"fmt"
	"io"
	"runtime"
	"sort"
)

// Version identifies this GPU core build.
const Version = "0.1.0"

// compiledFeatures tracks build-time feature flags registered by each
// optional file's init() (previewbackend_ebiten.go / previewbackend_headless.go).
var compiledFeatures []string

func registerFeature(name string) {
	compiledFeatures = append(compiledFeatures, name)
}

// PrintFeatures writes a version/feature banner to out, in the same
// shape as the teacher's printFeatures.
func PrintFeatures(out io.Writer) {
	fmt.Fprintf(out, "picagpu %s\n", Version)
	fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Compiled features:")

	features := append([]string(nil), compiledFeatures...)
	sort.Strings(features)
	for _, f := range features {
		fmt.Fprintf(out, "  %s\n", f)
	}
	if len(features) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
}
