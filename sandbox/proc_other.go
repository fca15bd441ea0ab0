//go:build !unix

package sandbox

import "os/exec"

// configureProcessGroup keeps exec's default kill of the direct child.
// Descendants of the guest are not killed on these platforms.
func configureProcessGroup(_ *exec.Cmd) {}
