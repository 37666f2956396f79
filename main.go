// SPDX-License-Identifier: MPL-2.0

// Command versionfetch resolves Minecraft sub-versions and renders build files.
package main

import cmd "github.com/chococar-site/versionfetch/cmd/versionfetch"

func main() {
	cmd.Execute()
}
