// Package all registers all console commands.
package all

import (
	_ "github.com/robotalks/tower.go/pkg/cli/cmds/tower"
)
