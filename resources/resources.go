// Package resources embeds the default data shipped with the binary.
package resources

import "embed"

// TriggerFiles holds the default triggers directory.
//
//go:embed triggers/*.yaml
var TriggerFiles embed.FS
