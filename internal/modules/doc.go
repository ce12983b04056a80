// Package modules contains all self-contained application features.
//
// Each subdirectory is a module that implements the `module.Module` interface:
// it registers its topics, then boots the actors that own its state. Modules
// are listed in `internal/app/modules.go` and are loaded by the application
// at startup.
package modules
