// Package workspace locates Cordova projects and reports their identity.
//
// A workspace is a directory whose children are Cordova projects, the way an
// IDE workspace holds projects. A project is recognised by its config.xml.
//
// # Resolving Projects
//
// By name, inside the configured workspace root:
//
//	r := workspace.NewResolver("/home/me/workspace", nil)
//	p, err := r.Resolve("demo") // /home/me/workspace/demo
//
// Names are validated and joined with filepath-securejoin, so "../x" or a
// symlink pointing outside the root cannot select a directory elsewhere.
//
// By location, walking up from a directory:
//
//	p, err := r.Discover(".")
//
// # Identity
//
// Project.Key is the project name (the directory name). It is the key the
// lock registry serializes Cordova invocations on, so two commands for the
// same project never run at the same time.
//
// # Installed Platforms and Plugins
//
// Installed reads package.json with gjson:
//
//	{"cordova": {"platforms": ["android"], "plugins": {"cordova-plugin-device": {}}}}
package workspace
