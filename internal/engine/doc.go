// Package engine drives a tree of instruction nodes through the build lifecycle.
//
// A build is a tree: the build node owns projects, projects own configurations and
// configurations may own variants. Every node owns ordered Steps and Plugins. The Engine
// runs the phases Prepare, PreFlightCheck, Setup, Execute, WrapUp, Report, Notify and
// ShutDown in that order, each as a complete pass over the whole tree. For one node a pass
// runs the node's own handler, then every child, then every enabled plugin, inside a
// scoped snapshot of the process environment.
//
// Plugin errors abort the pass unless the plugin is optional or the phase is one of the
// cleanup phases WrapUp, Report, Notify and ShutDown. Internal errors are never swallowed
// because a plugin is optional.
package engine
