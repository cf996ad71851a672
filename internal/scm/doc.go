// Package scm provides source code providers. A provider is described by a string of the
// form "<implementation>:<location>", for example "git:https://example.com/repo.git" or
// "localdir:/home/dev/project". Providers check out sources for the project-checkout
// step, archive them for project-package, and answer revision queries from the command
// line.
package scm
