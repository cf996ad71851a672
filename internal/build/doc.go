// Package build turns a build description into an instruction tree and runs it.
//
// Every entry point (the build command, the describe command, tests) goes through
// TreeBuilder to create the tree and through BuildService to run it.
package build
