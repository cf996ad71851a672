// Package execution implements the leaf of the build engine: Actions, the Runners that give
// them behavior, and Steps that group actions into ordered pre, main and post lists.
//
// An Action is a failure boundary. Runner errors that belong to the configuration, build or
// timeout categories become the action's integer result; only internal errors escape to the
// caller. A Step turns action results into a Step result and never aborts the phase walk.
package execution
