// Package engine orchestrates environment lifecycle workflows.
//
// Each lifecycle command (provision, configure, release, run, destroy) is a
// workflow: a fixed ordered list of steps executed fail-fast against one
// environment. Steps are small capability objects over the collaborator
// interfaces (Provisioner, PlaybookRunner, ComposeRunner, Renderer,
// Transport) and know nothing about lifecycle phases; the phase handlers own
// the typed transitions and persist a snapshot before and after running the
// steps, so a crash mid-workflow leaves the environment visibly in-progress
// rather than silently inconsistent.
package engine
