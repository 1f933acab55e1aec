// Package tools implements the external collaborators the workflow engine
// drives: an OpenTofu subprocess wrapper for infrastructure, an Ansible
// wrapper for host configuration, a docker compose runner executed over the
// SSH transport, and a template directory renderer.
//
// Each type implements the corresponding interface from pkg/engine, so the
// engine stays testable against fakes while the real binaries are only
// required at runtime.
package tools
