// Package config parses environment definition files written in CUE.
//
// A definition file declares the environment name, the provider backend and
// its parameters, the SSH credentials for the instance, and the optional
// feature toggles. The file is unified with an embedded CUE schema before
// decoding, so structural errors surface with CUE's field-level positions,
// and the decoded struct is then checked with validator tags.
package config
