package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"

	"github.com/envlane/envlane/pkg/engine"
)

// envSchema constrains definition files at the CUE level. Feature toggles
// default to off and the SSH port defaults to 22, so minimal files stay
// minimal.
const envSchema = `
environment: {
	name: string & !=""
	provider: {
		kind: "lxd" | "hetzner"
		lxd?: {
			profile: string & !=""
			image:   string & !=""
		}
		hetzner?: {
			server_type: string & !=""
			location:    string & !=""
			token_env:   string & !=""
		}
	}
	ssh: {
		user:             string & !=""
		port:             int & >0 & <65536 | *22
		private_key_path: string & !=""
		public_key_path:  string & !=""
	}
	features: {
		monitoring: bool | *false
		firewall:   bool | *false
	}
}
`

// Parser parses environment definition files.
type Parser struct {
	ctx      *cue.Context
	schema   cue.Value
	validate *validator.Validate
}

// NewParser creates a definition parser with the embedded schema compiled.
func NewParser() (*Parser, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(envSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile environment schema: %w", err)
	}
	return &Parser{
		ctx:      ctx,
		schema:   schema,
		validate: validator.New(),
	}, nil
}

// ParseFile reads, unifies, and decodes one definition file.
func (p *Parser) ParseFile(path string) (*Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewValidationError(
			fmt.Sprintf("failed to read definition file %s", path), err).
			WithHint("check the path passed to --config")
	}
	return p.Parse(string(content), path)
}

// Parse unifies CUE source against the schema and decodes the environment.
func (p *Parser) Parse(source, filename string) (*Definition, error) {
	value := p.ctx.CompileString(source, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, cueError("definition file is not valid CUE", err)
	}

	unified := p.schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError("definition file does not match the environment schema", err)
	}

	envValue := unified.LookupPath(cue.ParsePath("environment"))
	if !envValue.Exists() {
		return nil, engine.NewValidationError("definition file has no environment block", nil).
			WithHint("top-level key must be \"environment\"")
	}

	def := &Definition{}
	if err := envValue.Decode(def); err != nil {
		return nil, cueError("failed to decode environment definition", err)
	}

	if err := p.validate.Struct(def); err != nil {
		return nil, engine.NewValidationError("environment definition failed validation", err)
	}
	if err := p.checkProviderBlock(def); err != nil {
		return nil, err
	}
	return def, nil
}

// checkProviderBlock enforces that the provider block matching the kind is
// present and the other one is absent.
func (p *Parser) checkProviderBlock(def *Definition) error {
	switch def.Provider.Kind {
	case "lxd":
		if def.Provider.LXD == nil {
			return engine.NewValidationError("provider kind lxd requires an lxd block", nil)
		}
		if def.Provider.Hetzner != nil {
			return engine.NewValidationError("provider kind lxd must not carry a hetzner block", nil)
		}
	case "hetzner":
		if def.Provider.Hetzner == nil {
			return engine.NewValidationError("provider kind hetzner requires a hetzner block", nil)
		}
		if def.Provider.LXD != nil {
			return engine.NewValidationError("provider kind hetzner must not carry an lxd block", nil)
		}
	}
	return nil
}

// cueError folds CUE's positioned error list into one validation error.
func cueError(message string, err error) error {
	details := cueerrors.Details(err, nil)
	return engine.NewValidationError(message, fmt.Errorf("%s", details))
}
