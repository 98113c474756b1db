package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/nbflow/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// hclFile mirrors the file layout. Pointer fields stay nil when the attribute
// is absent so defaults survive.
type hclFile struct {
	Engine          *hclEngine `hcl:"engine,block"`
	Log             *hclLog    `hcl:"log,block"`
	HealthcheckPort *int       `hcl:"healthcheck_port,optional"`
}

type hclEngine struct {
	Transport          *string `hcl:"transport,optional"`
	URL                *string `hcl:"url,optional"`
	Namespace          *string `hcl:"namespace,optional"`
	Event              *string `hcl:"event,optional"`
	CommTarget         *string `hcl:"comm_target,optional"`
	DialTimeout        *string `hcl:"dial_timeout,optional"`
	InsecureSkipVerify *bool   `hcl:"insecure_skip_verify,optional"`
}

type hclLog struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

// Load reads the HCL file at path on top of Default and validates the
// result. An empty path yields the defaults.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := Default()
	if path == "" {
		logger.Debug("No config file given, using defaults")
		return cfg, cfg.Validate()
	}

	logger.Debug("Loading config file", "path", path)
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, evalContext(os.Environ()), &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}

	if err := parsed.apply(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Config loaded", "transport", cfg.Engine.Transport, "url", cfg.Engine.URL)
	return cfg, nil
}

// evalContext exposes environ as the `env` object.
func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

func (f *hclFile) apply(cfg *Config) error {
	if f.HealthcheckPort != nil {
		cfg.HealthcheckPort = *f.HealthcheckPort
	}
	if l := f.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
		setString(&cfg.Log.Format, l.Format)
	}

	e := f.Engine
	if e == nil {
		return nil
	}
	setString(&cfg.Engine.Transport, e.Transport)
	setString(&cfg.Engine.URL, e.URL)
	setString(&cfg.Engine.Namespace, e.Namespace)
	setString(&cfg.Engine.Event, e.Event)
	setString(&cfg.Engine.CommTarget, e.CommTarget)
	if e.InsecureSkipVerify != nil {
		cfg.Engine.InsecureSkipVerify = *e.InsecureSkipVerify
	}
	if e.DialTimeout != nil {
		d, err := time.ParseDuration(*e.DialTimeout)
		if err != nil {
			return fmt.Errorf("engine.dial_timeout: %w", err)
		}
		cfg.Engine.DialTimeout = d
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
