package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iguv/weekly"
)

// Publish targets.
const (
	TargetEndpoint  = "endpoint"
	TargetPage      = "page"
	TargetElementor = "elementor"
	TargetFile      = "file"
)

// Config is the configuration of one invocation. Generate and Publish are
// nil when the command does not need them.
type Config struct {
	WPBase   string `env:"WP_BASE" validate:"omitempty,url"`
	Collect  CollectFlags
	Generate *GenerateFlags
	Publish  *PublishFlags
}

// NewConfig assembles the configuration used by command.
func NewConfig(cli *CLI, command string) *Config {
	cfg := &Config{WPBase: strings.TrimRight(cli.WPBase, "/")}
	switch command {
	case "run":
		cfg.Collect = cli.Run.CollectFlags
		cfg.Generate = &cli.Run.GenerateFlags
		cfg.Publish = &cli.Run.PublishFlags
	case "preview":
		cfg.Collect = cli.Preview.CollectFlags
		cfg.Generate = &cli.Preview.GenerateFlags
	case "collect":
		cfg.Collect = cli.Collect.CollectFlags
	case "events":
		cfg.Collect = cli.Events.CollectFlags
	}
	return cfg
}

// Validate reports every missing or invalid setting in a single EINVALID
// error.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return configError(err, false)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(settingName)
	v.RegisterStructValidation(validatePublishTarget, Config{})
	return v
}

// settingName names a field the way the user sets it: its environment
// variable, its flag or its YAML key.
func settingName(f reflect.StructField) string {
	if env := f.Tag.Get("env"); env != "" {
		return env
	}
	if name := f.Tag.Get("name"); name != "" {
		return "--" + name
	}
	if key, _, _ := strings.Cut(f.Tag.Get("yaml"), ","); key != "" && key != "-" {
		return key
	}
	return f.Name
}

// validatePublishTarget checks the settings each target depends on.
func validatePublishTarget(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.Publish == nil {
		return
	}
	if c.Publish.Target != TargetFile && c.WPBase == "" {
		sl.ReportError(c.WPBase, "WP_BASE", "WPBase", "required", "")
	}
	switch c.Publish.Target {
	case TargetPage, TargetElementor:
		if c.Publish.PageID == 0 {
			sl.ReportError(c.Publish.PageID, "WP_PAGE_ID", "PageID", "required", "")
		}
	case TargetFile:
		if c.Publish.Output == "" {
			sl.ReportError(c.Publish.Output, "--output", "Output", "required", "")
		}
	}
}

// configError turns validation failures into one message listing missing
// settings first, then invalid ones. With namespaced set, fields are named
// by their full path, for entries of a list.
func configError(err error, namespaced bool) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return weekly.Errorf(weekly.EINVALID, "invalid configuration: %v", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		name := fe.Field()
		if namespaced {
			_, name, _ = strings.Cut(fe.Namespace(), ".")
		}
		if strings.HasPrefix(fe.Tag(), "required") {
			missing = append(missing, name)
			continue
		}
		if fe.Param() != "" {
			invalid = append(invalid, fmt.Sprintf("%s (%s=%s)", name, fe.Tag(), fe.Param()))
		} else {
			invalid = append(invalid, fmt.Sprintf("%s (%s)", name, fe.Tag()))
		}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(invalid, ", "))
	}
	return weekly.Errorf(weekly.EINVALID, "configuration incomplete: %s", strings.Join(parts, "; "))
}
