package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/Koboldthegreat/river-tag-overlay/internal/config"
)

// overrides receives the configuration flags. Only flags the user set are
// copied onto the loaded configuration, so the file keeps precedence over
// flag defaults.
var overrides = config.DefaultConfig()

type intFlag struct {
	name  string
	usage string
	field func(*config.Config) *int
}

type valueFlag struct {
	name  string
	usage string
	field func(*config.Config) pflag.Value
}

var intFlags = []intFlag{
	{"border-width", "Width of the widget border",
		func(c *config.Config) *int { return &c.Geometry.BorderWidth }},
	{"tag-amount", "Number of tags shown",
		func(c *config.Config) *int { return &c.Geometry.TagAmount }},
	{"square-size", "Size of a tag square",
		func(c *config.Config) *int { return &c.Geometry.SquareSize }},
	{"square-inner-padding", "Padding around the occupied indicator",
		func(c *config.Config) *int { return &c.Geometry.SquareInnerPadding }},
	{"square-padding", "Padding between tag squares",
		func(c *config.Config) *int { return &c.Geometry.SquarePadding }},
	{"square-border-width", "Width of the tag square border",
		func(c *config.Config) *int { return &c.Geometry.SquareBorderWidth }},
}

var valueFlags = []valueFlag{
	{"background-colour", "Widget background colour",
		func(c *config.Config) pflag.Value { return &c.Colors.Background }},
	{"border-colour", "Widget border colour",
		func(c *config.Config) pflag.Value { return &c.Colors.Border }},
	{"square-active-background-colour", "Background colour of focused tags",
		func(c *config.Config) pflag.Value { return &c.Colors.Active.Background }},
	{"square-active-border-colour", "Border colour of focused tags",
		func(c *config.Config) pflag.Value { return &c.Colors.Active.Border }},
	{"square-active-occupied-colour", "Occupied indicator colour of focused tags",
		func(c *config.Config) pflag.Value { return &c.Colors.Active.Occupied }},
	{"square-inactive-background-colour", "Background colour of unfocused tags",
		func(c *config.Config) pflag.Value { return &c.Colors.Inactive.Background }},
	{"square-inactive-border-colour", "Border colour of unfocused tags",
		func(c *config.Config) pflag.Value { return &c.Colors.Inactive.Border }},
	{"square-inactive-occupied-colour", "Occupied indicator colour of unfocused tags",
		func(c *config.Config) pflag.Value { return &c.Colors.Inactive.Occupied }},
	{"square-urgent-background-colour", "Background colour of urgent tags",
		func(c *config.Config) pflag.Value { return &c.Colors.Urgent.Background }},
	{"square-urgent-border-colour", "Border colour of urgent tags",
		func(c *config.Config) pflag.Value { return &c.Colors.Urgent.Border }},
	{"square-urgent-occupied-colour", "Occupied indicator colour of urgent tags",
		func(c *config.Config) pflag.Value { return &c.Colors.Urgent.Occupied }},
	{"anchors", "Output edges to anchor to, as top:right:bottom:left with 1 for on",
		func(c *config.Config) pflag.Value { return &c.Placement.Anchors }},
	{"margins", "Margins from the anchored edges, as top:right:bottom:left",
		func(c *config.Config) pflag.Value { return &c.Placement.Margins }},
	{"duration", "How long the widget stays visible after the last change",
		func(c *config.Config) pflag.Value { return &c.Display.Duration }},
}

// registerConfigFlags adds one flag per configuration setting.
func registerConfigFlags(fs *pflag.FlagSet) {
	for _, f := range intFlags {
		p := f.field(overrides)
		fs.IntVar(p, f.name, *p, f.usage)
	}
	for _, f := range valueFlags {
		fs.Var(f.field(overrides), f.name, f.usage)
	}
}

// applyOverrides copies the flags the user set onto cfg.
func applyOverrides(fs *pflag.FlagSet, cfg *config.Config) error {
	for _, f := range intFlags {
		if fs.Changed(f.name) {
			*f.field(cfg) = *f.field(overrides)
		}
	}
	for _, f := range valueFlags {
		if fs.Changed(f.name) {
			if err := f.field(cfg).Set(f.field(overrides).String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// reloadConfig prepares a config read back from disk: flag overrides are
// reapplied and the result validated.
func reloadConfig(fs *pflag.FlagSet, cfg *config.Config) error {
	if err := applyOverrides(fs, cfg); err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
