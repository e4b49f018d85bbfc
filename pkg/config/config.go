// Package config carries the toggles that affect how a compilation run
// behaves: language features and diagnostic warnings.
package config

type Feature int

const (
	FeatCaseFold Feature = iota
	FeatParenComments
	FeatCount
)

type Warning int

const (
	WarnStubIO Warning = iota
	WarnShadow
	WarnUnreachableCode
	WarnOverflow
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
}

func NewConfig() *Config {
	cfg := &Config{
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
	}

	cfg.Features = map[Feature]Info{
		FeatCaseFold:      {"case-fold", true, "Treat keywords case-insensitively."},
		FeatParenComments: {"paren-comments", true, "Recognize '(* *)' comments in addition to '{ }'."},
	}

	cfg.Warnings = map[Warning]Info{
		WarnStubIO:          {"stub-io", true, "Warn when read/readln is accepted but generates no code."},
		WarnShadow:          {"shadow", true, "Warn when a local or parameter shadows a global."},
		WarnUnreachableCode: {"unreachable-code", true, "Warn about statements after a return."},
		WarnOverflow:        {"overflow", true, "Warn when an integer literal is out of range."},
		WarnExtra:           {"extra", false, "Enable extra miscellaneous warnings."},
	}

	for ft, info := range cfg.Features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range cfg.Warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

func (c *Config) SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		c.SetWarning(i, enabled)
	}
}
