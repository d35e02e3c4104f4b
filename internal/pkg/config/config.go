package config

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed default_config.yaml
var efs embed.FS

// Config holds the configuration for runviz.
type Config struct {
	Name     string
	IsStrict bool `mapstructure:"-"`
	Render   Rendering
	Outputs  Output `mapstructure:"-"`
	Defaults Defaults
	Metrics  []Metric

	metricIndex map[string]Metric
}

// GetMetric retrieves a metric definition by its ID.
func (c Config) GetMetric(id string) (Metric, bool) {
	v, ok := c.metricIndex[id]

	return v, ok
}

// FindMetric returns the definition of a metric label.
//
// A metric whose ID is equal to the label wins, otherwise the first metric whose regexp matches the label is returned.
func (c Config) FindMetric(label string) (Metric, bool) {
	if m, ok := c.GetMetric(label); ok {
		return m, true
	}

	for _, def := range c.Metrics {
		if _, ok := def.MatchString(label); ok {
			return def, true
		}
	}

	return Metric{}, false
}

// MetricTitle returns the y-axis title for a metric label.
//
// Labels without a metric definition are returned unchanged.
func (c Config) MetricTitle(label string) string {
	m, ok := c.FindMetric(label)
	if !ok {
		return label
	}

	return m.AxisTitle()
}

// EncodeYAML serializes a [Config] to YAML into the provided writer.
//
// Runtime-only fields (IsStrict, Outputs) are excluded from the output.
func (c *Config) EncodeYAML(w io.Writer) error {
	var raw map[string]any

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Squash: true,
		Deep:   true,
		Result: &raw,
	})
	if err != nil {
		return fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decoding config to map: %w", err)
	}

	return yaml.NewEncoder(w).Encode(raw)
}

// Rendering holds chart rendering settings (theme, legend, line aspect, screenshot).
type Rendering struct {
	Title      string
	Theme      string
	Legend     LegendPosition
	LineWidth  float64
	Boost      bool
	Screenshot Screenshot
}

// Screenshot configures the headless Chrome screenshot used for PNG rendering.
type Screenshot struct {
	Height int64
	Width  int64
	Sleep  string
}

// SleepDuration parses the Sleep field as a [time.Duration].
func (s Screenshot) SleepDuration() time.Duration {
	d, err := time.ParseDuration(s.Sleep)
	if d == 0 || err != nil {
		return 0
	}

	return d
}

// LegendPosition controls where the chart legend is displayed.
type LegendPosition string

// Supported legend positions.
const (
	LegendPositionNone   LegendPosition = "none"
	LegendPositionBottom LegendPosition = "bottom"
	LegendPositionTop    LegendPosition = "top"
	LegendPositionLeft   LegendPosition = "left"
	LegendPositionRight  LegendPosition = "right"
)

// Output holds the resolved output file paths for HTML and PNG rendering.
type Output struct {
	HTMLFile    string
	PngFile     string
	ContextFile string
	IsTemp      bool
}

// Defaults holds the display settings applied to a chart opened without a saved context.
type Defaults struct {
	Smoothing       int
	UseStep         model.StepMode
	StartAtFirst    bool
	DetailedTooltip bool
	Monochrome      bool
}

// Settings builds the initial chart settings from the configured defaults.
func (c Config) Settings() model.Settings {
	s := model.DefaultSettings()
	s.Smoothing = c.Defaults.Smoothing
	s.StartAtFirst = c.Defaults.StartAtFirst
	s.Monochrome = c.Defaults.Monochrome
	s.Display = model.Display{
		DetailedTooltip: c.Defaults.DetailedTooltip,
		Boost:           c.Render.Boost,
		LineWidth:       c.Render.LineWidth,
	}

	if c.Defaults.UseStep != "" {
		s.UseStep = c.Defaults.UseStep
	}

	return s
}

// Metric gives a display title and an axis unit to a metric label.
type Metric struct {
	Object `mapstructure:",deep,squash"`

	Axis string
}

// AxisTitle returns the y-axis title, e.g. "Training Loss (nats)".
func (m Metric) AxisTitle() string {
	if m.Axis == "" {
		return m.Title
	}

	return m.Title + " (" + m.Axis + ")"
}

// Object is the base type for regexp-matched configuration entries.
type Object struct {
	ID       string
	Title    string
	Match    string
	NotMatch string
	match    *regexp.Regexp
	notMatch *regexp.Regexp
}

// Matchers returns the compiled positive and negative match regexps.
func (o Object) Matchers() (match, notMatch *regexp.Regexp) {
	return o.match, o.notMatch
}

// MatchString reports whether name matches the object's positive regexp and not its negative regexp.
func (o Object) MatchString(name string) (id string, ok bool) {
	var matchOk, notMatchOk bool
	id = o.ID
	matcher, notMatcher := o.Matchers()

	if matcher == nil && notMatcher == nil {
		return "", false
	}

	if matcher != nil {
		matchOk = matcher.MatchString(name)
	}

	if notMatcher != nil {
		notMatchOk = notMatcher.MatchString(name)
	}

	if matchOk && !notMatchOk {
		return id, true
	}

	if matcher == nil && !notMatchOk {
		return id, true
	}

	return "", false
}

// Load a configuration file from the local file system.
func Load(file string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	fsys := os.DirFS(filepath.Dir(file))
	pth := filepath.Join(".", filepath.Base(file))

	return load(fsys, pth, cfg)
}

// LoadDefaults loads the default configuration from the embedded default_config.yaml.
func LoadDefaults() (*Config, error) {
	return loadDefaults()
}

func loadDefaults() (*Config, error) {
	return load(efs, "default_config.yaml", &Config{})
}

func load(fsys fs.FS, file string, cfg *Config) (*Config, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}

	var raw any
	err = yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, err
	}

	err = mapstructure.Decode(raw, cfg)
	if err != nil {
		return nil, err
	}

	cfg.metricIndex = make(map[string]Metric, len(cfg.Metrics))

	if err = cfg.validateDefaults(); err != nil {
		return nil, err
	}

	if err = cfg.validateMetrics(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateDefaults() error {
	if c.Defaults.UseStep != "" && !c.Defaults.UseStep.IsValid() {
		return fmt.Errorf("invalid defaults: %w: defaults.useStep=%q (should be one of %v)",
			model.ErrUnknownStepMode, c.Defaults.UseStep, model.AllStepModes(),
		)
	}

	if c.Defaults.Smoothing < 0 || c.Defaults.Smoothing > model.MaxSmoothing {
		return fmt.Errorf("invalid defaults: defaults.smoothing=%d (should be in [0,%d])", c.Defaults.Smoothing, model.MaxSmoothing)
	}

	if c.Render.LineWidth < 0 {
		return fmt.Errorf("invalid render: render.lineWidth=%v (should be positive)", c.Render.LineWidth)
	}

	return nil
}

func (c *Config) validateMetrics() error {
	for i, v := range c.Metrics {
		if v.ID == "" {
			return fmt.Errorf("invalid metrics: empty ID found: metrics[%d]", i)
		}
		if _, ok := c.metricIndex[v.ID]; ok {
			return fmt.Errorf("invalid metrics: duplicate ID key found: %s", v.ID)
		}
		if v.Title == "" {
			v.Title = titleize(v.ID)
		}

		match, notMatch, err := compileRex(v.Object)
		if err != nil {
			return fmt.Errorf("invalid regexp[metric %d - %s]: %w", i, v.ID, err)
		}
		v.match = match
		v.notMatch = notMatch

		c.Metrics[i] = v
		c.metricIndex[v.ID] = v
	}

	return nil
}

func compileRex(o Object) (match, notMatch *regexp.Regexp, err error) {
	if o.Match != "" {
		match, err = regexp.Compile(o.Match)
		if err != nil {
			return nil, nil, err
		}
	}
	if o.NotMatch != "" {
		notMatch, err = regexp.Compile(o.NotMatch)
		if err != nil {
			return nil, nil, err
		}
	}

	return match, notMatch, nil
}

func titleize(in string) string {
	caser := cases.Title(language.English, cases.NoLower) // the case is stateful: cannot declare it globally

	return caser.String(strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		default:
			return r
		}
	}, in,
	))
}

// GenerateInput holds the data needed by [Generate] to build a configuration
// from loaded charts.
type GenerateInput struct {
	Metrics []string
}

// Generate builds a [Config] scaffold from the metric labels found in the input charts.
//
// It creates one metric entry per unique label, with a titleized display title and the embedded default settings.
func Generate(input GenerateInput) *Config {
	defaults, err := loadDefaults()
	if err != nil {
		// embedded config must always parse
		panic(fmt.Sprintf("loading embedded defaults: %v", err))
	}

	cfg := &Config{
		Name:     "Generated Config",
		Render:   defaults.Render,
		Defaults: defaults.Defaults,
	}

	seen := make(map[string]struct{})
	for _, label := range input.Metrics {
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}

		cfg.Metrics = append(cfg.Metrics, Metric{
			Object: Object{
				ID:    label,
				Title: titleize(label),
			},
		})
	}

	return cfg
}
