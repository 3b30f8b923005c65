package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSegmentation() (*SegmentationData, error)
	GetStorageConfig() (*StorageData, error)
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Data         DataData         `json:"data"`
	Segmentation SegmentationData `json:"segmentation"`
	Output       OutputData       `json:"output"`
	Storage      StorageData      `json:"storage,omitempty"`
}

// DataData describes where the behavioural recordings live
type DataData struct {
	SubjectsDir     string   `json:"subjects_dir"`
	IndicesDir      string   `json:"indices_dir"`
	OutputDir       string   `json:"output_dir"`
	TrialStore      string   `json:"trial_store"`
	SubjectPrefixes []string `json:"subject_prefixes,omitempty"`
	ExcludeSubjects []string `json:"exclude_subjects,omitempty"`
	Runs            []string `json:"runs,omitempty"`
}

// SegmentationData holds the event segmentation parameters
type SegmentationData struct {
	SpeedThreshold float64 `json:"speed_threshold"`
	MinDuration    float64 `json:"min_duration"`
	Smoothness     float64 `json:"smoothness"`
	Decimals       int32   `json:"decimals"`
	ConditionGap   float64 `json:"condition_gap"`
}

// OutputData controls how event tables are written
type OutputData struct {
	Format           string `json:"format"`
	FilenameTemplate string `json:"filename_template"`
}

// StorageData holds optional event sinks in addition to the event table files
type StorageData struct {
	Postgres *PostgresData `json:"postgres,omitempty"`
}

// PostgresData configures the database event sink
type PostgresData struct {
	ConnectionString string `json:"connection_string"`
}

// Output formats
const (
	FormatText    = "text"
	FormatMsgPack = "msgpack"
)

// Defaults used when the configuration leaves a field unset
var (
	DefaultSubjectPrefixes  = []string{"P", "S"}
	DefaultRuns             = []string{"mrt01", "mrt02"}
	DefaultFilenameTemplate = "eventTable_run{{.RunNumber}}_{{.Subject}}.txt"
)

// DefaultSegmentation returns the parameters the scanner study was analysed with
func DefaultSegmentation() SegmentationData {
	return SegmentationData{
		SpeedThreshold: 10,
		MinDuration:    0.5,
		Smoothness:     2,
		Decimals:       4,
		ConditionGap:   20,
	}
}

// ApplyDefaults fills unset fields with their defaults
func (c *ConfigData) ApplyDefaults() {
	if len(c.Data.SubjectPrefixes) == 0 {
		c.Data.SubjectPrefixes = slices.Clone(DefaultSubjectPrefixes)
	}
	if len(c.Data.Runs) == 0 {
		c.Data.Runs = slices.Clone(DefaultRuns)
	}
	if c.Data.SubjectsDir == "" {
		c.Data.SubjectsDir = "."
	}
	if c.Data.IndicesDir == "" {
		c.Data.IndicesDir = "Indices"
	}

	def := DefaultSegmentation()
	if c.Segmentation.SpeedThreshold == 0 {
		c.Segmentation.SpeedThreshold = def.SpeedThreshold
	}
	if c.Segmentation.MinDuration == 0 {
		c.Segmentation.MinDuration = def.MinDuration
	}
	if c.Segmentation.Smoothness == 0 {
		c.Segmentation.Smoothness = def.Smoothness
	}
	if c.Segmentation.Decimals == 0 {
		c.Segmentation.Decimals = def.Decimals
	}
	if c.Segmentation.ConditionGap == 0 {
		c.Segmentation.ConditionGap = def.ConditionGap
	}

	if c.Output.Format == "" {
		c.Output.Format = FormatText
	}
	if c.Output.FilenameTemplate == "" {
		c.Output.FilenameTemplate = DefaultFilenameTemplate
	}
}

// Validate checks the configuration for values the pipeline cannot work with
func (c *ConfigData) Validate() error {
	var errs []error

	if c.Data.OutputDir == "" {
		errs = append(errs, errors.New("data.output_dir is required"))
	}
	if c.Data.TrialStore == "" {
		errs = append(errs, errors.New("data.trial_store is required"))
	}
	for _, run := range c.Data.Runs {
		if run == "" || !strings.ContainsAny(run[len(run)-1:], "0123456789") {
			errs = append(errs, fmt.Errorf("run %q must end in a digit", run))
		}
	}
	if c.Segmentation.SpeedThreshold < 0 {
		errs = append(errs, errors.New("segmentation.speed_threshold must not be negative"))
	}
	if c.Segmentation.MinDuration < 0 {
		errs = append(errs, errors.New("segmentation.min_duration must not be negative"))
	}
	if c.Segmentation.Smoothness < 0 {
		errs = append(errs, errors.New("segmentation.smoothness must not be negative"))
	}
	if c.Segmentation.Decimals < 0 {
		errs = append(errs, errors.New("segmentation.decimals must not be negative"))
	}
	switch c.Output.Format {
	case FormatText, FormatMsgPack:
	default:
		errs = append(errs, fmt.Errorf("unsupported output format %q", c.Output.Format))
	}
	if _, err := template.New("filename").Parse(c.Output.FilenameTemplate); err != nil {
		errs = append(errs, fmt.Errorf("bad output.filename_template: %w", err))
	}
	if c.Storage.Postgres != nil && c.Storage.Postgres.ConnectionString == "" {
		errs = append(errs, errors.New("storage.postgres.connection_string is required when postgres is configured"))
	}

	return errors.Join(errs...)
}
