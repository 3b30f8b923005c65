package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

type yamlConfig struct {
	Data struct {
		SubjectsDir     string   `yaml:"subjects_dir"`
		IndicesDir      string   `yaml:"indices_dir"`
		OutputDir       string   `yaml:"output_dir"`
		TrialStore      string   `yaml:"trial_store"`
		SubjectPrefixes []string `yaml:"subject_prefixes,omitempty"`
		ExcludeSubjects []string `yaml:"exclude_subjects,omitempty"`
		Runs            []string `yaml:"runs,omitempty"`
	} `yaml:"data"`
	Segmentation struct {
		SpeedThreshold float64 `yaml:"speed_threshold,omitempty"`
		MinDuration    float64 `yaml:"min_duration,omitempty"`
		Smoothness     float64 `yaml:"smoothness,omitempty"`
		Decimals       int32   `yaml:"decimals,omitempty"`
		ConditionGap   float64 `yaml:"condition_gap,omitempty"`
	} `yaml:"segmentation,omitempty"`
	Output struct {
		Format           string `yaml:"format,omitempty"`
		FilenameTemplate string `yaml:"filename_template,omitempty"`
	} `yaml:"output,omitempty"`
	Storage struct {
		Postgres *struct {
			ConnectionString string `yaml:"connection_string"`
		} `yaml:"postgres,omitempty"`
	} `yaml:"storage,omitempty"`
}

// LoadConfig loads the complete configuration from the YAML file, applies
// defaults and validates it
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := parseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

func parseYAML(raw []byte) (*ConfigData, error) {
	var yc yamlConfig
	if err := yaml.UnmarshalStrict(raw, &yc); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Data: DataData{
			SubjectsDir:     yc.Data.SubjectsDir,
			IndicesDir:      yc.Data.IndicesDir,
			OutputDir:       yc.Data.OutputDir,
			TrialStore:      yc.Data.TrialStore,
			SubjectPrefixes: yc.Data.SubjectPrefixes,
			ExcludeSubjects: yc.Data.ExcludeSubjects,
			Runs:            yc.Data.Runs,
		},
		Segmentation: SegmentationData{
			SpeedThreshold: yc.Segmentation.SpeedThreshold,
			MinDuration:    yc.Segmentation.MinDuration,
			Smoothness:     yc.Segmentation.Smoothness,
			Decimals:       yc.Segmentation.Decimals,
			ConditionGap:   yc.Segmentation.ConditionGap,
		},
		Output: OutputData{
			Format:           yc.Output.Format,
			FilenameTemplate: yc.Output.FilenameTemplate,
		},
	}

	if yc.Storage.Postgres != nil {
		config.Storage.Postgres = &PostgresData{
			ConnectionString: yc.Storage.Postgres.ConnectionString,
		}
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetSegmentation returns the segmentation parameters
func (y *YAMLProvider) GetSegmentation() (*SegmentationData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Segmentation, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}
