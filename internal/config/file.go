package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// ErrConfigNotFound is returned by Load when the file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// FileName is the configuration file looked up in the working directory.
const FileName = "ingest.yaml"

// ConnectionSection holds destination settings.
type ConnectionSection struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password,omitempty"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	ConnectRetries *int   `yaml:"connect_retries,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// LoadSection holds source and table settings.
type LoadSection struct {
	Year            int    `yaml:"year"`
	Month           int    `yaml:"month"`
	Table           string `yaml:"table"`
	Chunksize       int    `yaml:"chunksize"`
	Mode            string `yaml:"mode"`
	Index           *bool  `yaml:"index,omitempty"`
	SourceURLPrefix string `yaml:"source_url_prefix,omitempty"`
	SourceDir       string `yaml:"source_dir,omitempty"`
}

// File is the content of ingest.yaml.
type File struct {
	Connection  ConnectionSection `yaml:"connection"`
	Load        LoadSection       `yaml:"load"`
	Timeout     string            `yaml:"timeout"`
	LogFormat   string            `yaml:"log_format"`
	Progress    string            `yaml:"progress"`
	MetricsFile string            `yaml:"metrics_file"`
}

// Load reads the YAML file at path. Unknown keys are rejected.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %v: %w", path, err, ingest.ErrInvalidConfig)
	}
	return &cfg, nil
}

// LoadOptional reads path, or FileName when path is empty. A missing default
// file yields nil without error; a missing explicit path is an error.
func LoadOptional(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	cfg, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) && !explicit {
		return nil, nil
	}
	if errors.Is(err, ErrConfigNotFound) {
		return nil, fmt.Errorf("%s: %w: %w", path, err, ingest.ErrInvalidConfig)
	}
	return cfg, err
}
