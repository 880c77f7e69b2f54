package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig is one sink declared in the publishers file. Exactly the block
// matching Type is consulted.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
}

type SQSPublisherConfig struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	Region    string `json:"region" yaml:"region"`
	AWSAccess `yaml:",inline"`
}

type SNSPublisherConfig struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	Region    string `json:"region" yaml:"region"`
	AWSAccess `yaml:",inline"`
}

// PubSubPublisherConfig holds GCP Pub/Sub settings. CredentialsFile is optional;
// application default credentials are used when it is empty.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig describes a webhook receiving each event as a JSON body.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// sinkSettings is implemented by every per-type settings block.
type sinkSettings interface {
	normalize()
	check(id string) error
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSAccess = c.AWSAccess.sanitized()
}

func (c *SQSPublisherConfig) check(id string) error {
	if c.QueueURL == "" {
		return fmt.Errorf("sqs.uri is required for publisher %q", id)
	}
	if c.Region == "" {
		return fmt.Errorf("sqs.region is required for publisher %q", id)
	}
	return c.AWSAccess.validate(TypeSQS, id)
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSAccess = c.AWSAccess.sanitized()
}

func (c *SNSPublisherConfig) check(id string) error {
	if c.TopicARN == "" {
		return fmt.Errorf("sns.topic_arn is required for publisher %q", id)
	}
	if c.Region == "" {
		return fmt.Errorf("sns.region is required for publisher %q", id)
	}
	return c.AWSAccess.validate(TypeSNS, id)
}

func (c *PubSubPublisherConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
}

func (c *PubSubPublisherConfig) check(id string) error {
	if c.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id is required for publisher %q", id)
	}
	if c.Topic == "" {
		return fmt.Errorf("pubsub.topic is required for publisher %q", id)
	}
	return nil
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (c *HTTPPublisherConfig) check(id string) error {
	if c.URL == "" {
		return fmt.Errorf("http.url is required for publisher %q", id)
	}
	return nil
}

// settings returns the block for cfg.Type. ok is false for types without a
// settings block; present reports whether the block was declared.
func (cfg PublisherConfig) settings() (s sinkSettings, present, ok bool) {
	switch cfg.Type {
	case TypeSQS:
		return cfg.SQS, cfg.SQS != nil, true
	case TypeSNS:
		return cfg.SNS, cfg.SNS != nil, true
	case TypePubSub:
		return cfg.PubSub, cfg.PubSub != nil, true
	case TypeHTTP:
		return cfg.HTTP, cfg.HTTP != nil, true
	}
	return nil, false, false
}

// sanitizePublisherConfig returns a copy with trimmed fields and defaults applied.
// Settings blocks are copied so the decoded file is never aliased.
func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}
	if cfg.SQS != nil {
		c := *cfg.SQS
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		cfg.SNS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		cfg.PubSub = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		cfg.HTTP = &c
	}
	if s, present, _ := cfg.settings(); present {
		s.normalize()
	}
	return cfg
}

// validatePublisherConfig checks the fields the matching builder needs. Unknown
// types pass here and are rejected when a builder is looked up.
func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	}
	s, present, known := cfg.settings()
	if !known {
		return nil
	}
	if !present {
		return fmt.Errorf("%s config required for publisher %q", cfg.Type, cfg.ID)
	}
	return s.check(cfg.ID)
}

// EnabledValue reports the enabled flag, which defaults to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// ConfigRegistry holds the validated publisher entries of one file, in file order.
type ConfigRegistry struct {
	mu      sync.RWMutex
	entries []PublisherConfig
	byID    map[string]int
}

// LoadRegistry reads a YAML or JSON publishers file. The format follows the file
// extension; anything else is decoded as YAML, which also reads JSON.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	entries, err := decodePublishers(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		entries: make([]PublisherConfig, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for i, entry := range entries {
		cfg := sanitizePublisherConfig(entry)
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.byID[cfg.ID] = len(reg.entries)
		reg.entries = append(reg.entries, cfg)
	}
	return reg, nil
}

func decodePublishers(raw []byte, ext string) ([]PublisherConfig, error) {
	var file struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("decode yaml publishers: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("decode json publishers: %w", err)
		}
	default:
		// The YAML decoder also accepts JSON documents.
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, errors.New("publishers file format not recognized (expected YAML or JSON)")
		}
	}
	return file.Publishers, nil
}

// ByID returns the entry with the given id, enabled or not.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.entries[i], true
}

// Enabled returns the entries whose enabled flag is set, in file order.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PublisherConfig
	for _, cfg := range r.entries {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}
