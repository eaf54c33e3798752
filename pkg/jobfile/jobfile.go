// Package jobfile decodes the jobs section of the configuration file.
//
// The YAML node tree is walked directly instead of unmarshalling into maps,
// which would lose the order of jobs and of include/exclude rules.
package jobfile

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/yurykabanov/dupjob/pkg/domain"
)

// Document holds the jobs in file order. Global settings such as the
// destination are read through the configuration layer.
type Document struct {
	Jobs []domain.JobConfig
}

// jobNode mirrors the scalar settings of a job. Filters are read separately
// from the mapping so their order survives.
type jobNode struct {
	Source                  string        `yaml:"source"`
	Destination             string        `yaml:"destination"`
	ArchiveName             string        `yaml:"archive_name"`
	Retention               *int          `yaml:"retention"`
	Type                    string        `yaml:"type"`
	FullIfOlder             *int          `yaml:"fullifolder"`
	Schedule                *scheduleNode `yaml:"schedule"`
	PreScript               commandNode   `yaml:"pre_script"`
	PreScriptTimeout        *int          `yaml:"pre_script_timeout"`
	AbortOnPreScriptFailure *bool         `yaml:"abort_on_pre_script_failure"`
	Encrypt                 *bool         `yaml:"encrypt"`
	Compress                *bool         `yaml:"compress"`
	CacheMaxAge             *int          `yaml:"cache_max_age"`
}

type scheduleNode struct {
	Minute *int `yaml:"minute"`
	Hour   *int `yaml:"hour"`
}

// commandNode accepts either "path" or ["path", "arg", ...].
type commandNode struct {
	set    bool
	tokens []string
}

func (c *commandNode) UnmarshalYAML(value *yaml.Node) error {
	c.set = true

	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" {
			c.set = false
			return nil
		}
		c.tokens = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		c.tokens = []string{}
		return value.Decode(&c.tokens)
	default:
		return fmt.Errorf("line %d: expected a command string or a list of tokens", value.Line)
	}
}

var jobKeys = map[string]bool{
	"source": true, "destination": true, "archive_name": true, "retention": true,
	"type": true, "fullifolder": true, "schedule": true, "pre_script": true,
	"pre_script_timeout": true, "abort_on_pre_script_failure": true,
	"encrypt": true, "compress": true, "cache_max_age": true,
	"include": true, "exclude": true, "filters": true,
}

func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to open jobs file")
	}
	defer f.Close()

	return Decode(f)
}

func Decode(r io.Reader) (*Document, error) {
	var root yaml.Node

	err := yaml.NewDecoder(r).Decode(&root)
	if err == io.EOF {
		return &Document{}, nil
	}
	if err != nil {
		return nil, &domain.ConfigError{Field: "yaml", Reason: err.Error()}
	}

	doc := &Document{}

	if len(root.Content) == 0 {
		return doc, nil
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &domain.ConfigError{Field: "yaml", Reason: "top level must be a mapping"}
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]

		if key.Value != "jobs" {
			continue
		}

		jobs, err := decodeJobs(value)
		if err != nil {
			return nil, err
		}
		doc.Jobs = jobs
	}

	return doc, nil
}

func decodeJobs(node *yaml.Node) ([]domain.JobConfig, error) {
	if node.ShortTag() == "!!null" {
		return nil, nil
	}

	if node.Kind != yaml.MappingNode {
		return nil, &domain.ConfigError{Field: "jobs", Reason: "must be a mapping of job name to definition"}
	}

	seen := make(map[string]bool, len(node.Content)/2)
	jobs := make([]domain.JobConfig, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value

		if seen[name] {
			return nil, &domain.ConfigError{Job: name, Field: "name", Reason: "duplicate job name"}
		}
		seen[name] = true

		job, err := decodeJob(name, node.Content[i+1])
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

func decodeJob(name string, node *yaml.Node) (domain.JobConfig, error) {
	if node.Kind != yaml.MappingNode {
		return domain.JobConfig{}, &domain.ConfigError{Job: name, Field: "definition", Reason: "must be a mapping"}
	}

	var filters []domain.Filter

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]

		if !jobKeys[key] {
			return domain.JobConfig{}, &domain.ConfigError{Job: name, Field: key, Reason: "unknown setting"}
		}

		var err error

		switch key {
		case "include":
			filters, err = appendPatterns(filters, domain.FilterInclude, value)
		case "exclude":
			filters, err = appendPatterns(filters, domain.FilterExclude, value)
		case "filters":
			filters, err = appendRules(filters, value)
		}

		if err != nil {
			return domain.JobConfig{}, &domain.ConfigError{Job: name, Field: key, Reason: err.Error()}
		}
	}

	var n jobNode
	if err := node.Decode(&n); err != nil {
		return domain.JobConfig{}, &domain.ConfigError{Job: name, Field: "definition", Reason: err.Error()}
	}

	c := domain.JobConfig{
		Name:                    name,
		Source:                  n.Source,
		Destination:             n.Destination,
		ArchiveName:             n.ArchiveName,
		Retention:               n.Retention,
		Type:                    n.Type,
		FullIfOlder:             n.FullIfOlder,
		PreScriptTimeout:        n.PreScriptTimeout,
		AbortOnPreScriptFailure: n.AbortOnPreScriptFailure,
		Encrypt:                 n.Encrypt,
		Compress:                n.Compress,
		Filters:                 filters,
		CacheMaxAge:             n.CacheMaxAge,
	}

	if n.Schedule != nil {
		c.Schedule = &domain.ScheduleConfig{Minute: n.Schedule.Minute, Hour: n.Schedule.Hour}
	}

	if n.PreScript.set {
		c.PreScript = n.PreScript.tokens
	}

	return c, nil
}

func appendPatterns(filters []domain.Filter, kind domain.FilterKind, node *yaml.Node) ([]domain.Filter, error) {
	var patterns []string

	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return filters, nil
		}
		patterns = []string{node.Value}
	case yaml.SequenceNode:
		if err := node.Decode(&patterns); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("line %d: expected a pattern or a list of patterns", node.Line)
	}

	for _, p := range patterns {
		filters = append(filters, domain.Filter{Kind: kind, Pattern: unquote(p)})
	}

	return filters, nil
}

// appendRules reads an explicit ordered list such as
//
//	filters:
//	  - exclude: '**'
//	  - include: '**/audit/**'
func appendRules(filters []domain.Filter, node *yaml.Node) ([]domain.Filter, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of include/exclude rules", node.Line)
	}

	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, fmt.Errorf("line %d: each rule must have exactly one include or exclude key", item.Line)
		}

		kind := domain.FilterKind(item.Content[0].Value)
		if kind != domain.FilterInclude && kind != domain.FilterExclude {
			return nil, fmt.Errorf("line %d: unknown rule %q", item.Line, kind)
		}

		var err error
		filters, err = appendPatterns(filters, kind, item.Content[1])
		if err != nil {
			return nil, err
		}
	}

	return filters, nil
}

func unquote(p string) string {
	return strings.Trim(strings.TrimSpace(p), `'"`)
}
