package policy

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

const defaultFile = "config/policy.yaml"

// Default returns the embedded policy
func Default() (*Policy, error) {
	data, err := configFiles.ReadFile(defaultFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", defaultFile, err)
	}
	return Parse(data)
}

// Load returns the embedded policy, or the file at path when path is set.
// An override file is layered over the embedded defaults, so it only needs
// the keys it changes.
func Load(path string) (*Policy, error) {
	if path == "" {
		return Default()
	}

	base, err := configFiles.ReadFile(defaultFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", defaultFile, err)
	}
	override, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	var p Policy
	if err := yaml.Unmarshal(base, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", defaultFile, err)
	}
	// Sequences in the override (plans) replace the default list
	if err := yaml.Unmarshal(override, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return &p, nil
}

// Parse decodes and validates a complete policy document
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the policy can drive the generation sagas
func (p *Policy) Validate() error {
	var problems []string

	if p.Credits.RevisionCost <= 0 {
		problems = append(problems, "credits.revision_cost must be positive")
	}
	if p.Credits.CreationCost <= 0 {
		problems = append(problems, "credits.creation_cost must be positive")
	}
	if p.Credits.SignupGrant < 0 {
		problems = append(problems, "credits.signup_grant must not be negative")
	}

	required := map[string]string{
		"prompts.enhance_system":       p.Prompts.EnhanceSystem,
		"prompts.generate_system":      p.Prompts.GenerateSystem,
		"prompts.enhance_payload":      p.Prompts.EnhancePayload,
		"prompts.revision_payload":     p.Prompts.RevisionPayload,
		"messages.enhanced":            p.Messages.Enhanced,
		"messages.generating_initial":  p.Messages.GeneratingInitial,
		"messages.generating_revision": p.Messages.GeneratingRevision,
		"messages.generation_failed":   p.Messages.GenerationFailed,
		"messages.created":             p.Messages.Created,
		"messages.revised":             p.Messages.Revised,
		"messages.rolled_back":         p.Messages.RolledBack,
		"messages.manual_saved":        p.Messages.ManualSaved,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, key+" must not be empty")
		}
	}

	seen := make(map[string]bool, len(p.Plans))
	for i, plan := range p.Plans {
		switch {
		case plan.ID == "":
			problems = append(problems, fmt.Sprintf("plans[%d].id must not be empty", i))
		case seen[plan.ID]:
			problems = append(problems, fmt.Sprintf("plans[%d].id %q is duplicated", i, plan.ID))
		}
		seen[plan.ID] = true
		if plan.Credits <= 0 {
			problems = append(problems, fmt.Sprintf("plans[%d].credits must be positive", i))
		}
		if plan.Amount < 0 {
			problems = append(problems, fmt.Sprintf("plans[%d].amount must not be negative", i))
		}
	}

	if p.StarterTemplate.Enabled && strings.TrimSpace(p.StarterTemplate.Code) == "" {
		problems = append(problems, "starter_template.code must not be empty when enabled")
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("policy: %s", strings.Join(problems, "; "))
	}
	return nil
}
