package policy

import (
	"strings"

	"wbuilder/internal/domain/models"
)

// Placeholders substituted into prompt and message templates
const (
	placeholderInstruction = "{instruction}"
	placeholderPrompt      = "{prompt}"
	placeholderCode        = "{code}"
)

// Credits is the pricing of generation attempts
type Credits struct {
	RevisionCost int `yaml:"revision_cost"`
	CreationCost int `yaml:"creation_cost"`
	SignupGrant  int `yaml:"signup_grant"`
}

// Prompts are the system roles and user payload templates sent to the generator
type Prompts struct {
	EnhanceSystem   string `yaml:"enhance_system"`
	GenerateSystem  string `yaml:"generate_system"`
	EnhancePayload  string `yaml:"enhance_payload"`  // {instruction}
	RevisionPayload string `yaml:"revision_payload"` // {code}, {prompt}
}

// Messages are the assistant narration entries written to the conversation
type Messages struct {
	Enhanced           string `yaml:"enhanced"` // {prompt}
	GeneratingInitial  string `yaml:"generating_initial"`
	GeneratingRevision string `yaml:"generating_revision"`
	GenerationFailed   string `yaml:"generation_failed"`
	Created            string `yaml:"created"`
	Revised            string `yaml:"revised"`
	RolledBack         string `yaml:"rolled_back"`
	ManualSaved        string `yaml:"manual_saved"`
}

// StarterTemplate is an optional version committed before the first generation
type StarterTemplate struct {
	Enabled bool   `yaml:"enabled"`
	Code    string `yaml:"code"`
}

// Policy is the complete generation and billing policy
type Policy struct {
	Credits         Credits         `yaml:"credits"`
	Prompts         Prompts         `yaml:"prompts"`
	Messages        Messages        `yaml:"messages"`
	Plans           []models.Plan   `yaml:"plans"`
	StarterTemplate StarterTemplate `yaml:"starter_template"`
}

// EnhancePayload renders the enhancement request for an instruction
func (p *Policy) EnhancePayload(instruction string) string {
	return strings.ReplaceAll(p.Prompts.EnhancePayload, placeholderInstruction, instruction)
}

// RevisionPayload renders the generation request with prior code as context
func (p *Policy) RevisionPayload(code, prompt string) string {
	return strings.NewReplacer(placeholderCode, code, placeholderPrompt, prompt).Replace(p.Prompts.RevisionPayload)
}

// EnhancedMessage renders the assistant entry quoting an enhanced prompt
func (p *Policy) EnhancedMessage(prompt string) string {
	return strings.ReplaceAll(p.Messages.Enhanced, placeholderPrompt, prompt)
}

// Plan looks up a plan by id
func (p *Policy) Plan(id string) (models.Plan, bool) {
	for _, plan := range p.Plans {
		if plan.ID == id {
			return plan, true
		}
	}
	return models.Plan{}, false
}
