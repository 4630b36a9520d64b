package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	if p.Credits.RevisionCost != 5 {
		t.Errorf("RevisionCost = %d, want 5", p.Credits.RevisionCost)
	}
	if p.Credits.CreationCost != 5 {
		t.Errorf("CreationCost = %d, want 5", p.Credits.CreationCost)
	}
	if p.Credits.SignupGrant != 20 {
		t.Errorf("SignupGrant = %d, want 20", p.Credits.SignupGrant)
	}

	tests := []struct {
		id      string
		credits int
		amount  float64
	}{
		{"basic", 100, 5},
		{"pro", 400, 19},
		{"enterprise", 1000, 49},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			plan, ok := p.Plan(tt.id)
			if !ok {
				t.Fatalf("plan %q missing", tt.id)
			}
			if plan.Credits != tt.credits || plan.Amount != tt.amount {
				t.Errorf("plan %q = %+v, want credits=%d amount=%v", tt.id, plan, tt.credits, tt.amount)
			}
		})
	}

	if _, ok := p.Plan("platinum"); ok {
		t.Error("unknown plan should not be found")
	}
}

func TestTemplates(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	if got := p.EnhancePayload("a bakery site"); got != "User Request: a bakery site" {
		t.Errorf("EnhancePayload = %q", got)
	}
	if got := p.EnhancedMessage("BETTER"); got != "I have enhanced your prompt to: BETTER" {
		t.Errorf("EnhancedMessage = %q", got)
	}

	got := p.RevisionPayload("<html></html>", "make it blue")
	if !strings.Contains(got, "<html></html>") || !strings.Contains(got, "make it blue") {
		t.Errorf("RevisionPayload = %q, want code and prompt substituted", got)
	}
	if strings.Contains(got, "{code}") || strings.Contains(got, "{prompt}") {
		t.Errorf("RevisionPayload left placeholders: %q", got)
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	override := `
credits:
  revision_cost: 7
plans:
  - id: solo
    name: Solo
    credits: 10
    amount: 1
`
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p.Credits.RevisionCost != 7 {
		t.Errorf("RevisionCost = %d, want 7", p.Credits.RevisionCost)
	}
	if p.Credits.CreationCost != 5 {
		t.Errorf("CreationCost = %d, want default 5", p.Credits.CreationCost)
	}
	if len(p.Plans) != 1 || p.Plans[0].ID != "solo" {
		t.Errorf("Plans = %+v, want only solo", p.Plans)
	}
	if p.Messages.GenerationFailed == "" {
		t.Error("messages should fall back to defaults")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Policy)
		wantErr string
	}{
		{"zero cost", func(p *Policy) { p.Credits.RevisionCost = 0 }, "revision_cost"},
		{"empty prompt", func(p *Policy) { p.Prompts.GenerateSystem = "  " }, "prompts.generate_system"},
		{"plan without credits", func(p *Policy) { p.Plans[0].Credits = 0 }, "plans[0].credits"},
		{"duplicate plan", func(p *Policy) { p.Plans[1].ID = p.Plans[0].ID }, "duplicated"},
		{"starter without code", func(p *Policy) {
			p.StarterTemplate = StarterTemplate{Enabled: true}
		}, "starter_template.code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Default()
			if err != nil {
				t.Fatalf("Default() error: %v", err)
			}
			tt.mutate(p)
			err = p.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
