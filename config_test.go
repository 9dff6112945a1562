package catalogaccess_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oarkflow/catalogaccess"
)

const sampleYAML = `
version: 1
engine:
  cache_ttl_ms: 120000
  redis_key_prefix: "helpdesk"
client_rules:
  - organization_id: org-1
    client_id: client-1
    access_mode: selected
    allowed_categories: [A]
user_rules:
  - organization_id: org-1
    user_id: user-1
    client_id: client-1
    access_mode: selected
    inheritance_mode: extend
    allowed_categories: [B]
`

func TestConfigLoadYAML(t *testing.T) {
	cfg, err := catalogaccess.NewConfigLoader().LoadYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if cfg.Version != 1 || cfg.Engine.CacheTTL != 120000 {
		t.Fatalf("engine settings not parsed: %+v", cfg.Engine)
	}
	if len(cfg.ClientRules) != 1 || cfg.ClientRules[0].AccessMode != catalogaccess.AccessSelected {
		t.Fatalf("client rules not parsed: %+v", cfg.ClientRules)
	}
	if len(cfg.UserRules) != 1 || cfg.UserRules[0].InheritanceMode != catalogaccess.InheritanceExtend {
		t.Fatalf("user rules not parsed: %+v", cfg.UserRules)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestConfigJSONRoundTrip(t *testing.T) {
	cfg, err := catalogaccess.NewConfigLoader().LoadYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	data, err := cfg.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	back, err := catalogaccess.NewConfigLoader().LoadJSON(data)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if len(back.ClientRules) != 1 || back.ClientRules[0].ClientID != "client-1" {
		t.Fatalf("round trip lost client rules: %+v", back.ClientRules)
	}
}

func TestConfigValidateRejectsBadEnums(t *testing.T) {
	cfg := &catalogaccess.Config{
		ClientRules: []*catalogaccess.ClientRule{
			{ClientID: "c", AccessMode: "sometimes"},
		},
	}
	var vErr *catalogaccess.ValidationError
	if err := cfg.Validate(); !errors.As(err, &vErr) || vErr.Field != "access_mode" {
		t.Fatalf("expected access_mode validation error, got %v", err)
	}

	cfg = &catalogaccess.Config{
		UserRules: []*catalogaccess.UserRule{
			{UserID: "u", AccessMode: catalogaccess.AccessAll, InheritanceMode: "sideways"},
		},
	}
	if err := cfg.Validate(); !errors.As(err, &vErr) || vErr.Field != "inheritance_mode" {
		t.Fatalf("expected inheritance_mode validation error, got %v", err)
	}

	cfg = &catalogaccess.Config{
		ClientRules: []*catalogaccess.ClientRule{{AccessMode: catalogaccess.AccessAll}},
	}
	if err := cfg.Validate(); !errors.As(err, &vErr) || vErr.Field != "client_id" {
		t.Fatalf("expected client_id validation error, got %v", err)
	}
}

func TestApplyConfigSeedsRules(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t)
	catalog := f.catalog
	catalog.AddCategory(&catalogaccess.Category{ID: "seed-cat", OrganizationID: "org-1", Active: true})

	cfg, err := catalogaccess.NewConfigLoader().LoadYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if err := f.engine.ApplyConfig(ctx, cfg, catalogaccess.Actor{ID: "bootstrap"}); err != nil {
		t.Fatalf("apply config: %v", err)
	}
	if got := f.engine.CacheTTL(); got != 2*time.Minute {
		t.Fatalf("cache ttl not applied, got %s", got)
	}

	rule, err := f.engine.GetClientRule(ctx, "org-1", "client-1")
	if err != nil || rule.IsDefault {
		t.Fatalf("seed client rule missing, err=%v rule=%+v", err, rule)
	}
	userRule, err := f.engine.GetUserRule(ctx, "user-1")
	if err != nil || userRule.IsDefault {
		t.Fatalf("seed user rule missing, err=%v rule=%+v", err, userRule)
	}
	if userRule.UpdatedBy != "bootstrap" {
		t.Fatalf("seed writes must record the actor, got %q", userRule.UpdatedBy)
	}

	// seeds go through the full write path, so bad references fail the apply
	cfg.ClientRules[0].AllowedCategories = []string{"ghost"}
	if err := f.engine.ApplyConfig(ctx, cfg, catalogaccess.Actor{ID: "bootstrap"}); err == nil {
		t.Fatalf("apply must fail on invalid references")
	}
}
