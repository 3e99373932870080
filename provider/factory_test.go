package provider

import "testing"

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		wantModel string
	}{
		{
			name:      "anthropic with defaults",
			cfg:       Config{Type: ProviderTypeAnthropic, APIKey: "sk-ant-test"},
			wantModel: "claude-sonnet-4-5-20250929",
		},
		{
			name:      "anthropic with explicit model",
			cfg:       Config{Type: ProviderTypeAnthropic, APIKey: "sk-ant-test", Model: "claude-3-5-haiku-latest"},
			wantModel: "claude-3-5-haiku-latest",
		},
		{
			name:    "anthropic without key",
			cfg:     Config{Type: ProviderTypeAnthropic},
			wantErr: true,
		},
		{
			name:      "openai with defaults",
			cfg:       Config{Type: ProviderTypeOpenAI, APIKey: "sk-test"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:    "openai without key",
			cfg:     Config{Type: ProviderTypeOpenAI},
			wantErr: true,
		},
		{
			name:    "unknown type",
			cfg:     Config{Type: ProviderType("ollama"), APIKey: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.GetModel() != tt.wantModel {
				t.Errorf("expected model %q, got %q", tt.wantModel, p.GetModel())
			}
		})
	}
}

func TestMapProviderIDToType(t *testing.T) {
	tests := []struct {
		id   string
		want ProviderType
	}{
		{"anthropic", ProviderTypeAnthropic},
		{"openai", ProviderTypeOpenAI},
		{"something-else", ProviderType("something-else")},
	}

	for _, tt := range tests {
		if got := MapProviderIDToType(tt.id); got != tt.want {
			t.Errorf("MapProviderIDToType(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
