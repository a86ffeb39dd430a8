package config

import (
	"flag"
	"testing"
	"time"

	"cachequorum/internal/replica"
)

func TestParsePeers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []replica.Endpoint
		wantErr bool
	}{
		{
			name:  "empty string",
			input: "",
			want:  []replica.Endpoint{},
		},
		{
			name:  "single peer",
			input: "127.0.0.1:3000",
			want: []replica.Endpoint{
				{Index: 0, Base: "127.0.0.1", Port: 3000},
			},
		},
		{
			name:  "multiple peers with scheme",
			input: "http://localhost:3000,http://localhost:3001,http://localhost:3002",
			want: []replica.Endpoint{
				{Index: 0, Base: "http://localhost", Port: 3000},
				{Index: 1, Base: "http://localhost", Port: 3001},
				{Index: 2, Base: "http://localhost", Port: 3002},
			},
		},
		{
			name:  "with spaces",
			input: " a:1 , b:2 ",
			want: []replica.Endpoint{
				{Index: 0, Base: "a", Port: 1},
				{Index: 1, Base: "b", Port: 2},
			},
		},
		{
			name:    "invalid format - no port",
			input:   "localhost",
			wantErr: true,
		},
		{
			name:    "invalid format - empty host",
			input:   ":3000",
			wantErr: true,
		},
		{
			name:    "invalid format - bad port",
			input:   "localhost:http",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeers(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePeers() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if len(got) != len(tt.want) {
					t.Errorf("ParsePeers() length = %d, want %d", len(got), len(tt.want))
					return
				}
				for i := range got {
					if got[i] != tt.want[i] {
						t.Errorf("ParsePeers()[%d] = %v, want %v", i, got[i], tt.want[i])
					}
				}
			}
		})
	}
}

func TestConfig_Endpoints(t *testing.T) {
	cfg := Default()
	eps := cfg.Endpoints()
	if len(eps) != 3 {
		t.Fatalf("Expected 3 endpoints, got %d", len(eps))
	}
	for i, ep := range eps {
		if ep.Port != 3000+i || ep.Index != i {
			t.Errorf("Endpoint %d = %v, want port %d", i, ep, 3000+i)
		}
	}
	if eps[1].Addr() != "http://localhost:3001" {
		t.Errorf("Addr() = %s", eps[1].Addr())
	}
	if eps[1].HostPort() != "localhost:3001" {
		t.Errorf("HostPort() = %s", eps[1].HostPort())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"read quorum above N", func(c *Config) { c.ReadQuorum = 4 }, true},
		{"zero write quorum", func(c *Config) { c.WriteQuorum = 0 }, true},
		{"unknown transport", func(c *Config) { c.Transport = "udp" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"ports overflow", func(c *Config) { c.StartPort = 65535 }, true},
		{"peers define N", func(c *Config) {
			c.Peers = []replica.Endpoint{{Base: "a", Port: 1}}
			c.ReadQuorum, c.WriteQuorum = 1, 1
		}, false},
		{"peers too few for quorum", func(c *Config) {
			c.Peers = []replica.Endpoint{{Base: "a", Port: 1}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_RegisterFlags(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	err := fs.Parse([]string{"-r", "1", "-w", "3", "-timeout", "500ms", "-transport", "grpc", "-peers", "h:1,h:2,h:3"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.ReadQuorum != 1 || cfg.WriteQuorum != 3 {
		t.Errorf("quorums = %d/%d, want 1/3", cfg.ReadQuorum, cfg.WriteQuorum)
	}
	if cfg.Timeout != 500*time.Millisecond {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if len(cfg.Peers) != 3 || cfg.Quorum().N != 3 {
		t.Errorf("peers = %v", cfg.Peers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
