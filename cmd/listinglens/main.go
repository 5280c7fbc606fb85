package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/listinglens/listinglens/internal/audit"
	"github.com/listinglens/listinglens/internal/auth"
	"github.com/listinglens/listinglens/internal/config"
	"github.com/listinglens/listinglens/internal/diag"
	"github.com/listinglens/listinglens/internal/listing"
	"github.com/listinglens/listinglens/internal/logging"
	"github.com/listinglens/listinglens/internal/rulecache"
	"github.com/listinglens/listinglens/internal/rulestore"
	"github.com/listinglens/listinglens/internal/server"
	"github.com/listinglens/listinglens/internal/telemetry"
)

const version = "0.3.0"

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "listinglens.yaml", "Path to ListingLens config file")
	auditPath := flag.String("audit", "", "Evaluate one metadata JSON file and print the result instead of serving")
	orgFlag := flag.String("org", "", "Organization id for a one-shot -audit run")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Mode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "listinglens",
		Version:  version,
	})
	if err != nil {
		log.Fatalf("failed to set up telemetry: %v", err)
	}

	src, cleanup, err := openFragmentSource(cfg)
	if err != nil {
		log.Fatalf("failed to open rule source: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	ttl := time.Duration(cfg.Rules.CacheTTLMinutes) * time.Minute
	provider := rulecache.New(rulestore.NewResolver(src), ttl)
	provider.OnResolve(tel.RecordResolve)
	engine := audit.New(provider, audit.Options{TopRecommendations: cfg.Audit.TopRecommendations})

	if *auditPath != "" {
		if err := auditOnce(ctx, engine, *auditPath, *orgFlag); err != nil {
			log.Fatalf("audit failed: %v", err)
		}
		return
	}

	authz, err := auth.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to build auth: %v", err)
	}

	sinks, err := buildSinks(cfg)
	if err != nil {
		log.Fatalf("failed to build diagnostics sinks: %v", err)
	}
	emitter := diag.NewEmitter(diag.EmitterConfig{}, sinks, logger)

	addr := cfg.Server.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	srv := server.New(cfg, engine, provider, authz, emitter, tel, logger)
	defer srv.Shutdown(ctx)

	if err := srv.Start(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openFragmentSource picks the configured store. With neither dir nor sqlite
// set it returns nil and the resolver runs on the compiled-in base rules.
func openFragmentSource(cfg *config.Config) (rulestore.FragmentSource, func(), error) {
	switch {
	case cfg.Rules.Dir != "":
		src, err := rulestore.NewDirSource(cfg.Rules.Dir)
		if err != nil {
			return nil, nil, err
		}
		return src, nil, nil
	case cfg.Rules.SQLitePath != "":
		src, err := rulestore.OpenSQLite(cfg.Rules.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	default:
		return nil, nil, nil
	}
}

func buildSinks(cfg *config.Config) ([]diag.Sink, error) {
	var sinks []diag.Sink
	for _, sc := range cfg.Diagnostics.Sinks {
		switch sc.Type {
		case "file_jsonl":
			s, err := diag.NewFileSink(sc.Path)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		case "webhook":
			s, err := diag.NewWebhookSink(sc.URL, sc.Headers, 0)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		default:
			return nil, fmt.Errorf("unknown sink type %q", sc.Type)
		}
	}
	return sinks, nil
}

// auditOnce reads a metadata JSON file, evaluates it against the configured
// rules and prints the result to stdout.
func auditOnce(ctx context.Context, engine *audit.Engine, path, orgID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}

	var md listing.Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}

	res, err := engine.Evaluate(ctx, md, orgID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
