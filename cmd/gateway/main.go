/*
 * Copyright 2026 the button-gateway authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"

	"github.com/neeraj2774/button-gateway/pkg/awa"
	"github.com/neeraj2774/button-gateway/pkg/config"
	"github.com/neeraj2774/button-gateway/pkg/flow"
	"github.com/neeraj2774/button-gateway/pkg/gateway"
	"github.com/neeraj2774/button-gateway/pkg/heartbeat"
	"github.com/neeraj2774/button-gateway/pkg/lifecycle"
	"github.com/neeraj2774/button-gateway/pkg/logger"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/lwm2m/button-gateway.json", "Path to gateway config file")
	logFile := flag.String("l", "", "Log filename")
	verbosity := flag.Int("v", 0,
		"Debug level from 1 to 5: fatal(1), error(2), warning(3), info(4), debug(5); default is info")
	flag.Parse()

	ctx := context.Background()

	var cfg gateway.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
		}

		// No config file: run entirely on defaults.
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	if *logFile != "" {
		logConfig.Output = *logFile
	}

	if *verbosity != 0 {
		level, err := logger.LevelFromVerbosity(*verbosity)
		if err != nil {
			flag.Usage()
			return err
		}

		logConfig.Level = level
	}

	gatewayLogger, err := logger.NewComponentLogger("gateway", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	deps := gateway.Deps{
		NewClient: func() (awa.ClientSession, error) {
			return awa.NewClientSession(cfg.LocalAddress, cfg.LocalPort, cfg.OperationTimeout, gatewayLogger)
		},
		NewServer: func() (awa.ServerSession, error) {
			return awa.NewServerSession(cfg.RemoteAddress, cfg.RemotePort, cfg.OperationTimeout, gatewayLogger)
		},
		Flow:      flow.NewClient(cfg.CredentialsPath, gatewayLogger),
		Heartbeat: heartbeat.NewCommandIndicator(cfg.HeartbeatCommand, gatewayLogger),
	}

	supervisor, err := gateway.New(&cfg, deps, gatewayLogger)
	if err != nil {
		return err
	}

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ListenAddr:        cfg.ListenAddr,
		ServiceName:       cfg.ServiceName,
		Service:           supervisor,
		EnableHealthCheck: true,
		Logger:            gatewayLogger,
	})
}
