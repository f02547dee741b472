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

// Package lifecycle runs a long-lived service with signal handling and an
// optional gRPC health endpoint.
package lifecycle

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/neeraj2774/button-gateway/pkg/logger"
)

const stopTimeout = 10 * time.Second

// Service is a component with a blocking Start and an idempotent Stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServerOptions configures RunServer.
type ServerOptions struct {
	ListenAddr        string
	ServiceName       string
	Service           Service
	EnableHealthCheck bool
	Logger            logger.Logger
}

// RunServer runs the service until it returns, the process receives SIGINT or
// SIGTERM, or the context is canceled. The service's Start error (if any) is
// returned.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		grpcServer *grpc.Server
		healthSrv  *health.Server
	)

	if opts.EnableHealthCheck && opts.ListenAddr != "" {
		listener, err := net.Listen("tcp", opts.ListenAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", opts.ListenAddr, err)
		}

		grpcServer = grpc.NewServer()
		healthSrv = health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthSrv)
		healthSrv.SetServingStatus(opts.ServiceName, healthpb.HealthCheckResponse_SERVING)

		go func() {
			if err := grpcServer.Serve(listener); err != nil {
				opts.Logger.Error().Err(err).Msg("Health endpoint stopped")
			}
		}()

		opts.Logger.Info().Str("addr", opts.ListenAddr).Msg("Health endpoint listening")
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- opts.Service.Start(ctx)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		opts.Logger.Info().Msg("Shutdown signal received")

		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()

		if err := opts.Service.Stop(stopCtx); err != nil {
			opts.Logger.Error().Err(err).Msg("Error stopping service")
		}

		runErr = <-errCh
	case runErr = <-errCh:
	}

	if grpcServer != nil {
		healthSrv.SetServingStatus(opts.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()
	}

	return runErr
}
