// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	ogmios "github.com/blinklabs-io/gogmios"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const programName = "ogmios-client"

// Flag names and the environment variables bound to them
var envBindings = map[string]string{
	"host":            "OGMIOS_HOST",
	"port":            "OGMIOS_PORT",
	"tls":             "OGMIOS_TLS",
	"max-payload":     "OGMIOS_MAX_PAYLOAD",
	"network":         "OGMIOS_NETWORK",
	"request-timeout": "OGMIOS_REQUEST_TIMEOUT",
	"log-level":       "LOG_LEVEL",
	"max-blocks":      "MAX_BLOCKS",
	"checkpoint-file": "CHECKPOINT_FILE",
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           programName,
		Short:         "Client for the Ogmios JSON-RPC interface of a Cardano node",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd)
		},
	}
	cmd.PersistentFlags().String("host", ogmios.DefaultHost, "Ogmios server host")
	cmd.PersistentFlags().Uint16("port", ogmios.DefaultPort, "Ogmios server port")
	cmd.PersistentFlags().Bool("tls", false, "use TLS (https/wss)")
	cmd.PersistentFlags().Int64(
		"max-payload",
		ogmios.DefaultMaxPayload,
		"maximum size in bytes of a message from the server",
	)
	cmd.PersistentFlags().String(
		"network",
		"preview",
		"specifies network that the server is participating in",
	)
	cmd.PersistentFlags().Duration(
		"request-timeout",
		0,
		"time to wait for each response, 0 waits forever",
	)
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.AddCommand(
		newHealthCmd(),
		newChainSyncCmd(),
		newTipCmd(),
		newQueryCmd(),
		newSubmitCmd(),
		newMempoolCmd(),
	)
	return cmd
}

// Bind all flags of the command into viper, along with their environment variables
func bindFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}
	network := ogmios.NetworkByName(viper.GetString("network"))
	if network == ogmios.NetworkInvalid {
		return fmt.Errorf("invalid network specified: %s", viper.GetString("network"))
	}
	return nil
}

func selectedNetwork() ogmios.Network {
	return ogmios.NetworkByName(viper.GetString("network"))
}

func connectionConfig() ogmios.ConnectionConfig {
	return ogmios.ConnectionConfig{
		Host:       viper.GetString("host"),
		Port:       uint16(viper.GetUint("port")),
		UseTLS:     viper.GetBool("tls"),
		MaxPayload: viper.GetInt64("max-payload"),
	}
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
}

func connect(
	ctx context.Context,
	logger *slog.Logger,
	interactionType ogmios.InteractionType,
) (*ogmios.InteractionContext, error) {
	return ogmios.NewInteractionContext(
		ctx,
		ogmios.WithConnectionConfig(connectionConfig()),
		ogmios.WithInteractionType(interactionType),
		ogmios.WithLogger(logger),
		ogmios.WithRequestTimeout(viper.GetDuration("request-timeout")),
		ogmios.WithErrorFunc(func(err error) {
			logger.Error(fmt.Sprintf("connection error: %s", err))
		}),
	)
}

// Run fn with a new connection, which is closed afterward
func withConnection(
	ctx context.Context,
	interactionType ogmios.InteractionType,
	fn func(context.Context, *ogmios.InteractionContext, *slog.Logger) error,
) error {
	logger := newLogger()
	ic, err := connect(ctx, logger, interactionType)
	if err != nil {
		return err
	}
	defer func() {
		if err := ic.Shutdown(); err != nil {
			logger.Debug(fmt.Sprintf("failed to close connection: %s", err))
		}
	}()
	return fn(ctx, ic, logger)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}
