package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuMario0/trading-lab-sub000/pkg/controlapi"
	"github.com/ManuMario0/trading-lab-sub000/pkg/layout"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a Layout YAML file to a running orchestrator",
	Long: `Apply submits a Layout to a running orchestratord's control API as a
Deploy command.

Examples:
  orchestratord apply -f layout.yaml
  orchestratord apply -f layout.yaml --mode Paper`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "Layout YAML file to apply (required)")
	applyCmd.Flags().String("control-addr", "127.0.0.1:9091", "Orchestrator control API address")
	applyCmd.Flags().String("mode", "Paper", "Deployment mode: BacktestFast, Paper, Live")
	_ = applyCmd.MarkFlagRequired("file")
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	controlAddr, _ := cmd.Flags().GetString("control-addr")
	mode, _ := cmd.Flags().GetString("mode")

	l, err := layout.LoadYAML(filename)
	if err != nil {
		return fmt.Errorf("failed to load layout: %w", err)
	}

	duplex, err := controlapi.DialClient(controlAddr, 2*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to orchestrator: %w", err)
	}
	defer duplex.Close()

	payload := controlapi.Payload{
		Kind: controlapi.PayloadCommand,
		Command: &controlapi.Command{
			Kind:   controlapi.CmdDeploy,
			Layout: l,
			Mode:   controlapi.Mode(mode),
		},
	}
	if err := duplex.SendPayload(payload); err != nil {
		return fmt.Errorf("failed to send Deploy: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := duplex.RecvPayload(ctx)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.Response == nil {
		return fmt.Errorf("orchestrator returned an empty response")
	}
	if resp.Response.Kind == controlapi.RespError {
		return fmt.Errorf("orchestrator rejected layout %q: %s", l.ID, resp.Response.Error)
	}

	fmt.Printf("layout %q: %s\n", l.ID, resp.Response.Message)
	return nil
}
