package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bruceunx/melsec"
)

func newPingCmd(root *rootFlags) *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Run a loopback self test against the PLC",
		Long: `Send a loopback test frame and verify the PLC echoes it back.
The payload may only contain the characters 0-9 and A-F.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := newHandler(root)
			if err != nil {
				return err
			}
			if err := handler.Connect(); err != nil {
				return err
			}
			defer handler.Close()
			client := melsec.NewClient(handler)

			ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
			defer cancel()

			if err := client.SelfTest(ctx, []byte(payload)); err != nil {
				return err
			}
			cmd.Println("ok")
			return nil
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "0123456789", "loopback payload, characters 0-9 and A-F")
	return cmd
}
