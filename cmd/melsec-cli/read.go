package main

import (
	"bytes"
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bruceunx/melsec"
)

type readFlags struct {
	config string
	block  int
}

func newReadCmd(root *rootFlags) *cobra.Command {
	flags := &readFlags{}

	cmd := &cobra.Command{
		Use:   "read [tag ...]",
		Short: "Read named device points",
		Long: `Read one or more device points and print their values.

Tags take the form DEVICE[:TYPE] where TYPE is bit, word, dword or
lword and defaults to word, e.g. "D100", "M8304:bit", "D200:dword". A
tag list can also be loaded from a YAML file with --config.

With --block N a single contiguous run of N points is read starting at
the one given tag.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := collectTags(args, flags.config)
			if err != nil {
				return err
			}

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

			var values []melsec.Value
			if flags.block > 0 {
				if len(tags) != 1 {
					return fmt.Errorf("--block wants exactly one starting tag, got %d", len(tags))
				}
				values, err = client.ReadBlock(ctx, tags[0].Device, flags.block, tags[0].Type)
			} else {
				values, err = client.Read(ctx, tags)
			}
			if err != nil {
				return err
			}

			cmd.Print(formatValues(values))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "", "YAML file with a tag list")
	cmd.Flags().IntVar(&flags.block, "block", 0, "read a contiguous block of N points from the given tag")
	return cmd
}

func collectTags(args []string, configPath string) ([]melsec.QueryTag, error) {
	if configPath != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("give tags either as arguments or via --config, not both")
		}
		return loadTagFile(configPath)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no tags given")
	}
	tags := make([]melsec.QueryTag, 0, len(args))
	for _, arg := range args {
		tag, err := parseTagArg(arg)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func formatValues(values []melsec.Value) string {
	buf := new(bytes.Buffer)
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	for _, v := range values {
		fmt.Fprintf(w, "%s\t%s\t%d\t\n", v.Device, v.Type, v.Uint64())
	}
	w.Flush()
	return buf.String()
}
