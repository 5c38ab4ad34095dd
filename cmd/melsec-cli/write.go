package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bruceunx/melsec"
)

func newWriteCmd(root *rootFlags) *cobra.Command {
	var block bool

	cmd := &cobra.Command{
		Use:   "write TAG=VALUE [TAG=VALUE ...]",
		Short: "Write named device points",
		Long: `Write values to one or more device points.

Assignments take the form DEVICE[:TYPE]=VALUE, e.g. "D100=4660",
"M0:bit=1", "D200:dword=0x12345678". Values accept decimal, 0x hex and
0b binary notation.

With --block the arguments are one starting tag followed by the values
for a contiguous run, e.g. "write --block D100 1 2 3".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var writes []melsec.TagWrite
			var err error
			if block {
				return writeBlock(cmd.Context(), root, args)
			}
			writes, err = parseWrites(args)
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

			if err := client.Write(ctx, writes); err != nil {
				return err
			}
			cmd.Printf("wrote %d points\n", len(writes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&block, "block", false, "write a contiguous block starting at the first tag")
	return cmd
}

func writeBlock(ctx context.Context, root *rootFlags, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("--block wants a starting tag and at least one value")
	}
	start, err := parseTagArg(args[0])
	if err != nil {
		return err
	}
	values := make([]uint64, 0, len(args)-1)
	for _, arg := range args[1:] {
		v, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return fmt.Errorf("value %q: %w", arg, err)
		}
		values = append(values, v)
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

	ctx, cancel := context.WithTimeout(ctx, root.timeout)
	defer cancel()

	if err := client.WriteBlock(ctx, start.Device, start.Type, values); err != nil {
		return err
	}
	fmt.Printf("wrote %d points from %s\n", len(values), start.Device)
	return nil
}

func parseWrites(args []string) ([]melsec.TagWrite, error) {
	writes := make([]melsec.TagWrite, 0, len(args))
	for _, arg := range args {
		tagText, valueText, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("assignment %q must look like DEVICE[:TYPE]=VALUE", arg)
		}
		tag, err := parseTagArg(tagText)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseUint(valueText, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", valueText, err)
		}
		writes = append(writes, melsec.TagWrite{Tag: tag, Value: v})
	}
	return writes, nil
}
