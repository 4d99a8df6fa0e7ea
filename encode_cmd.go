package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"osucodec/dotosu"
)

var (
	encodeOut  string
	encodeSkin string
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode FILE",
		Short: "Decode a chart and write it back in the current format version",
		Args:  cobra.ExactArgs(1),
		RunE:  runEncodeCmd,
	}
	cmd.Flags().StringVarP(&encodeOut, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&encodeSkin, "skin", "", "skin.ini whose combo colours replace the chart's")
	return cmd
}

func runEncodeCmd(cmd *cobra.Command, args []string) error {
	b, err := dotosu.DecodeFile(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	var style dotosu.StyleSource
	if encodeSkin != "" {
		skin, err := dotosu.DecodeSkinFile(encodeSkin)
		if err != nil {
			return fmt.Errorf("%s: %w", encodeSkin, err)
		}
		style = skin
	}

	if encodeOut != "-" {
		return dotosu.EncodeFile(encodeOut, b, style)
	}
	return dotosu.Encode(cmd.OutOrStdout(), b, style)
}

