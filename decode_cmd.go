package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"osucodec/dotosu"
)

var decodeFormat string

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode FILE...",
		Short: "Decode charts and dump them as JSON or YAML",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDecodeCmd,
	}
	cmd.Flags().StringVar(&decodeFormat, "format", "json", "output format: json or yaml")
	return cmd
}

func runDecodeCmd(cmd *cobra.Command, args []string) error {
	if decodeFormat != "json" && decodeFormat != "yaml" {
		return fmt.Errorf("unknown format %q", decodeFormat)
	}
	srcs, err := OpenSources(args)
	if err != nil {
		return err
	}
	for _, src := range srcs {
		b, err := decodeSource(src)
		if err != nil {
			return err
		}
		if err := writeDump(cmd.OutOrStdout(), decodeFormat, newChartDump(src.Name, b)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func decodeSource(src source) (*dotosu.Beatmap, error) {
	data, err := src.Read()
	if err != nil {
		return nil, err
	}
	b, err := dotosu.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}
	return b, nil
}

func writeDump(w io.Writer, format string, d chartDump) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(d)
}
