//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

// tilestore-admin inspects arrays on disk: their schema, their fragment
// tree, and the live fragments.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/weaviate/tilestore/adapters/repos/array"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:           "tilestore-admin",
		Short:         "Inspect tilestore arrays",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(infoCommand(), treeCommand(), fragmentsCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func openArray(dir string) (array.Handle, error) {
	return array.OpenAny(dir, array.WithLogger(newLogger()))
}

func infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <array-dir>",
		Short: "Print the schema of an array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openArray(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("array:      %s\n", h.ArrayName())
			fmt.Printf("datatype:   %s\n", h.Datatype())
			fmt.Printf("dimensions: %v\n", h.DimensionNames())
			fmt.Printf("attributes: %v\n", h.AttributeNames())
			return nil
		},
	}
}

func treeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <array-dir>",
		Short: "Print the fragment tree of an array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openArray(args[0])
			if err != nil {
				return err
			}

			tree := h.Tree()
			fmt.Printf("consolidation step: %d\n", tree.Step())
			fmt.Printf("next sequence:      %d\n", tree.NextSeq())
			for _, level := range tree.Levels() {
				fmt.Printf("level %d: %d fragment(s)\n", level.Level, level.Count)
			}
			return nil
		},
	}
}

func fragmentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fragments <array-dir>",
		Short: "List the live fragments of an array, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openArray(args[0])
			if err != nil {
				return err
			}

			for _, name := range h.FragmentNames() {
				fmt.Println(name)
			}
			return nil
		},
	}
}
