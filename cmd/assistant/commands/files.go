package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/lexiqai/voice-assistant/internal/files"
)

var (
	filesSpecFile  string
	filesContent   string
	filesRecursive bool
	filesShow      bool
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Create, read and list files",
	Long: `File helpers used by the assistant.

Commands:
  files mkdir   - Create folders
  files create  - Create files
  files read    - Read files into the content store
  files ls      - List a directory

Example spec file (files.yaml):
  - path: src/main.go
    content: |
      package main
  - path: README.md`,
}

var filesMkdirCmd = &cobra.Command{
	Use:   "mkdir <path>...",
	Short: "Create folders and any missing parents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWorkspace()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), w.CreateFolders(args))
		return nil
	},
}

var filesCreateCmd = &cobra.Command{
	Use:   "create [path...]",
	Short: "Create files from paths or a spec file",
	Long: `Create files. Bare paths create empty files, or files holding --content.
With -f, files are described in a YAML or JSON list of {path, content}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		specs := files.PathSpecs(args...)
		for i := range specs {
			specs[i].Content = filesContent
		}

		if filesSpecFile != "" {
			var fromFile []files.FileSpec
			if err := loadSpecs(filesSpecFile, &fromFile); err != nil {
				return err
			}
			specs = append(specs, fromFile...)
		}
		if len(specs) == 0 {
			return fmt.Errorf("no files given, pass paths or use -f")
		}

		w, err := newWorkspace()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), w.CreateFiles(specs))
		return nil
	},
}

var filesReadCmd = &cobra.Command{
	Use:   "read <path|glob>...",
	Short: "Read files into the content store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWorkspace()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, w.ReadFiles(args, filesRecursive))
		if filesShow {
			printContents(out, w)
		}
		return nil
	},
}

var filesListCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		w, err := newWorkspace()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), w.ListFiles(path))
		return nil
	},
}

// printContents writes each stored file under a header, least recently used first
func printContents(out io.Writer, w *files.Workspace) {
	for _, f := range w.Contents() {
		fmt.Fprintf(out, "\n--- %s ---\n%s\n", f.Path, f.Content)
	}
	fmt.Fprintf(out, "\n%d file(s) in the content store\n", w.Len())
}

func newWorkspace() (*files.Workspace, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return files.NewWorkspace(cfg.FileCacheSize)
}

// loadSpecs loads file specs from a YAML or JSON file
func loadSpecs(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	return nil
}

func init() {
	filesCreateCmd.Flags().StringVarP(&filesSpecFile, "file", "f", "", "YAML or JSON list of files to create")
	filesCreateCmd.Flags().StringVar(&filesContent, "content", "", "content for files given as paths")
	filesReadCmd.Flags().BoolVarP(&filesRecursive, "recursive", "r", false, "read directories recursively")
	filesReadCmd.Flags().BoolVar(&filesShow, "show", false, "print the stored contents after reading")

	filesCmd.AddCommand(filesMkdirCmd)
	filesCmd.AddCommand(filesCreateCmd)
	filesCmd.AddCommand(filesReadCmd)
	filesCmd.AddCommand(filesListCmd)
	rootCmd.AddCommand(filesCmd)
}
