package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tailcut-cli/internal/job"
	"github.com/KaramelBytes/tailcut-cli/internal/utils"
)

var (
	initFlags       classifierFlags
	initDescription string
	initInput       string
	initOutput      string
	initFormat      string
	initRead        inputFlags
)

var initCmd = &cobra.Command{
	Use:   "init <job-name>",
	Short: "Save a labeling job (input, classifier settings, output) for repeated runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if initInput == "" {
			return errors.New("--input is required")
		}
		ccfg, err := initFlags.config(cmd.Flags())
		if err != nil {
			return err
		}
		if _, err := initRead.options(); err != nil {
			return err
		}
		root, err := jobsDir()
		if err != nil {
			return err
		}
		dir := filepath.Join(root, name)
		// Refuse to overwrite an existing job.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(dir, utils.JobFile)); err == nil {
				return fmt.Errorf("job already exists at %s", dir)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect job directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize job", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat job directory: %w", err)
		}

		input, err := filepath.Abs(initInput)
		if err != nil {
			return err
		}
		j := job.New(name, initDescription, dir, ccfg)
		j.Input = input
		j.Output = initOutput
		j.Format = initFormat
		j.Read = initRead.InputOptions
		j.Seed = initFlags.seedValue(cmd.Flags())
		if err := j.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Job initialized: %s\n", dir)
		return nil
	},
}

func jobsDir() (string, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.JobsDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	switch {
	case dir == "":
		dir = filepath.Join(home, ".tailcut", "jobs")
	case strings.HasPrefix(dir, "~"):
		dir = filepath.Join(home, strings.TrimLeft(strings.TrimPrefix(dir, "~"), `/\`))
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveJobDir(name string) (string, error) {
	if name == "" {
		return "", errors.New("job name is required")
	}
	root, err := jobsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initFlags.register(initCmd.Flags())
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "job description")
	initCmd.Flags().StringVarP(&initInput, "input", "i", "", "input table (required)")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "", "output table; relative paths are inside the job directory")
	initCmd.Flags().StringVar(&initFormat, "format", "", "force output format")
	initRead.register(initCmd.Flags())
}
