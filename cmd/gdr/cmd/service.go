/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/gdr/pkg/config"
)

const serviceName = "gdr.service"

// unitOptions describes the systemd unit that runs gdr serve
type unitOptions struct {
	User       string
	Binary     string
	ConfigPath string
	DataDir    string
}

// runCommand runs a system command with its output attached to ours
var runCommand = func(out io.Writer, command string, args ...string) error {
	c := exec.Command(command, args...)
	c.Stdout = out
	c.Stderr = out
	return c.Run()
}

func runSystemctl(out io.Writer, args ...string) error {
	return runCommand(out, "systemctl", args...)
}

// newServiceCmd creates the service command and its subcommands
func newServiceCmd() *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the gdr server as a systemd service",
		Long: `Manage the gdr REST API server as a systemd service.

The unit runs "gdr serve" with the resolved configuration file, restarts on
failure and may only write to the archive and configuration directories.`,
	}

	serviceCmd.AddCommand(
		newServiceUnitCmd(),
		newServiceInstallCmd(),
		newSystemctlCmd("start", "Start the gdr service"),
		newSystemctlCmd("stop", "Stop the gdr service"),
		newSystemctlCmd("restart", "Restart the gdr service"),
		newSystemctlCmd("status", "Show gdr service status"),
		newServiceLogsCmd(),
		newServiceUninstallCmd(),
	)
	return serviceCmd
}

func newServiceUnitCmd() *cobra.Command {
	unitCmd := &cobra.Command{
		Use:   "unit",
		Short: "Print the systemd unit file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			opts, err := unitOptionsFrom(cmd, rt)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), systemdUnit(opts))
			return err
		},
	}

	addUnitFlags(unitCmd)
	return unitCmd
}

func newServiceInstallCmd() *cobra.Command {
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install gdr as a systemd service",
		Long: `Install the gdr server as a systemd service.

This will:
- Create a configuration with a generated API key if none exists
- Write the systemd unit file
- Enable and optionally start the service

Examples:
  sudo gdr service install
  sudo gdr service install --data-dir /var/lib/gdr --user gdr`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			unitDir, _ := cmd.Flags().GetString("unit-dir")
			startNow, _ := cmd.Flags().GetBool("start")
			out := cmd.OutOrStdout()

			if !config.ConfigExists(rt.configPath) {
				cfg, err := config.BootstrapConfig(rt.configPath, rt.cfg.DataDir)
				if err != nil {
					return err
				}
				rt.cfg = cfg
				fmt.Fprintf(out, "✅ Created new configuration at %s\n", rt.configPath)
			}

			if err := os.MkdirAll(rt.cfg.DataDir, 0750); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			opts, err := unitOptionsFrom(cmd, rt)
			if err != nil {
				return err
			}

			unitPath := filepath.Join(unitDir, serviceName)
			if err := os.WriteFile(unitPath, []byte(systemdUnit(opts)), 0600); err != nil {
				return fmt.Errorf("failed to write unit file: %w", err)
			}
			fmt.Fprintf(out, "✅ Wrote %s\n", unitPath)

			if err := runSystemctl(out, "daemon-reload"); err != nil {
				return fmt.Errorf("failed to reload systemd: %w", err)
			}
			if err := runSystemctl(out, "enable", serviceName); err != nil {
				return fmt.Errorf("failed to enable service: %w", err)
			}
			fmt.Fprintf(out, "✅ Service enabled\n")

			if startNow {
				if err := runSystemctl(out, "start", serviceName); err != nil {
					return fmt.Errorf("failed to start service: %w", err)
				}
				fmt.Fprintf(out, "✅ Service started\n")
			} else {
				fmt.Fprintf(out, "\nTo start the service: sudo systemctl start %s\n", serviceName)
			}
			fmt.Fprintf(out, "To view logs: sudo journalctl -u %s -f\n", serviceName)
			return nil
		},
	}

	addUnitFlags(installCmd)
	installCmd.Flags().String("unit-dir", "/etc/systemd/system", "Directory to write the unit file to")
	installCmd.Flags().Bool("start", true, "Start the service after installation")
	return installCmd
}

func newSystemctlCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runSystemctl(cmd.OutOrStdout(), action, serviceName); err != nil {
				return fmt.Errorf("systemctl %s: %w", action, err)
			}
			return nil
		},
	}
}

func newServiceLogsCmd() *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show gdr service logs",
		Long: `Show gdr service logs using journalctl.

Examples:
  gdr service logs
  gdr service logs -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			follow, _ := cmd.Flags().GetBool("follow")
			lines, _ := cmd.Flags().GetInt("lines")
			return runCommand(cmd.OutOrStdout(), "journalctl", journalArgs(follow, lines)...)
		},
	}

	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("lines", "n", 0, "Number of lines to show")
	return logsCmd
}

func journalArgs(follow bool, lines int) []string {
	args := []string{"-u", serviceName}
	if follow {
		args = append(args, "-f")
	}
	if lines > 0 {
		args = append(args, fmt.Sprintf("-n%d", lines))
	}
	return args
}

func newServiceUninstallCmd() *cobra.Command {
	uninstallCmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the gdr service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unitDir, _ := cmd.Flags().GetString("unit-dir")
			out := cmd.OutOrStdout()

			_ = runSystemctl(out, "stop", serviceName) // already stopped is fine
			if err := runSystemctl(out, "disable", serviceName); err != nil {
				fmt.Fprintf(out, "Warning: could not disable service: %v\n", err)
			}

			unitPath := filepath.Join(unitDir, serviceName)
			if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove unit file: %w", err)
			}

			if err := runSystemctl(out, "daemon-reload"); err != nil {
				return fmt.Errorf("failed to reload systemd: %w", err)
			}

			fmt.Fprintf(out, "✅ gdr service uninstalled\n")
			fmt.Fprintf(out, "Note: configuration and archive files were not removed\n")
			return nil
		},
	}

	uninstallCmd.Flags().String("unit-dir", "/etc/systemd/system", "Directory holding the unit file")
	return uninstallCmd
}

func addUnitFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "gdr", "User to run the service as")
	cmd.Flags().String("binary", "", "Path to the gdr binary (default is the running executable)")
}

func unitOptionsFrom(cmd *cobra.Command, rt *session) (unitOptions, error) {
	user, _ := cmd.Flags().GetString("user")
	binary, _ := cmd.Flags().GetString("binary")
	if binary == "" {
		exe, err := os.Executable()
		if err != nil {
			return unitOptions{}, fmt.Errorf("failed to locate gdr binary: %w", err)
		}
		binary = exe
	}

	configPath, err := filepath.Abs(rt.configPath)
	if err != nil {
		return unitOptions{}, fmt.Errorf("invalid config path: %w", err)
	}
	dataDir, err := filepath.Abs(rt.cfg.DataDir)
	if err != nil {
		return unitOptions{}, fmt.Errorf("invalid data directory: %w", err)
	}

	return unitOptions{
		User:       user,
		Binary:     binary,
		ConfigPath: configPath,
		DataDir:    dataDir,
	}, nil
}

// systemdUnit renders the unit file for opts
func systemdUnit(opts unitOptions) string {
	return fmt.Sprintf(`[Unit]
Description=gdr replay server
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s
ReadWritePaths=%s

[Install]
WantedBy=multi-user.target
`, opts.User, opts.User, opts.Binary, opts.ConfigPath, opts.DataDir, filepath.Dir(opts.ConfigPath))
}
