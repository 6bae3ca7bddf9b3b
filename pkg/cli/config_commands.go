package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DeBrosOfficial/noforma/pkg/config"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

func newConfigCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect gateway configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the effective configuration (file + environment)",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(opts.ConfigPath)
				if err != nil {
					return err
				}
				errs := cfg.Validate()
				if len(errs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
					return nil
				}
				for _, e := range errs {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", e)
				}
				return fmt.Errorf("%d configuration error(s)", len(errs))
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration with secrets masked",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(opts.ConfigPath)
				if err != nil {
					return err
				}
				cfg.Chain.PrivateKey = logging.MaskSecret(cfg.Chain.PrivateKey)
				cfg.Scheduler.APIKey = logging.MaskSecret(cfg.Scheduler.APIKey)
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(cfg)
			},
		},
	)
	return cmd
}

// loadConfig resolves the config the way the gateway does, minus flags.
func loadConfig(path string) (*config.Config, error) {
	if strings.TrimSpace(path) == "" {
		if p, exists, err := config.DefaultPath("gateway.yaml"); err == nil && exists {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.ApplyEnv(os.Getenv); len(errs) > 0 {
		return nil, errs[0]
	}
	return cfg, nil
}
