package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sheenubhat/network-automation-scripts/inventory"
	"github.com/sheenubhat/network-automation-scripts/probe"
)

func newProbeCmd(root *rootOptions) *cobra.Command {
	var (
		hostFile string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "probe [hosts...]",
		Short: "Check host reachability with a single ICMP echo per host",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := root.newLogger()
			if err != nil {
				return err
			}
			hosts := append([]string{}, args...)
			if hostFile != "" {
				fileHosts, skipped, err := inventory.LoadHosts(hostFile)
				if err != nil {
					log.Error().Err(err).Msg("failed to read host file")
					return err
				}
				if skipped > 0 {
					log.Warn().Int("records", skipped).Msg("host file records without a host were skipped")
				}
				hosts = append(hosts, fileHosts...)
			}
			if len(hosts) == 0 {
				log.Debug().Msg("no hosts given, probing loopback")
				hosts = []string{"127.0.0.1"}
			}
			prober := probe.NewProber(timeout, log)
			reachable := prober.ProbeAll(cmd.Context(), hosts)
			log.Info().Int("reachable", reachable).Int("unreachable", len(hosts)-reachable).
				Msg("probe complete")
			return nil
		},
	}
	cmd.Flags().StringVarP(&hostFile, "file", "f", "", "inventory document or newline-separated host list")
	cmd.Flags().DurationVar(&timeout, "timeout", probe.DefaultTimeout, "per-host ping timeout")
	return cmd
}
