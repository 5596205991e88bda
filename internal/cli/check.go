package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hostgate-io/hostgate/sdk/go/hostgate"
)

var (
	checkIdentity string
	checkHost     string
	checkConfig   string
	checkAllow    string
	checkFormat   string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkIdentity, "identity", "", "Remote address of the hypothetical request")
	checkCmd.Flags().StringVar(&checkHost, "host", "", "Declared Host header of the hypothetical request")
	checkCmd.Flags().StringVar(&checkConfig, "config", "", "Path to config YAML (default ~/.hostgate/config.yaml)")
	checkCmd.Flags().StringVar(&checkAllow, "allow", "", "Override allow-list: comma-separated hosts, or \"*\"")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one identity against the configured allow-list",
	Long: "Resolves the effective allow-list (override flag, then config file,\n" +
		"then allow-all) and prints the verdict for the given identity.\n\n" +
		"Exit code 0 on allow, 1 on deny.\n" +
		"Use in CI or scripts to probe gate configuration.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	gate, err := hostgate.New(hostgate.WithConfig(checkConfig))
	if err != nil {
		return fmt.Errorf("failed to load gate: %w", err)
	}
	defer gate.Close()

	var opts []hostgate.GuardOption
	if checkAllow != "" {
		opts = append(opts, hostgate.GuardWithAllowedHosts(strings.Split(checkAllow, ",")))
	}

	id := hostgate.Identity{RemoteAddr: checkIdentity, Host: checkHost}
	res := gate.Check(id, opts...)

	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(map[string]any{
			"identity":       checkIdentity,
			"host":           checkHost,
			"verdict":        string(res.Verdict),
			"reason":         res.Reason,
			"list_source":    res.ListSource,
			"handler_source": res.HandlerSource,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		fmt.Printf("%s  %s (%s, list from %s)\n", res.Verdict, id, res.Reason, res.ListSource)
	}

	if !res.Allowed() {
		os.Exit(1)
	}
	return nil
}
