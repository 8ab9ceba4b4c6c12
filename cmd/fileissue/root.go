package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"accessibility-insights/background/internal/issuefiling"
	"accessibility-insights/background/internal/issuefiling/domain"
)

type fileOptions struct {
	service  string
	settings map[string]string
	details  string
	open     bool
	env      domain.EnvironmentInfo
}

func newRootCmd(provider *issuefiling.Provider, opener issuefiling.Opener) *cobra.Command {
	opts := &fileOptions{}
	root := &cobra.Command{
		Use:           "fileissue",
		Short:         "Build the new-issue URL for an accessibility finding",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(cmd, provider, opener, opts)
		},
	}
	f := root.Flags()
	f.StringVarP(&opts.service, "service", "s", "", "issue filing service key (see `fileissue services`)")
	f.StringToStringVar(&opts.settings, "setting", nil, "service setting as key=value; repeatable")
	f.StringVarP(&opts.details, "details", "d", "-", "JSON issue details file, or - for stdin")
	f.BoolVar(&opts.open, "open", false, "open the URL in the default browser")
	f.StringVar(&opts.env.BrowserSpec, "browser-spec", "", "browser quoted in the Environment section")
	f.StringVar(&opts.env.ExtensionVersion, "tool-version", "0.0.0-dev", "tool version quoted in the footer")
	f.StringVar(&opts.env.AxeCoreVersion, "axe-version", "4.10.0", "axe-core version quoted in the footer")
	f.StringVar(&opts.env.ToolName, "tool-name", "Accessibility Insights for Web", "tool name quoted in the footer")
	f.StringVar(&opts.env.ToolURL, "tool-url", "https://accessibilityinsights.io", "tool link in the footer")
	_ = root.MarkFlagRequired("service")

	root.AddCommand(newServicesCmd(provider))
	return root
}

func newServicesCmd(provider *issuefiling.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List issue filing services and their settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, s := range provider.All() {
				fmt.Fprintf(out, "%s\t%s\t%s\n", s.Key(), s.DisplayName(), strings.Join(s.SettingsFields(), ","))
			}
			return nil
		},
	}
}

func runFile(cmd *cobra.Command, provider *issuefiling.Provider, opener issuefiling.Opener, opts *fileOptions) error {
	service, err := provider.ForKey(opts.service)
	if err != nil {
		return err
	}
	data, err := readDetails(cmd.InOrStdin(), opts.details)
	if err != nil {
		return err
	}
	settings := service.BuildStoreData(opts.settings)

	if !opts.open {
		u, err := service.IssueURL(settings, opts.env, data)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
		return nil
	}
	u, err := issuefiling.FileIssue(cmd.Context(), opener, service, settings, opts.env, data)
	if u != "" {
		fmt.Fprintln(cmd.OutOrStdout(), u)
	}
	return err
}

func readDetails(stdin io.Reader, path string) (domain.CreateIssueDetailsTextData, error) {
	var data domain.CreateIssueDetailsTextData
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return data, err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return data, fmt.Errorf("fileissue: decode details: %w", err)
	}
	return data, nil
}
