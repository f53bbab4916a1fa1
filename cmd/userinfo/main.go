package main

import (
	"errors"
	"os"

	"github.com/go-arcade/userinfo/pkg/log"
	"github.com/go-arcade/userinfo/pkg/version"
	"github.com/spf13/cobra"
)

const tokenEnv = "USERINFO_ACCESS_TOKEN"

var (
	configFile  string
	token       string
	showMetrics bool
)

var rootCmd = &cobra.Command{
	Use:          "userinfo",
	Short:        "userinfo resolves OAuth2 access tokens into user info claims",
	SilenceUsage: true,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the user info claims for an access token",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "conf.d/config.toml", "conf file path, e.g. --conf ./conf.d/config.toml")
	fetchCmd.Flags().StringVar(&token, "token", "", "access token, defaults to $"+tokenEnv)
	fetchCmd.Flags().BoolVar(&showMetrics, "metrics", false, "print request metrics to stderr after the call")

	rootCmd.AddCommand(fetchCmd, version.VersionCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	accessToken := token
	if accessToken == "" {
		accessToken = os.Getenv(tokenEnv)
	}
	if accessToken == "" {
		return errors.New("an access token is required, use --token or $" + tokenEnv)
	}

	app, cleanup, err := initApp(configFile)
	if err != nil {
		return err
	}
	defer cleanup()
	log.Infow("config file loaded", "path", configFile)

	fetchErr := app.Fetch(cmd.Context(), accessToken, cmd.OutOrStdout())
	if showMetrics {
		if err := app.WriteMetrics(cmd.ErrOrStderr()); err != nil {
			return err
		}
	}
	return fetchErr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
