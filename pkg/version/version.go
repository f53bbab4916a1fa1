package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/go-arcade/userinfo/pkg/version.Version=...".
var (
	Version   = "dev"
	GitBranch = ""
	GitCommit = ""
	BuildTime = ""
)

// VersionCmd prints the build information as JSON.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := GetVersion().JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

type Info struct {
	Version   string `json:"version"`
	GitBranch string `json:"gitBranch"`
	GitCommit string `json:"gitCommit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	Compiler  string `json:"compiler"`
	Platform  string `json:"platform"`
}

func GetVersion() *Info {
	return &Info{
		Version:   Version,
		GitBranch: GitBranch,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// UserAgent is the User-Agent sent to providers when none is configured.
func UserAgent() string {
	return "arcade-userinfo/" + Version
}

func (v *Info) JSON() ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
