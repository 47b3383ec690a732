package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/tmaxmax/solext/pkg/solcbin"
)

var downloadFlags struct {
	version  string
	platform string
	out      string
	baseURL  string
	cacheDir string
	timeout  time.Duration
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a released compiler from the binaries server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &solcbin.Client{
			BaseURL:  downloadFlags.baseURL,
			CacheDir: downloadFlags.cacheDir,
			Timeout:  downloadFlags.timeout,
			Logger:   logger,
		}

		out := downloadFlags.out
		if out == "" {
			out = "solc"
			if solcbin.IsJS(downloadFlags.platform) {
				out = "soljson.js"
			}
		}

		b, err := client.Download(cmd.Context(), downloadFlags.platform, downloadFlags.version, out)
		if err != nil {
			return err
		}

		abs, _ := filepath.Abs(out)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.LongVersion, abs)
		return nil
	},
}

func init() {
	f := downloadCmd.Flags()
	f.StringVar(&downloadFlags.version, "version", "latest", "Release number, long version or \"latest\"")
	f.StringVar(&downloadFlags.platform, "platform", solcbin.PlatformLinux, "Platform to download the build for")
	f.StringVarP(&downloadFlags.out, "out", "o", "", "Destination file (default: solc, or soljson.js for "+solcbin.PlatformEmscripten+")")
	f.StringVar(&downloadFlags.baseURL, "base-url", solcbin.DefaultBaseURL, "Binaries server URL")
	f.StringVar(&downloadFlags.cacheDir, "cache-dir", "", "Directory to cache downloads in")
	f.DurationVar(&downloadFlags.timeout, "timeout", 5*time.Minute, "Request timeout")
}
