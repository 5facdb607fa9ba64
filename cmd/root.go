/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnames/gn"
	"github.com/gnames/taxfinder/internal/ioconfig"
	"github.com/gnames/taxfinder/internal/iofs"
	"github.com/gnames/taxfinder/internal/iologger"
	app "github.com/gnames/taxfinder/pkg"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/spf13/cobra"
)

var (
	homeDir  string
	cfgFile  string
	jsonLogs bool
	cfg      *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
	Use:     "taxfinder",
	Short:   "finds and identifies taxa mentioned in plain text",
	Long: `TaxFinder finds mentions of biological taxa in localized prose,
such as Russian field notes, and identifies them against the
iNaturalist taxonomy.

Candidate mentions come from three extractors: a gazetteer of common
names, a Latin-binomial matcher, and an optional LLM. Overlapping
mentions are merged, resolved through the iNaturalist autocomplete API,
and unresolved ones can be enriched with alternative names suggested by
an LLM.

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (TAXFINDER_*)
  3. Config file (~/.config/taxfinder/taxfinder.yaml)
  4. Built-in defaults`,
	PersistentPreRunE: bootstrap,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults.
	// Will be reconfigured later with user's config settings.
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	err = iologger.Init(config.LogDir(homeDir), defaultLog, false)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	if err = iofs.EnsurePromptFiles(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = config.ConfigFilePath(homeDir)
	}

	var stored *config.Config
	if stored, err = ioconfig.Load(cfgPath); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	cfg.Update(stored.ToOptions())
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})
	if jsonLogs {
		cfg.Update([]config.Option{config.OptLogFormat("json")})
	}
	resolvePaths(cfg)

	// Reconfigure logging with user's settings, appending to the log
	// file created above.
	err = iologger.Init(config.LogDir(homeDir), cfg.Log, true)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded", "config_file", cfgPath)

	return nil
}

// resolvePaths anchors relative data paths: the gazetteer under the
// config directory, the response cache under the cache directory.
func resolvePaths(cfg *config.Config) {
	if !filepath.IsAbs(cfg.GazetteerPath) {
		cfg.Update([]config.Option{config.OptGazetteerPath(
			filepath.Join(config.ConfigDir(cfg.HomeDir), cfg.GazetteerPath),
		)})
	}
	if !filepath.IsAbs(cfg.INaturalist.CachePath) {
		cfg.Update([]config.Option{config.OptINaturalistCachePath(
			filepath.Join(config.CacheDir(cfg.HomeDir), cfg.INaturalist.CachePath),
		)})
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Remove the automatic "taxfinder version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for taxfinder")

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "",
		"config file (default ~/.config/taxfinder/taxfinder.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&jsonLogs, "json-logs", false,
		"force JSON log format",
	)
}
