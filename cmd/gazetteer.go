package cmd

import (
	"errors"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

var buildGazetteerCmd = &cobra.Command{
	Use:   "build-gazetteer",
	Short: "builds a gazetteer database from a taxa export",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := errors.New("build-gazetteer is not implemented yet")
		gn.Warn(
			"<em>build-gazetteer</em> is not implemented yet. " +
				"Use a prebuilt gazetteer database and point " +
				"<em>gazetteer_path</em> at it.",
		)
		return err
	},
}

func init() {
	rootCmd.AddCommand(buildGazetteerCmd)
}
