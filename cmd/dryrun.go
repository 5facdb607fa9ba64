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
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/taxfinder/internal/ioload"
	"github.com/spf13/cobra"
)

var dryRunCmd = &cobra.Command{
	Use:   "dry-run <input>",
	Short: "estimates the cost of a run without network or LLM calls",
	Long: `Dry-run executes only the offline extractors and reports how much
work a real run would do: candidate counts, unique mention groups,
expected API and LLM calls and a rough time estimate.`,
	Args: cobra.ExactArgs(1),
	RunE: runDryRun,
}

func runDryRun(cmd *cobra.Command, args []string) error {
	text, err := ioload.Text(args[0], cfg.MaxFileSizeMB)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	p, err := newPipeline()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer p.Close()

	est, err := p.Estimate(text)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	gn.Info(
		"Candidates: <em>%s</em>, unique groups: <em>%s</em>",
		humanize.Comma(int64(est.Candidates)),
		humanize.Comma(int64(est.UniqueGroups)),
	)
	gn.Info(
		"Resolved from the gazetteer alone: <em>%s</em>",
		humanize.Comma(int64(est.SkipResolution)),
	)
	gn.Info(
		"Expected API calls: <em>%s</em>, LLM calls: <em>%s</em>",
		humanize.Comma(int64(est.ApiCalls)),
		humanize.Comma(int64(est.LlmCalls)),
	)
	gn.Info("Estimated time: <em>%s</em>", gnfmt.TimeString(est.Seconds))

	return nil
}

func init() {
	rootCmd.AddCommand(dryRunCmd)
}
