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
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/taxfinder/internal/ioload"
	"github.com/gnames/taxfinder/internal/iopipeline"
	"github.com/gnames/taxfinder/pkg/config"
	"github.com/gnames/taxfinder/pkg/events"
	"github.com/gnames/taxfinder/pkg/format"
	"github.com/gnames/taxfinder/pkg/pipeline"
	"github.com/gnames/taxfinder/pkg/taxon"
	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process <input> [output]",
	Short: "finds taxa mentions in a text file and writes JSON results",
	Long: `Process runs the full pipeline on a plain-text file: extraction,
merge, resolution against iNaturalist, optional LLM enrichment and
assembly. Progress goes to stderr, the JSON results to stdout or the
output file.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	processFlags(cmd)

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

	var results []taxon.Result
	var summary *events.Summary
	var bar *pb.ProgressBar

	for ev := range p.Process(cmd.Context(), text) {
		switch e := ev.(type) {
		case events.PhaseStarted:
			bar = startBar(e)
		case events.Progress:
			if bar != nil {
				bar.SetCurrent(int64(e.Done))
				if e.Detail != "" {
					bar.Set("suffix", " "+e.Detail)
				}
			}
		case events.PhaseFinished:
			if bar != nil {
				bar.Finish()
				bar = nil
			}
		case events.Note:
			gn.Warn(e.Msg)
		case events.ResultReady:
			results = append(results, e.Result)
		case events.Finished:
			s := e.Summary
			summary = &s
		}
	}
	if bar != nil {
		bar.Finish()
	}
	if err = p.Err(); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	allOccurrences, _ := cmd.Flags().GetBool("all-occurrences")
	compact, _ := cmd.Flags().GetBool("compact")

	var out []byte
	if allOccurrences {
		out, err = format.Full(results, !compact)
	} else {
		out, err = format.Deduplicated(results, !compact)
	}
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	out = append(out, '\n')

	if len(args) > 1 {
		if err = os.WriteFile(args[1], out, 0644); err != nil {
			gn.PrintErrorMessage(err)
			return err
		}
		gn.Info("Results are saved to <em>%s</em>", args[1])
	} else {
		if _, err = os.Stdout.Write(out); err != nil {
			return err
		}
	}

	if summary != nil {
		printSummary(*summary)
	}
	return nil
}

// newPipeline assembles the pipeline with the CLI-owned dependencies:
// the morphological analyzer, the locale-substituted prompts and the
// checkpoint directory.
func newPipeline() (pipeline.Pipeline, error) {
	extPrompt, enrPrompt, err := loadPrompts()
	if err != nil {
		return nil, err
	}
	return iopipeline.New(
		cfg,
		iopipeline.OptMorph(morphForLocale(cfg.Locale)),
		iopipeline.OptPrompts(extPrompt, enrPrompt),
		iopipeline.OptCheckpointDir(config.CheckpointDir(homeDir)),
	)
}

func startBar(e events.PhaseStarted) *pb.ProgressBar {
	if e.Total == 0 {
		return nil
	}
	bar := pb.Full.Start(e.Total)
	bar.Set("prefix", string(e.Phase)+" ")
	bar.Set(pb.CleanOnFinish, true)
	bar.SetWriter(os.Stderr)
	return bar
}

func printSummary(s events.Summary) {
	dur := s.End.Sub(s.Start)
	gn.Info(
		"Found <em>%s</em> mentions in <em>%s</em> groups",
		humanize.Comma(int64(s.CandidatesFound)),
		humanize.Comma(int64(s.GroupsMerged)),
	)
	gn.Info(
		"Identified <em>%s</em>, unidentified <em>%s</em>",
		humanize.Comma(int64(s.Identified)),
		humanize.Comma(int64(s.Unidentified)),
	)
	gn.Info(
		"API calls: %s, cache hits: %s, LLM calls: %s",
		humanize.Comma(int64(s.ApiCalls)),
		humanize.Comma(int64(s.CacheHits)),
		humanize.Comma(int64(s.LlmCalls)),
	)
	if s.Skipped > 0 {
		gn.Info(
			"Resolved <em>%s</em> mentions from the gazetteer alone",
			humanize.Comma(int64(s.Skipped)),
		)
	}
	gn.Info("Run <em>%s</em> took %s", s.RunID, gnfmt.TimeString(dur.Seconds()))
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Bool(
		"all-occurrences", false,
		"write one entry per occurrence instead of one per mention",
	)
	processCmd.Flags().Bool("compact", false, "single-line JSON output")
	processCmd.Flags().Float64P(
		"confidence", "c", 0,
		"minimal extraction confidence, 0..1",
	)
	processCmd.Flags().Bool("degraded", false, "run without a gazetteer")
	processCmd.Flags().Bool("no-cache", false, "disable the API response cache")
}
