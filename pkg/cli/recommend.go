package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/cli/config"
	"github.com/secmon-lab/smartresolve/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdRecommend() *cli.Command {
	var summary string
	var complaintID string
	var repoCfg config.Repository
	var llmCfg config.LLM
	var pipelineCfg config.Pipeline

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "summary",
			Aliases:     []string{"s"},
			Usage:       "Complaint summary text",
			Required:    true,
			Destination: &summary,
		},
		&cli.StringFlag{
			Name:        "complaint-id",
			Aliases:     []string{"c"},
			Usage:       "Complaint identifier",
			Required:    true,
			Destination: &complaintID,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"r"},
		Usage:   "Generate a resolution recommendation for one complaint",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := setupRuntime(ctx, &repoCfg, &llmCfg, &pipelineCfg, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			rec, err := rt.uc.Recommend.Create(ctx, model.RecommendationRequest{
				ComplaintSummary: summary,
				ComplaintID:      complaintID,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to generate recommendation")
			}

			printRecommendation(os.Stdout, rec)
			return nil
		},
	}
}

// printRecommendation renders rec for a terminal
func printRecommendation(w io.Writer, rec *model.Recommendation) {
	title := color.New(color.FgHiWhite, color.Bold)
	label := color.New(color.FgHiCyan)
	warn := color.New(color.FgYellow)
	primary := color.New(color.FgGreen, color.Bold)

	_, _ = title.Fprintf(w, "Recommendation %s (complaint %s)\n", rec.ID, rec.ComplaintID)
	_, _ = label.Fprint(w, "Status: ")
	if rec.IsDegraded() {
		degradations := make([]string, 0, len(rec.Degradations))
		for _, d := range rec.Degradations {
			degradations = append(degradations, string(d))
		}
		_, _ = warn.Fprintf(w, "%s [%s]\n", rec.Status, strings.Join(degradations, ", "))
	} else {
		_, _ = fmt.Fprintf(w, "%s\n", rec.Status)
	}
	_, _ = label.Fprint(w, "Confidence: ")
	_, _ = fmt.Fprintf(w, "%.2f (parse: %s)\n", rec.ConfidenceScore, rec.ParseMode)

	_, _ = fmt.Fprintln(w)
	if len(rec.Recommendations) == 0 {
		_, _ = warn.Fprintln(w, "No recommendation could be extracted from the model output")
	}
	for _, e := range rec.Recommendations {
		line := fmt.Sprintf("%d. %s", e.Rank, e.Resolution)
		if e.Resolution == rec.PrimaryRecommendation {
			_, _ = primary.Fprintln(w, line+" (primary)")
		} else {
			_, _ = fmt.Fprintln(w, line)
		}
		if e.ExpectedOutcome != "" {
			_, _ = fmt.Fprintf(w, "   expected: %s\n", e.ExpectedOutcome)
		}
		if e.Implementation != "" {
			_, _ = fmt.Fprintf(w, "   how: %s\n", e.Implementation)
		}
	}

	if rec.Reasoning != "" {
		_, _ = fmt.Fprintln(w)
		_, _ = label.Fprintln(w, "Reasoning:")
		_, _ = fmt.Fprintln(w, rec.Reasoning)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = label.Fprintf(w, "Cited cases (%d):\n", len(rec.CitedCases))
	for _, c := range rec.CitedCases {
		_, _ = fmt.Fprintf(w, "  %s  %.2f  %s: %s\n", c.ID, c.Score, c.Category, c.Resolution)
	}
	_, _ = fmt.Fprintf(w, "\nProcessed in %.1f ms\n", rec.ProcessingTimeMs)
}
