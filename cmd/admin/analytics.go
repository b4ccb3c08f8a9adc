package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go-cv-bot/internal/database"
	"go-cv-bot/internal/models"
)

type report struct {
	Active   []models.ActiveUser
	Feedback []models.Feedback
	Funnel   *models.Funnel
	Daily    []models.DailyActive
	Stats    *models.FeedbackStats
}

func connect(ctx context.Context) (*database.Repository, error) {
	url := viper.GetString("database_url")
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	return database.ConnectDB(ctx, url)
}

func loadReport(ctx context.Context, repo *database.Repository, days int) (*report, error) {
	var r report
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.Active, err = repo.MostActiveUsers(ctx, 10)
		return err
	})
	g.Go(func() (err error) {
		r.Feedback, err = repo.RecentFeedback(ctx, 5)
		return err
	})
	g.Go(func() (err error) {
		r.Funnel, err = repo.ConversionFunnel(ctx)
		return err
	})
	g.Go(func() (err error) {
		r.Daily, err = repo.DailyActiveUsers(ctx, days)
		return err
	})
	g.Go(func() (err error) {
		r.Stats, err = repo.FeedbackStats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &r, nil
}

func writeReport(out io.Writer, r *report) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "=== Most Active Users ===")
	fmt.Fprintln(w, "User ID\tUsername\tActions")
	for _, u := range r.Active {
		fmt.Fprintf(w, "%d\t%s\t%d\n", u.UserID, u.Username, u.ActionCount)
	}

	fmt.Fprintln(w, "\n=== Recent Feedback ===")
	fmt.Fprintln(w, "Username\tRating\tComments\tTimestamp")
	for _, f := range r.Feedback {
		rating, comments := "-", ""
		if f.Rating != nil {
			rating = fmt.Sprint(*f.Rating)
		}
		if f.Comments != nil {
			comments = *f.Comments
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Username, rating, comments, f.Timestamp.Format(time.DateTime))
	}

	if r.Funnel != nil {
		fmt.Fprintln(w, "\n=== Conversion Funnel ===")
		fmt.Fprintf(w, "Started\t%d\n", r.Funnel.Started)
		fmt.Fprintf(w, "Completed profile\t%d\n", r.Funnel.CompletedProfile)
		fmt.Fprintf(w, "Generated CV\t%d\n", r.Funnel.GeneratedCV)
	}

	fmt.Fprintln(w, "\n=== Daily Active Users ===")
	fmt.Fprintln(w, "Date\tUsers")
	for _, d := range r.Daily {
		fmt.Fprintf(w, "%s\t%d\n", d.Day.Format(time.DateOnly), d.Users)
	}

	if r.Stats != nil {
		fmt.Fprintln(w, "\n=== Feedback Stats ===")
		avg := "-"
		if r.Stats.AverageRating != nil {
			avg = fmt.Sprintf("%.2f", *r.Stats.AverageRating)
		}
		fmt.Fprintf(w, "Total\t%d\n", r.Stats.Total)
		fmt.Fprintf(w, "Average rating\t%s\n", avg)
		fmt.Fprintf(w, "With comments\t%d\n", r.Stats.WithComments)
	}
	return w.Flush()
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Print usage analytics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		days, _ := cmd.Flags().GetInt("days")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		repo, err := connect(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		r, err := loadReport(ctx, repo, days)
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), r)
	},
}

var pingDBCmd = &cobra.Command{
	Use:   "ping-db",
	Short: "Check the analytics database connection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		repo, err := connect(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repo.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ database reachable")
		return nil
	},
}

func init() {
	analyticsCmd.Flags().Int("days", 7, "days of daily active users to show")
	rootCmd.AddCommand(analyticsCmd, pingDBCmd)
}
