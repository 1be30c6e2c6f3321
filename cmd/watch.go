package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/courtbook/internal/api"
	"github.com/example/courtbook/internal/booking"
	"github.com/example/courtbook/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var courtID int64
	var dateStr, timesCSV string
	var book bool

	c := &cobra.Command{
		Use:   "watch",
		Short: "Poll a court's availability until a wanted slot frees up",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			date, err := parseDate(dateStr)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			avail := booking.NewAvailability(a.client, api.CourtScope(courtID), a.log)
			orch := booking.NewOrchestrator(avail, a.client,
				booking.WithSession(a.store),
				booking.WithOrchestratorLogger(a.log))

			w := &watch.Watcher{
				Avail:          avail,
				Orch:           orch,
				Date:           date,
				PreferredTimes: splitCSV(timesCSV),
				Interval:       a.cfg.WatchInterval(),
				Book:           book,
				Log:            a.log,
				Found: func(s api.TimeSlot) bool {
					fmt.Fprintf(os.Stdout, "slot free: id=%d %s\n", s.ID, s.Label())
					return true
				},
			}

			res, err := w.Run(ctx)
			if err != nil {
				return err
			}
			if res != nil {
				fmt.Fprintf(os.Stdout, "confirmed: reservation %d, %s %s at %s\n",
					res.ID, res.TimeSlotDetails.Date, res.TimeSlotDetails.Label(), res.CourtName)
			}
			return nil
		},
	}

	c.Flags().Int64Var(&courtID, "court", 0, "court id")
	c.Flags().StringVar(&dateStr, "date", "", "date YYYY-MM-DD (default today)")
	c.Flags().StringVar(&timesCSV, "times", "", "preferred start times, comma-separated (HH:MM)")
	c.Flags().BoolVar(&book, "book", false, "book the slot as soon as it frees up")
	_ = c.MarkFlagRequired("court")
	return c
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
