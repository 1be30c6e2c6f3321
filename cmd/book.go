package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/courtbook/internal/api"
	"github.com/example/courtbook/internal/booking"
)

func newBookCmd() *cobra.Command {
	var courtID int64
	var dateStr, timeStr string

	c := &cobra.Command{
		Use:   "book",
		Short: "Reserve a time slot on a court",
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
			wanted := timeStr
			if len(wanted) == 5 { // HH:MM -> HH:MM:SS
				wanted += ":00"
			}

			avail := booking.NewAvailability(a.client, api.CourtScope(courtID), a.log)
			orch := booking.NewOrchestrator(avail, a.client,
				booking.WithSession(a.store),
				booking.WithOrchestratorLogger(a.log))

			if err := orch.SelectDate(cmd.Context(), date); err != nil {
				if errors.Is(err, booking.ErrPastDate) {
					return fmt.Errorf("cannot book a past date")
				}
				return fmt.Errorf("could not load time slots: %w", err)
			}

			var slot api.TimeSlot
			found := false
			for _, s := range avail.Slots() {
				if s.StartTime == wanted {
					slot, found = s, true
					break
				}
			}
			if !found {
				return fmt.Errorf("no slot starts at %s on %s; run `courtbook slots --court %d --date %s`",
					timeStr, date.Format(api.DateFormat), courtID, date.Format(api.DateFormat))
			}
			if !orch.SelectSlot(slot.ID) {
				return fmt.Errorf("slot %s is already booked; pick another slot", slot.Label())
			}

			res, err := orch.Submit(cmd.Context())
			if err != nil {
				if msg := orch.LastReason().Message(); msg != "" {
					return fmt.Errorf("%s", msg)
				}
				return err
			}

			fmt.Fprintf(os.Stdout, "confirmed: reservation %d, %s %s at %s (%s)\n",
				res.ID, res.TimeSlotDetails.Date, res.TimeSlotDetails.Label(), res.CourtName, res.FacilityName)
			return nil
		},
	}

	c.Flags().Int64Var(&courtID, "court", 0, "court id")
	c.Flags().StringVar(&dateStr, "date", "", "date YYYY-MM-DD (default today)")
	c.Flags().StringVar(&timeStr, "time", "", "slot start time HH:MM or HH:MM:SS")
	_ = c.MarkFlagRequired("court")
	_ = c.MarkFlagRequired("time")
	return c
}
