package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/courtbook/internal/api"
	"github.com/example/courtbook/internal/booking"
)

func newFacilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "facilities [id]",
		Short: "List facilities, or show one with its courts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid facility id %q", args[0])
				}
				f, err := a.client.Facility(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "id=%d name=%q type=%q\n%s\n", f.ID, f.Name, f.FacilityType, f.Description)
				for _, c := range f.Courts {
					fmt.Fprintf(os.Stdout, "  court id=%d name=%q available=%t\n", c.ID, c.Name, c.IsAvailable)
				}
				return nil
			}

			fs, err := a.client.Facilities(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range fs {
				fmt.Fprintf(os.Stdout, "id=%d name=%q type=%q courts=%d\n", f.ID, f.Name, f.FacilityType, len(f.Courts))
			}
			return nil
		},
	}
}

func newCourtsCmd() *cobra.Command {
	var facilityID int64

	c := &cobra.Command{
		Use:   "courts",
		Short: "List the courts of a facility",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			cs, err := a.client.Courts(cmd.Context(), facilityID)
			if err != nil {
				return err
			}
			for _, c := range cs {
				fmt.Fprintf(os.Stdout, "id=%d name=%q available=%t %s\n", c.ID, c.Name, c.IsAvailable, c.Description)
			}
			return nil
		},
	}

	c.Flags().Int64Var(&facilityID, "facility", 0, "facility id")
	_ = c.MarkFlagRequired("facility")
	return c
}

func newSlotsCmd() *cobra.Command {
	var courtID int64
	var dateStr string

	c := &cobra.Command{
		Use:   "slots",
		Short: "Show the time slots for a court on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			date, err := parseDate(dateStr)
			if err != nil {
				return err
			}

			avail := booking.NewAvailability(a.client, api.CourtScope(courtID), a.log)
			slots, err := avail.Load(cmd.Context(), date)
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				fmt.Fprintln(os.Stdout, "no slots on this date")
				return nil
			}
			for _, s := range slots {
				state := "available"
				if !s.IsAvailable {
					state = "booked"
				}
				fmt.Fprintf(os.Stdout, "id=%d %s %s\n", s.ID, s.Label(), state)
			}
			return nil
		},
	}

	c.Flags().Int64Var(&courtID, "court", 0, "court id")
	c.Flags().StringVar(&dateStr, "date", "", "date YYYY-MM-DD (default today)")
	_ = c.MarkFlagRequired("court")
	return c
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	d, err := time.Parse(api.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}
