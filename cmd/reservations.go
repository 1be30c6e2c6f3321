package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/courtbook/internal/booking"
)

func newReservationsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "reservations",
		Short: "List your active reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			list := booking.NewReservationList(a.client, a.log)
			rs, err := list.Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(rs) == 0 {
				fmt.Fprintln(os.Stdout, "no active reservations")
				return nil
			}
			for _, r := range rs {
				fmt.Fprintf(os.Stdout, "id=%d %s %s %s (%s)\n",
					r.ID, r.TimeSlotDetails.Date, r.TimeSlotDetails.Label(), r.CourtName, r.FacilityName)
			}
			return nil
		},
	}

	c.AddCommand(newReservationsCancelCmd())
	return c
}

func newReservationsCancelCmd() *cobra.Command {
	var id int64
	var yes bool

	c := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a reservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			if !yes && !confirm(fmt.Sprintf("Cancel reservation %d? [y/N] ", id)) {
				fmt.Fprintln(os.Stdout, "kept")
				return nil
			}

			list := booking.NewReservationList(a.client, a.log)
			if err := list.Cancel(cmd.Context(), id); err != nil {
				return fmt.Errorf("cancel failed, reservation unchanged: %w", err)
			}
			fmt.Fprintln(os.Stdout, "reservation cancelled")
			return nil
		},
	}

	c.Flags().Int64Var(&id, "id", 0, "reservation id")
	c.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	_ = c.MarkFlagRequired("id")
	return c
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stdout, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
