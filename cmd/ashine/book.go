package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ashinemobile/booking-backend/internal/booking"
	"github.com/ashinemobile/booking-backend/internal/client"
	"github.com/ashinemobile/booking-backend/internal/form"
)

type bookOptions struct {
	api     string
	locale  string
	verbose bool
	values  map[booking.Field]*string
}

func newBookCmd() *cobra.Command {
	o := &bookOptions{values: map[booking.Field]*string{}}
	for _, f := range booking.FormFields {
		o.values[f] = new(string)
	}

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Submit a booking through the booking form rules",
		Long: `Fill the booking form from flags, validate it like the website does and
submit it to the booking API.

Example:
  ashine book --api https://ashinemobile.si \
    --name Jo --email jo@example.com \
    --category valeting --package full-valet \
    --location mobile --distance 0-10 \
    --date 25/03/2030 --message "please call ahead"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBook(cmd, o)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&o.api, "api", "http://localhost:8080", "booking API base URL")
	fl.StringVar(&o.locale, "locale", "", "confirmation language (en, sl)")
	fl.BoolVarP(&o.verbose, "verbose", "v", false, "log the submission to stderr")
	fl.StringVar(o.values[booking.FieldName], "name", "", "your name")
	fl.StringVar(o.values[booking.FieldEmail], "email", "", "your email address")
	fl.StringVar(o.values[booking.FieldPhone], "phone", "", "phone number (optional)")
	fl.StringVar(o.values[booking.FieldServiceCategory], "category", "", "service category id (valeting, detailing, other)")
	fl.StringVar(o.values[booking.FieldService], "package", "", "package id within the category")
	fl.StringVar(o.values[booking.FieldLocationType], "location", "", "our-location or mobile")
	fl.StringVar(o.values[booking.FieldDistance], "distance", "", "distance tier for mobile service (0-10, 10-20, 20-30, 30+)")
	fl.StringVar(o.values[booking.FieldDate], "date", "", "preferred date, DD/MM/YYYY or YYYY-MM-DD")
	fl.StringVar(o.values[booking.FieldMessage], "message", "", "details about the car and the job (min 10 characters)")
	return cmd
}

func runBook(cmd *cobra.Command, o *bookOptions) error {
	logger := zerolog.Nop()
	if o.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}

	cat := booking.DefaultCatalog()
	m := form.NewMachine(booking.NewValidator(cat, nil), cat, booking.MatchLocale(o.locale, os.Getenv("LANG")))
	ctrl := form.NewController(m, client.New(o.api, nil), logger)

	// FormFields orders each field before the ones derived from it.
	for _, f := range booking.FormFields {
		if v := *o.values[f]; v != "" {
			ctrl.Change(f, v)
		}
	}

	sp := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	sp.Suffix = " Sending booking..."
	sp.Start()
	s := ctrl.Submit(cmd.Context())
	sp.Stop()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	switch s.Status {
	case form.Submitted:
		if s.MessageID == "" {
			fmt.Fprintln(out, "Booking sent.")
		} else {
			fmt.Fprintf(out, "Booking sent (id %s).\n", s.MessageID)
		}
		return nil
	case form.Failed:
		fmt.Fprintln(errOut, s.Failure)
		return errReported
	}

	for _, f := range booking.FormFields {
		if msg := s.Errors[f]; msg != "" {
			fmt.Fprintf(errOut, "%s: %s\n", flagFor(f), msg)
		}
	}
	return errReported
}

// flagFor names the flag that sets f.
func flagFor(f booking.Field) string {
	switch f {
	case booking.FieldServiceCategory:
		return "--category"
	case booking.FieldService:
		return "--package"
	case booking.FieldLocationType:
		return "--location"
	}
	return "--" + string(f)
}
