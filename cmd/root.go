package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/courtbook/internal/api"
	"github.com/example/courtbook/internal/config"
	"github.com/example/courtbook/internal/logging"
	"github.com/example/courtbook/internal/session"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "courtbook",
		Short:         "Campus sports facility booking client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newRegisterCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newFacilitiesCmd())
	root.AddCommand(newCourtsCmd())
	root.AddCommand(newSlotsCmd())
	root.AddCommand(newBookCmd())
	root.AddCommand(newReservationsCmd())
	root.AddCommand(newWatchCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app wires the pieces every networked command needs.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	store  *session.Store
	client *api.Client
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore(cfg.SessionPath, cfg.Secret(), log)
	if err != nil {
		return nil, err
	}
	if err := store.Hydrate(); err != nil {
		return nil, err
	}
	client, err := api.New(cfg.APIBaseURL, store,
		api.WithTimeout(cfg.HTTPTimeout()), api.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, store: store, client: client}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func (a *app) requireAuth() error {
	if !a.store.Authenticated() {
		return fmt.Errorf("not logged in; run `courtbook login` first")
	}
	return nil
}
