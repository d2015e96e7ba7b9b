// Command purge_users deletes guest accounts and everything they own.
//
//	purge_users -confirm [-include-staff]
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/events"
	"hotelbooking/internal/modules/admin"
	"hotelbooking/internal/modules/admission"
	"hotelbooking/internal/modules/inventory"
	"hotelbooking/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	confirm := flag.Bool("confirm", false, "required: actually delete the accounts")
	includeStaff := flag.Bool("include-staff", false, "also delete ADMIN accounts (SUPERADMIN is always kept)")
	flag.Parse()

	if err := run(*confirm, *includeStaff); err != nil {
		logrus.WithError(err).Error("purge failed")
		os.Exit(1)
	}
}

func run(confirm, includeStaff bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, logCloser, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("closing database failed")
		} else {
			log.Debug("database connection closed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitURL != "" {
		broker, err := events.DialRabbit(ctx, cfg.RabbitURL, log)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, purge events will not be published")
		} else {
			defer broker.Close()
			publisher = broker
		}
	}

	ledger := inventory.NewLedger(log)
	coordinator := admission.NewCoordinator(db, ledger, cfg.AdmissionTimeout, log)
	svc := admin.NewService(db, ledger, coordinator, publisher, log)

	out, err := svc.PurgeGuests(ctx, admin.PurgeOptions{Confirm: confirm, IncludeStaff: includeStaff})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"users":         out.Users,
		"reservations":  out.Reservations,
		"payments":      out.Payments,
		"notifications": out.Notifications,
		"released":      out.ReleasedReservations,
	}).Info("purge finished")
	return nil
}
