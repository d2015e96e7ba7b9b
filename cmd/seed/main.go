package main

import (
	"context"
	"os"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/auth"
	"hotelbooking/internal/pkg/logger"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

var sampleRoomTypes = []domain.RoomType{
	{Name: "Single", Description: "One bed, city view", PricePerNight: 79, TotalRooms: 12},
	{Name: "Double", Description: "Queen bed, desk, city view", PricePerNight: 119, TotalRooms: 20},
	{Name: "Twin", Description: "Two single beds", PricePerNight: 109, TotalRooms: 10},
	{Name: "Family", Description: "Double bed plus bunk beds", PricePerNight: 169, TotalRooms: 6},
	{Name: "Suite", Description: "Separate living room, bathtub", PricePerNight: 289, TotalRooms: 3},
}

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Error("seed failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, logCloser, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	roomTypes := repository.NewRoomTypeRepository(db)

	email := envOr("SEED_ADMIN_EMAIL", "root@hotel.local")
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		log.WithField("email", email).Info("super admin already present")
	} else {
		hash, err := auth.HashPassword(envOr("SEED_ADMIN_PASSWORD", "changeme123"))
		if err != nil {
			return err
		}
		root := &domain.User{
			Email:        email,
			PasswordHash: hash,
			Role:         domain.RoleSuperAdmin,
			Name:         "Hotel Administrator",
		}
		if err := users.Create(ctx, root); err != nil {
			return err
		}
		log.WithField("user_id", root.ID).Info("super admin created")
	}

	count, err := roomTypes.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.WithField("room_types", count).Info("catalog already seeded")
		return nil
	}
	for i := range sampleRoomTypes {
		rt := sampleRoomTypes[i]
		if err := roomTypes.Create(ctx, &rt); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"id": rt.ID, "name": rt.Name}).Info("room type created")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
