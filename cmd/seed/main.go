package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-scheduler/internal/auth"
	"github.com/jwalitptl/clinic-scheduler/internal/config"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/postgres"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
)

var log = logger.NewLogger(&logger.Config{Level: logger.InfoLevel, TimeFormat: time.RFC3339, Console: true})

func main() {
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Prepare a clinic-scheduler database for local development",
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(dataCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*sqlx.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return postgres.NewDB(ctx, postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info("schema applied")
			return nil
		},
	}
}

type seedOptions struct {
	clinicID     string
	patients     int
	doctors      int
	nurses       int
	appointments int
	days         int
	seed         int64
}

func dataCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Insert fake patients, staff, services and appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			return seed(cmd.Context(), db, opts)
		},
	}

	cmd.Flags().StringVar(&opts.clinicID, "clinic", "clinic-1", "clinic id to seed")
	cmd.Flags().IntVar(&opts.patients, "patients", 200, "number of patients")
	cmd.Flags().IntVar(&opts.doctors, "doctors", 8, "number of doctors")
	cmd.Flags().IntVar(&opts.nurses, "nurses", 6, "number of nurses")
	cmd.Flags().IntVar(&opts.appointments, "appointments", 400, "number of appointments")
	cmd.Flags().IntVar(&opts.days, "days", 30, "appointments are spread this many days around today")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID  string
		clinics []string
		perms   []string
		role    string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			tokens := auth.NewTokenService(auth.TokenConfig{
				Secret:   cfg.JWT.Secret,
				Issuer:   cfg.JWT.Issuer,
				Audience: cfg.JWT.Audience,
				TTL:      time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
			})
			token, err := tokens.Issue(model.User{
				ID:          userID,
				Name:        gofakeit.Name(),
				Email:       gofakeit.Email(),
				Role:        role,
				Permissions: perms,
				ClinicIDs:   clinics,
			}, cfg.Scheduling.Currency)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "dev-user", "user id")
	cmd.Flags().StringVar(&role, "role", model.UserRoleReceptionist, "user role")
	cmd.Flags().StringSliceVar(&clinics, "clinic", []string{"clinic-1"}, "clinic ids")
	cmd.Flags().StringSliceVar(&perms, "perm", []string{auth.Wildcard}, "permissions")
	return cmd
}

var (
	specialties = []string{
		"General Practice",
		"Cardiology",
		"Dermatology",
		"Pediatrics",
		"Orthopedics",
		"Neurology",
		"Endocrinology",
		"Psychiatry",
	}
	services = []struct {
		name     string
		duration int
		price    float64
	}{
		{"General Consultation", 30, 60},
		{"Follow-up Visit", 15, 35},
		{"Annual Checkup", 45, 120},
		{"Blood Work", 15, 40},
		{"Minor Procedure", 60, 250},
	}
	appointmentTypes = []model.AppointmentType{
		model.AppointmentTypeConsultation,
		model.AppointmentTypeFollowUp,
		model.AppointmentTypeCheckup,
		model.AppointmentTypeProcedure,
		model.AppointmentTypeEmergency,
	}
)

func seed(ctx context.Context, db *sqlx.DB, opts seedOptions) error {
	if opts.seed == 0 {
		opts.seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(uint64(opts.seed))
	log.Info("seed starting", "clinic_id", opts.clinicID, "seed", opts.seed)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	patientIDs := make([]string, 0, opts.patients)
	for i := 0; i < opts.patients; i++ {
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO patients (id, clinic_id, name, email, phone, status)
			VALUES ($1, $2, $3, $4, $5, 'active')
		`, id, opts.clinicID, faker.Name(), strings.ToLower(faker.Email()), faker.Phone())
		if err != nil {
			return fmt.Errorf("failed to insert patient: %w", err)
		}
		patientIDs = append(patientIDs, id)
	}

	doctorIDs := make([]string, 0, opts.doctors)
	for i := 0; i < opts.doctors; i++ {
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doctors (id, clinic_id, name, email, phone, specialty)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, opts.clinicID, "Dr. "+faker.LastName(), strings.ToLower(faker.Email()), faker.Phone(),
			specialties[faker.Number(0, len(specialties)-1)])
		if err != nil {
			return fmt.Errorf("failed to insert doctor: %w", err)
		}
		doctorIDs = append(doctorIDs, id)
	}

	nurseIDs := make([]string, 0, opts.nurses)
	for i := 0; i < opts.nurses; i++ {
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO nurses (id, clinic_id, name, phone) VALUES ($1, $2, $3, $4)
		`, id, opts.clinicID, faker.Name(), faker.Phone())
		if err != nil {
			return fmt.Errorf("failed to insert nurse: %w", err)
		}
		nurseIDs = append(nurseIDs, id)
	}

	serviceIDs := make([]string, 0, len(services))
	durations := make(map[string]int, len(services))
	for _, s := range services {
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO services (id, clinic_id, name, duration, price) VALUES ($1, $2, $3, $4, $5)
		`, id, opts.clinicID, s.name, s.duration, s.price)
		if err != nil {
			return fmt.Errorf("failed to insert service: %w", err)
		}
		serviceIDs = append(serviceIDs, id)
		durations[id] = s.duration
	}

	if len(patientIDs) == 0 || len(doctorIDs) == 0 {
		log.Warn("no patients or doctors, skipping appointments")
		return tx.Commit()
	}

	today := time.Now().Truncate(24 * time.Hour)
	for i := 0; i < opts.appointments; i++ {
		day := today.AddDate(0, 0, faker.Number(-opts.days, opts.days))
		start := day.Add(time.Duration(faker.Number(8, 17))*time.Hour + time.Duration(faker.RandomInt([]int{0, 15, 30, 45}))*time.Minute)
		serviceID := serviceIDs[faker.Number(0, len(serviceIDs)-1)]

		var nurseID interface{}
		if len(nurseIDs) > 0 && faker.Bool() {
			nurseID = nurseIDs[faker.Number(0, len(nurseIDs)-1)]
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO appointments (
				id, clinic_id, patient_id, doctor_id, nurse_id, service_id,
				start_time, duration, status, type, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			uuid.NewString(),
			opts.clinicID,
			patientIDs[faker.Number(0, len(patientIDs)-1)],
			doctorIDs[faker.Number(0, len(doctorIDs)-1)],
			nurseID,
			serviceID,
			start,
			durations[serviceID],
			statusFor(faker, start, today),
			appointmentTypes[faker.Number(0, len(appointmentTypes)-1)],
			faker.Sentence(6),
		)
		if err != nil {
			return fmt.Errorf("failed to insert appointment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed data: %w", err)
	}
	log.Info("seed complete",
		"patients", len(patientIDs),
		"doctors", len(doctorIDs),
		"nurses", len(nurseIDs),
		"appointments", opts.appointments)
	return nil
}

// statusFor keeps past appointments resolved and future ones open.
func statusFor(faker *gofakeit.Faker, start, today time.Time) model.AppointmentStatus {
	roll := faker.Number(1, 100)
	if start.Before(today) {
		switch {
		case roll <= 75:
			return model.AppointmentStatusCompleted
		case roll <= 90:
			return model.AppointmentStatusCancelled
		default:
			return model.AppointmentStatusNoShow
		}
	}
	switch {
	case roll <= 55:
		return model.AppointmentStatusScheduled
	case roll <= 90:
		return model.AppointmentStatusConfirmed
	default:
		return model.AppointmentStatusCancelled
	}
}
